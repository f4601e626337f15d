package engine

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/swizzylabs/swizzy-cli/internal"
	"github.com/swizzylabs/swizzy-cli/workbook"
)

// asNumber reports a cell value as float64 when it is numeric.
// Strings are never coerced.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// rangeGrid reads the typed grid of a range along with the zero-based
// column index of its left edge, for mapping column letters to offsets.
func rangeGrid(wb *workbook.Workbook, sheet, rng string) ([][]any, int, error) {
	_, startCol, _, _, err := internal.ResolveRange(rng)
	if err != nil {
		return nil, 0, err
	}
	grid, err := wb.GetRange(sheet, rng)
	if err != nil {
		return nil, 0, err
	}
	return grid, startCol, nil
}

// columnOffset maps an absolute column letter to its offset inside a
// range of the given width.
func columnOffset(letter string, startCol, width int) (int, error) {
	abs, err := internal.LetterToCol(letter)
	if err != nil {
		return 0, err
	}
	off := abs - startCol
	if off < 0 || off >= width {
		return 0, fmt.Errorf("column %s is outside the range", strings.ToUpper(letter))
	}
	return off, nil
}

// SummaryStats computes descriptive statistics over the numeric cells
// of a range. Non-numeric cells are ignored silently.
type SummaryStats struct {
	Range   string
	Metrics []string
}

func (op SummaryStats) Kind() string { return "summary_stats" }

func (op SummaryStats) apply(wb *workbook.Workbook, sheet string) (any, error) {
	grid, err := wb.GetRange(sheet, op.Range)
	if err != nil {
		return nil, err
	}

	var values []float64
	for _, row := range grid {
		for _, cell := range row {
			if n, ok := asNumber(cell); ok {
				values = append(values, n)
			}
		}
	}

	stats := map[string]any{}
	for _, metric := range op.Metrics {
		switch metric {
		case "mean":
			if len(values) > 0 {
				stats["mean"] = sum(values) / float64(len(values))
			}
		case "median":
			if len(values) > 0 {
				stats["median"] = median(values)
			}
		case "sum":
			if len(values) > 0 {
				stats["sum"] = sum(values)
			}
		case "min":
			if len(values) > 0 {
				stats["min"] = minOf(values)
			}
		case "max":
			if len(values) > 0 {
				stats["max"] = maxOf(values)
			}
		case "count":
			stats["count"] = len(values)
		}
	}

	return map[string]any{
		"type":    op.Kind(),
		"target":  op.Range,
		"results": stats,
	}, nil
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

// median uses the standard even/odd midpoint average rule.
func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Filter returns the rows of a range whose cell in the condition
// column matches the operator and value. The first row of the range is
// the header row and is excluded from the results. Numeric operators
// against non-numeric cells exclude the row, they never error.
type Filter struct {
	Range    string
	Column   string
	Operator string
	Value    any
}

func (op Filter) Kind() string { return "filter" }

func (op Filter) apply(wb *workbook.Workbook, sheet string) (any, error) {
	grid, startCol, err := rangeGrid(wb, sheet, op.Range)
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("range %s is empty", op.Range)
	}
	col, err := columnOffset(op.Column, startCol, len(grid[0]))
	if err != nil {
		return nil, err
	}

	headers := grid[0]
	matched := [][]any{}
	for _, row := range grid[1:] {
		if matchCondition(row[col], op.Operator, op.Value) {
			matched = append(matched, row)
		}
	}

	return map[string]any{
		"type":          op.Kind(),
		"headers":       headers,
		"filtered_data": matched,
		"count":         len(matched),
	}, nil
}

func matchCondition(cell any, operator string, value any) bool {
	switch operator {
	case ">", ">=", "<", "<=":
		cn, ok1 := asNumber(cell)
		vn, ok2 := asNumber(value)
		if !ok1 || !ok2 {
			return false
		}
		switch operator {
		case ">":
			return cn > vn
		case ">=":
			return cn >= vn
		case "<":
			return cn < vn
		default:
			return cn <= vn
		}
	case "==", "=":
		return equalValues(cell, value)
	case "!=", "<>":
		return !equalValues(cell, value)
	case "contains":
		cs, ok1 := cell.(string)
		vs, ok2 := value.(string)
		return ok1 && ok2 && strings.Contains(cs, vs)
	default:
		return false
	}
}

func equalValues(a, b any) bool {
	if an, ok := asNumber(a); ok {
		bn, ok := asNumber(b)
		return ok && an == bn
	}
	return a == b
}

// Extract reads a range either as a row-major grid ("rows") or as one
// mapping per record keyed by the header row ("json").
type Extract struct {
	Range  string
	Format string
}

func (op Extract) Kind() string { return "extract" }

func (op Extract) apply(wb *workbook.Workbook, sheet string) (any, error) {
	grid, err := wb.GetRange(sheet, op.Range)
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("range %s is empty", op.Range)
	}

	headers := grid[0]
	data := grid[1:]

	if op.Format == "json" {
		records := make([]map[string]any, 0, len(data))
		for _, row := range data {
			record := map[string]any{}
			for i, header := range headers {
				if i >= len(row) {
					break
				}
				record[fmt.Sprintf("%v", header)] = row[i]
			}
			records = append(records, record)
		}
		return map[string]any{
			"type": op.Kind(),
			"data": records,
		}, nil
	}

	return map[string]any{
		"type":    op.Kind(),
		"headers": headers,
		"data":    data,
	}, nil
}

// Correlation computes the Pearson correlation of two columns over the
// rows of a range, excluding the header row and any pair where either
// value is non-numeric. A zero denominator reports correlation null.
type Correlation struct {
	Range   string
	Columns [2]string
}

func (op Correlation) Kind() string { return "correlation" }

func (op Correlation) apply(wb *workbook.Workbook, sheet string) (any, error) {
	grid, startCol, err := rangeGrid(wb, sheet, op.Range)
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("range %s is empty", op.Range)
	}
	width := len(grid[0])
	c1, err := columnOffset(op.Columns[0], startCol, width)
	if err != nil {
		return nil, err
	}
	c2, err := columnOffset(op.Columns[1], startCol, width)
	if err != nil {
		return nil, err
	}

	var xs, ys []float64
	for _, row := range grid[1:] {
		x, ok1 := asNumber(row[c1])
		y, ok2 := asNumber(row[c2])
		if ok1 && ok2 {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("insufficient numeric data for correlation")
	}

	n := float64(len(xs))
	sumX, sumY := sum(xs), sum(ys)
	var sumXY, sumX2, sumY2 float64
	for i := range xs {
		sumXY += xs[i] * ys[i]
		sumX2 += xs[i] * xs[i]
		sumY2 += ys[i] * ys[i]
	}

	numerator := n*sumXY - sumX*sumY
	denominator := math.Sqrt((n*sumX2 - sumX*sumX) * (n*sumY2 - sumY*sumY))

	var correlation any // null when the denominator is zero
	if denominator != 0 {
		correlation = numerator / denominator
	}

	return map[string]any{
		"type":        op.Kind(),
		"columns":     []string{op.Columns[0], op.Columns[1]},
		"correlation": correlation,
		"sample_size": len(xs),
	}, nil
}

// TrendAnalysis fits ordinary least squares to (x, y) pairs. y must be
// numeric; a non-numeric x falls back to its 1-based sequence position.
// The result always includes a one-step-ahead prediction at max(x)+1.
type TrendAnalysis struct {
	Range   string
	XColumn string
	YColumn string
}

func (op TrendAnalysis) Kind() string { return "trend_analysis" }

func (op TrendAnalysis) apply(wb *workbook.Workbook, sheet string) (any, error) {
	grid, startCol, err := rangeGrid(wb, sheet, op.Range)
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("range %s is empty", op.Range)
	}
	width := len(grid[0])
	xCol, err := columnOffset(op.XColumn, startCol, width)
	if err != nil {
		return nil, err
	}
	yCol, err := columnOffset(op.YColumn, startCol, width)
	if err != nil {
		return nil, err
	}

	var xs, ys []float64
	for _, row := range grid[1:] {
		y, ok := asNumber(row[yCol])
		if !ok {
			continue
		}
		if x, ok := asNumber(row[xCol]); ok {
			xs = append(xs, x)
		} else {
			// Ordinal fallback: position in the accepted sequence.
			xs = append(xs, float64(len(xs)+1))
		}
		ys = append(ys, y)
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("insufficient data for trend analysis")
	}

	n := float64(len(xs))
	sumX, sumY := sum(xs), sum(ys)
	var sumXY, sumX2 float64
	for i := range xs {
		sumXY += xs[i] * ys[i]
		sumX2 += xs[i] * xs[i]
	}

	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return nil, fmt.Errorf("error calculating trend: zero variance in x values")
	}
	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	yMean := sumY / n
	var ssTotal, ssResidual float64
	for i := range xs {
		ssTotal += (ys[i] - yMean) * (ys[i] - yMean)
		predicted := slope*xs[i] + intercept
		ssResidual += (ys[i] - predicted) * (ys[i] - predicted)
	}
	var rSquared any // null when total sum of squares is zero
	if ssTotal != 0 {
		rSquared = 1 - ssResidual/ssTotal
	}

	nextX := maxOf(xs) + 1
	return map[string]any{
		"type":                  op.Kind(),
		"slope":                 slope,
		"intercept":             intercept,
		"r_squared":             rSquared,
		"sample_size":           len(xs),
		"next_value_prediction": slope*nextX + intercept,
	}, nil
}

// Pivot builds a group-by table keyed by (row-key tuple, column-key
// tuple) and aggregates the numeric cells of the value columns.
// Non-numeric value cells are excluded, never coerced. Without column
// keys all values fall into a single synthetic "Value" group.
type Pivot struct {
	Range       string
	RowKeys     []string
	ColKeys     []string
	ValueCols   []string
	Aggregation string
}

func (op Pivot) Kind() string { return "pivot" }

func (op Pivot) apply(wb *workbook.Workbook, sheet string) (any, error) {
	grid, startCol, err := rangeGrid(wb, sheet, op.Range)
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("range %s is empty", op.Range)
	}
	width := len(grid[0])
	headers := grid[0]

	rowIdx, err := columnOffsets(op.RowKeys, startCol, width)
	if err != nil {
		return nil, err
	}
	colIdx, err := columnOffsets(op.ColKeys, startCol, width)
	if err != nil {
		return nil, err
	}
	valIdx, err := columnOffsets(op.ValueCols, startCol, width)
	if err != nil {
		return nil, err
	}

	type group struct {
		rowKey []any
		cells  map[string][]float64
	}
	var rowOrder []string
	groups := map[string]*group{}
	colKeySet := map[string]bool{}

	for _, row := range grid[1:] {
		rowKey := keyTuple(row, rowIdx)
		colKey := keyTuple(row, colIdx)
		colName := "Value" // synthetic group when no column keys given
		if len(colIdx) > 0 {
			colName = keyName(colKey)
		}

		for _, vi := range valIdx {
			n, ok := asNumber(row[vi])
			if !ok {
				continue
			}
			rk := keyName(rowKey)
			g, seen := groups[rk]
			if !seen {
				g = &group{rowKey: rowKey, cells: map[string][]float64{}}
				groups[rk] = g
				rowOrder = append(rowOrder, rk)
			}
			g.cells[colName] = append(g.cells[colName], n)
			colKeySet[colName] = true
		}
	}

	colNames := make([]string, 0, len(colKeySet))
	for name := range colKeySet {
		colNames = append(colNames, name)
	}
	sort.Strings(colNames)

	pivot := make([]map[string]any, 0, len(rowOrder))
	for _, rk := range rowOrder {
		g := groups[rk]
		record := map[string]any{}
		for i, idx := range rowIdx {
			record[fmt.Sprintf("%v", headers[idx])] = g.rowKey[i]
		}
		for _, name := range colNames {
			values, ok := g.cells[name]
			if !ok {
				record[name] = nil
				continue
			}
			record[name] = aggregate(op.Aggregation, values)
		}
		pivot = append(pivot, record)
	}

	return map[string]any{
		"type":       op.Kind(),
		"pivot_data": pivot,
	}, nil
}

func columnOffsets(letters []string, startCol, width int) ([]int, error) {
	offsets := make([]int, 0, len(letters))
	for _, letter := range letters {
		off, err := columnOffset(letter, startCol, width)
		if err != nil {
			return nil, err
		}
		offsets = append(offsets, off)
	}
	return offsets, nil
}

func keyTuple(row []any, idx []int) []any {
	key := make([]any, 0, len(idx))
	for _, i := range idx {
		if i < len(row) {
			key = append(key, row[i])
		} else {
			key = append(key, nil)
		}
	}
	return key
}

// keyName joins the non-nil parts of a key tuple with "_".
func keyName(key []any) string {
	parts := make([]string, 0, len(key))
	for _, k := range key {
		if k == nil {
			continue
		}
		if n, ok := asNumber(k); ok {
			parts = append(parts, strconv.FormatFloat(n, 'g', -1, 64))
			continue
		}
		parts = append(parts, fmt.Sprintf("%v", k))
	}
	return strings.Join(parts, "_")
}

func aggregate(kind string, values []float64) any {
	switch kind {
	case "sum":
		return sum(values)
	case "avg", "mean":
		return sum(values) / float64(len(values))
	case "min":
		return minOf(values)
	case "max":
		return maxOf(values)
	case "count":
		return len(values)
	}
	return nil
}
