package engine

import (
	"fmt"
	"strings"

	"github.com/swizzylabs/swizzy-cli/internal"
	"github.com/swizzylabs/swizzy-cli/workbook"
)

// UpdateCell overwrites a single cell. A string value beginning with
// "=" becomes a formula, everything else a plain value.
type UpdateCell struct {
	Cell  string
	Value any
}

func (op UpdateCell) Kind() string { return "update_cell" }

func (op UpdateCell) apply(wb *workbook.Workbook, sheet string) (any, error) {
	row, col, err := internal.Resolve(op.Cell)
	if err != nil {
		return nil, err
	}
	if err := wb.SetCell(sheet, row, col, op.Value); err != nil {
		return nil, err
	}
	return map[string]any{
		"type":  op.Kind(),
		"cell":  op.Cell,
		"value": op.Value,
	}, nil
}

// AddRow appends a row of values after the last populated row.
type AddRow struct {
	Data []any
}

func (op AddRow) Kind() string { return "add_row" }

func (op AddRow) apply(wb *workbook.Workbook, sheet string) (any, error) {
	row, err := wb.AppendRow(sheet, op.Data)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"type":      op.Kind(),
		"row_index": row,
		"cells":     len(op.Data),
	}, nil
}

// DeleteRow removes the row at a zero-based index, shifting later rows up.
type DeleteRow struct {
	Index int
}

func (op DeleteRow) Kind() string { return "delete_row" }

func (op DeleteRow) apply(wb *workbook.Workbook, sheet string) (any, error) {
	if op.Index < 0 {
		return nil, fmt.Errorf("%w: row_index must be non-negative, got %d", ErrInvalidIndex, op.Index)
	}
	if err := wb.DeleteRows(sheet, op.Index, 1); err != nil {
		return nil, err
	}
	return map[string]any{
		"type":      op.Kind(),
		"row_index": op.Index,
	}, nil
}

// ClearRange empties every cell value in the range; formatting stays.
type ClearRange struct {
	Range string
}

func (op ClearRange) Kind() string { return "clear_range" }

func (op ClearRange) apply(wb *workbook.Workbook, sheet string) (any, error) {
	if err := wb.ClearRange(sheet, op.Range); err != nil {
		return nil, err
	}
	return map[string]any{
		"type":  op.Kind(),
		"range": op.Range,
	}, nil
}

// SetFormula stores formula text in a cell, enforcing the "=" prefix.
type SetFormula struct {
	Cell    string
	Formula string
}

func (op SetFormula) Kind() string { return "set_formula" }

func (op SetFormula) apply(wb *workbook.Workbook, sheet string) (any, error) {
	row, col, err := internal.Resolve(op.Cell)
	if err != nil {
		return nil, err
	}
	formula := op.Formula
	if !strings.HasPrefix(formula, "=") {
		formula = "=" + formula
	}
	if err := wb.SetCell(sheet, row, col, formula); err != nil {
		return nil, err
	}
	return map[string]any{
		"type":    op.Kind(),
		"cell":    op.Cell,
		"formula": formula,
	}, nil
}

// ApplyStyle merges style attributes onto every cell in a range.
type ApplyStyle struct {
	kind  string
	Range string
	Style workbook.Style
}

func (op ApplyStyle) Kind() string {
	if op.kind == "" {
		return "apply_basic_style"
	}
	return op.kind
}

func (op ApplyStyle) apply(wb *workbook.Workbook, sheet string) (any, error) {
	if err := wb.ApplyStyle(sheet, op.Range, op.Style); err != nil {
		return nil, err
	}
	return map[string]any{
		"type":  op.Kind(),
		"range": op.Range,
	}, nil
}
