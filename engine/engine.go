// Package engine applies ordered operation batches to a workbook.
//
// A batch is parsed into typed operations up front; malformed items
// (missing fields, unknown discriminators) become per-operation errors
// that do not stop the batch. The one batch-fatal condition is a
// reference to a missing sheet: later operations against that sheet
// cannot be meaningfully attempted, so the whole remaining batch is
// aborted.
package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/swizzylabs/swizzy-cli/workbook"
)

var (
	// ErrMissingField is an operation-local validation failure.
	ErrMissingField = errors.New("missing field")
	// ErrUnsupportedOperation is an unknown type discriminator.
	ErrUnsupportedOperation = errors.New("unsupported operation type")
	// ErrInvalidIndex is a negative or out-of-domain index.
	ErrInvalidIndex = errors.New("invalid index")
)

// Operation is one typed batch entry. Adding a new operation type
// means adding a struct with an apply method and a parse arm; the
// parser's default arm is the only ErrUnsupportedOperation source.
type Operation interface {
	// Kind returns the type discriminator the operation was parsed from.
	Kind() string
	apply(wb *workbook.Workbook, sheet string) (any, error)
}

// BatchItem pairs a parsed operation with its target sheet. Items that
// failed to parse carry the error instead and surface it as their
// per-operation result.
type BatchItem struct {
	Sheet string
	Op    Operation
	Err   error
}

// Batch is an ordered operation list bound for one workbook.
type Batch struct {
	Items []BatchItem
}

// Results maps "operation_<index>" to a typed result object or an
// {"error": ...} descriptor.
type Results map[string]any

// rawOp is the union of all operation fields. The discriminator may be
// spelled "type" (analysis configs) or "operation" (modification lists).
type rawOp struct {
	Type      string `json:"type"`
	Operation string `json:"operation"`
	Sheet     string `json:"sheet"`

	Cell     string          `json:"cell"`
	Value    json.RawMessage `json:"value"`
	Data     []any           `json:"data"`
	RowIndex *int            `json:"row_index"`
	Range    string          `json:"range"`
	Target   string          `json:"target"`
	Formula  string          `json:"formula"`
	Style    *workbook.Style `json:"style"`

	Metrics   []string `json:"metrics"`
	Condition *struct {
		Column   string `json:"column"`
		Operator string `json:"operator"`
		Value    any    `json:"value"`
	} `json:"condition"`
	Format      string   `json:"format"`
	Columns     []string `json:"columns"`
	Rows        []string `json:"rows"`
	Values      []string `json:"values"`
	XColumn     string   `json:"x_column"`
	YColumn     string   `json:"y_column"`
	SourceData  string   `json:"source_data"`
	Aggregation string   `json:"aggregation"`
}

func (r rawOp) kind() string {
	if r.Type != "" {
		return r.Type
	}
	return r.Operation
}

// targetRange picks whichever range field the operation shape uses.
func (r rawOp) targetRange() string {
	if r.Target != "" {
		return r.Target
	}
	return r.Range
}

// ParseBatch decodes an operation batch. Both envelopes are accepted:
// {"operations": [...]} and a bare operation list. A document that is
// not valid JSON in either shape is a batch-fatal error.
func ParseBatch(data []byte) (Batch, error) {
	var envelope struct {
		Operations []json.RawMessage `json:"operations"`
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Operations != nil {
		items = envelope.Operations
	} else if err := json.Unmarshal(data, &items); err != nil {
		return Batch{}, fmt.Errorf("invalid operation batch: %w", err)
	}
	if len(items) == 0 {
		return Batch{}, fmt.Errorf("no operations specified")
	}

	batch := Batch{Items: make([]BatchItem, 0, len(items))}
	for _, item := range items {
		var raw rawOp
		if err := json.Unmarshal(item, &raw); err != nil {
			batch.Items = append(batch.Items, BatchItem{Err: fmt.Errorf("invalid operation: %w", err)})
			continue
		}
		op, err := parseOp(raw)
		batch.Items = append(batch.Items, BatchItem{Sheet: raw.Sheet, Op: op, Err: err})
	}
	return batch, nil
}

// parseOp dispatches on the discriminator and validates the fields the
// operation type requires.
func parseOp(raw rawOp) (Operation, error) {
	kind := raw.kind()
	switch kind {
	case "update_cell":
		if raw.Cell == "" {
			return nil, fmt.Errorf("%w: update_cell requires \"cell\"", ErrMissingField)
		}
		if raw.Value == nil {
			return nil, fmt.Errorf("%w: update_cell requires \"value\"", ErrMissingField)
		}
		var value any
		if err := json.Unmarshal(raw.Value, &value); err != nil {
			return nil, fmt.Errorf("%w: update_cell \"value\": %v", ErrMissingField, err)
		}
		return UpdateCell{Cell: raw.Cell, Value: value}, nil

	case "add_row":
		if raw.Data == nil {
			return nil, fmt.Errorf("%w: add_row requires \"data\"", ErrMissingField)
		}
		return AddRow{Data: raw.Data}, nil

	case "delete_row":
		if raw.RowIndex == nil {
			return nil, fmt.Errorf("%w: delete_row requires \"row_index\"", ErrMissingField)
		}
		return DeleteRow{Index: *raw.RowIndex}, nil

	case "clear_range":
		if raw.Range == "" {
			return nil, fmt.Errorf("%w: clear_range requires \"range\"", ErrMissingField)
		}
		return ClearRange{Range: raw.Range}, nil

	case "set_formula":
		if raw.Cell == "" {
			return nil, fmt.Errorf("%w: set_formula requires \"cell\"", ErrMissingField)
		}
		if raw.Formula == "" {
			return nil, fmt.Errorf("%w: set_formula requires \"formula\"", ErrMissingField)
		}
		return SetFormula{Cell: raw.Cell, Formula: raw.Formula}, nil

	case "apply_basic_style", "apply_basic_format":
		if raw.Range == "" {
			return nil, fmt.Errorf("%w: %s requires \"range\"", ErrMissingField, kind)
		}
		if raw.Style == nil || raw.Style.IsZero() {
			return nil, fmt.Errorf("%w: %s requires \"style\"", ErrMissingField, kind)
		}
		return ApplyStyle{kind: kind, Range: raw.Range, Style: *raw.Style}, nil

	case "summary_stats":
		rng := raw.targetRange()
		if rng == "" {
			return nil, fmt.Errorf("%w: summary_stats requires \"target\"", ErrMissingField)
		}
		metrics := raw.Metrics
		if len(metrics) == 0 {
			metrics = []string{"mean", "sum"}
		}
		return SummaryStats{Range: rng, Metrics: metrics}, nil

	case "filter":
		rng := raw.targetRange()
		if rng == "" {
			return nil, fmt.Errorf("%w: filter requires \"target\"", ErrMissingField)
		}
		if raw.Condition == nil {
			return nil, fmt.Errorf("%w: no filter condition specified", ErrMissingField)
		}
		if raw.Condition.Column == "" || raw.Condition.Operator == "" {
			return nil, fmt.Errorf("%w: filter condition requires \"column\" and \"operator\"", ErrMissingField)
		}
		return Filter{
			Range:    rng,
			Column:   raw.Condition.Column,
			Operator: raw.Condition.Operator,
			Value:    raw.Condition.Value,
		}, nil

	case "extract":
		rng := raw.targetRange()
		if rng == "" {
			return nil, fmt.Errorf("%w: extract requires \"target\"", ErrMissingField)
		}
		format := raw.Format
		if format == "" {
			format = "json"
		}
		return Extract{Range: rng, Format: format}, nil

	case "correlation":
		if raw.Range == "" {
			return nil, fmt.Errorf("%w: correlation requires \"range\"", ErrMissingField)
		}
		if len(raw.Columns) != 2 {
			return nil, fmt.Errorf("%w: correlation requires exactly 2 columns", ErrMissingField)
		}
		return Correlation{Range: raw.Range, Columns: [2]string{raw.Columns[0], raw.Columns[1]}}, nil

	case "trend_analysis":
		if raw.Range == "" {
			return nil, fmt.Errorf("%w: trend_analysis requires \"range\"", ErrMissingField)
		}
		if raw.XColumn == "" || raw.YColumn == "" {
			return nil, fmt.Errorf("%w: trend_analysis requires \"x_column\" and \"y_column\"", ErrMissingField)
		}
		return TrendAnalysis{Range: raw.Range, XColumn: raw.XColumn, YColumn: raw.YColumn}, nil

	case "pivot":
		rng := raw.SourceData
		if rng == "" {
			rng = raw.targetRange()
		}
		if rng == "" {
			return nil, fmt.Errorf("%w: pivot requires \"source_data\"", ErrMissingField)
		}
		if len(raw.Rows) == 0 || len(raw.Values) == 0 {
			return nil, fmt.Errorf("%w: pivot requires at least rows and values", ErrMissingField)
		}
		agg := raw.Aggregation
		if agg == "" {
			agg = "sum"
		}
		switch agg {
		case "sum", "avg", "mean", "min", "max", "count":
		default:
			return nil, fmt.Errorf("%w: pivot aggregation %q", ErrUnsupportedOperation, agg)
		}
		return Pivot{
			Range:       rng,
			RowKeys:     raw.Rows,
			ColKeys:     raw.Columns,
			ValueCols:   raw.Values,
			Aggregation: agg,
		}, nil

	case "":
		return nil, fmt.Errorf("%w: operation has no type", ErrMissingField)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedOperation, kind)
	}
}

// Apply runs the batch in order against the workbook. Effects of each
// operation are visible to all later operations. Per-operation failures
// are embedded in the result map; a missing sheet aborts the batch and
// is returned as the single top-level error.
func Apply(wb *workbook.Workbook, batch Batch) (Results, error) {
	results := make(Results, len(batch.Items))
	for i, item := range batch.Items {
		key := fmt.Sprintf("operation_%d", i)
		if item.Err != nil {
			results[key] = map[string]any{"error": item.Err.Error()}
			continue
		}
		sheet, err := wb.ResolveSheet(item.Sheet)
		if err != nil {
			return nil, err
		}
		out, err := item.Op.apply(wb, sheet)
		if err != nil {
			if errors.Is(err, workbook.ErrSheetNotFound) {
				return nil, err
			}
			results[key] = map[string]any{"error": fmt.Sprintf("error processing operation %q: %v", item.Op.Kind(), err)}
			continue
		}
		results[key] = out
	}
	return results, nil
}

// HasErrors reports whether any per-operation result is an error
// descriptor. Used by callers offering all-or-nothing application.
func (r Results) HasErrors() bool {
	for _, v := range r {
		if m, ok := v.(map[string]any); ok {
			if _, failed := m["error"]; failed {
				return true
			}
		}
	}
	return false
}
