package workbook

import (
	"encoding/json"
	"fmt"
)

// CreateSpec describes a workbook to build from scratch.
type CreateSpec struct {
	Sheets []SheetSpec `json:"sheets"`
}

// SheetSpec is one sheet of a creation spec: a row-major data grid
// (formula cells begin with "="), optional column widths keyed by
// column letter, and optional range formats.
type SheetSpec struct {
	Name         string             `json:"name"`
	Data         [][]any            `json:"data"`
	ColumnWidths map[string]float64 `json:"column_widths,omitempty"`
	Formats      []FormatSpec       `json:"formats,omitempty"`
}

// FormatSpec applies a style to a range of a sheet being created.
type FormatSpec struct {
	Range string `json:"range"`
	Style
}

// ParseCreateSpec decodes a creation spec document.
func ParseCreateSpec(data []byte) (CreateSpec, error) {
	var spec CreateSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return CreateSpec{}, fmt.Errorf("invalid spreadsheet spec: %w", err)
	}
	if len(spec.Sheets) == 0 {
		return CreateSpec{}, fmt.Errorf("spreadsheet spec must declare at least one sheet")
	}
	return spec, nil
}

// BuildFromSpec constructs a workbook from a creation spec. Unnamed
// sheets get positional names ("Sheet1", "Sheet2", …).
func BuildFromSpec(spec CreateSpec) (*Workbook, error) {
	if len(spec.Sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet spec must declare at least one sheet")
	}

	w := New()
	defaultSheet := w.FirstSheet()

	for i, sheet := range spec.Sheets {
		name := sheet.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		if !w.HasSheet(name) {
			if err := w.AddSheet(name); err != nil {
				return nil, fmt.Errorf("creating sheet %q: %w", name, err)
			}
		}

		for r, row := range sheet.Data {
			for c, value := range row {
				if err := w.SetCell(name, r, c, value); err != nil {
					return nil, fmt.Errorf("writing %s row %d: %w", name, r+1, err)
				}
			}
		}

		for col, width := range sheet.ColumnWidths {
			if err := w.SetColumnWidth(name, col, width); err != nil {
				return nil, fmt.Errorf("setting width of column %s on %s: %w", col, name, err)
			}
		}

		for _, format := range sheet.Formats {
			if format.Range == "" {
				continue
			}
			if err := w.ApplyStyle(name, format.Range, format.Style); err != nil {
				return nil, fmt.Errorf("formatting %s!%s: %w", name, format.Range, err)
			}
		}
	}

	// Drop the default sheet unless the spec claimed its name.
	named := false
	for i, sheet := range spec.Sheets {
		name := sheet.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		if name == defaultSheet {
			named = true
			break
		}
	}
	if !named {
		if err := w.RemoveSheet(defaultSheet); err != nil {
			return nil, err
		}
	}
	return w, nil
}
