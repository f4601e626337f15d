package workbook

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/swizzylabs/swizzy-cli/internal"
)

var (
	// ErrCorruptWorkbook is returned when a byte buffer is not a
	// well-formed workbook container.
	ErrCorruptWorkbook = errors.New("corrupt workbook")
	// ErrSheetNotFound is returned when an operation names a sheet
	// the workbook does not contain.
	ErrSheetNotFound = errors.New("sheet not found")
)

// Workbook wraps a loaded workbook. It assumes exclusive ownership for
// the duration of a load-apply-save cycle: callers must serialize
// writers against the same underlying file (last write wins).
type Workbook struct {
	f *excelize.File
}

// New returns an empty workbook with a single default sheet.
func New() *Workbook {
	return &Workbook{f: excelize.NewFile()}
}

// Load parses workbook bytes. Returns ErrCorruptWorkbook when the
// buffer is not a valid workbook container.
func Load(data []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptWorkbook, err)
	}
	return &Workbook{f: f}, nil
}

// SaveBytes serializes the workbook. Sheet order and cell iteration
// order are stable, so identical workbook state round-trips.
func (w *Workbook) SaveBytes() ([]byte, error) {
	buf, err := w.f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("saving workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Close releases the underlying file resources.
func (w *Workbook) Close() error { return w.f.Close() }

// SheetNames returns the sheet names in workbook order.
func (w *Workbook) SheetNames() []string { return w.f.GetSheetList() }

// FirstSheet returns the name of the first sheet, or "" for an empty
// workbook.
func (w *Workbook) FirstSheet() string {
	names := w.f.GetSheetList()
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// HasSheet reports whether the workbook contains the named sheet.
func (w *Workbook) HasSheet(name string) bool {
	idx, err := w.f.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// ResolveSheet maps an optional sheet name to a concrete one: empty
// defaults to the first sheet, unknown names are ErrSheetNotFound.
func (w *Workbook) ResolveSheet(name string) (string, error) {
	if name == "" {
		first := w.FirstSheet()
		if first == "" {
			return "", fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
		}
		return first, nil
	}
	if !w.HasSheet(name) {
		return "", fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	return name, nil
}

// AddSheet creates a sheet with the given name.
func (w *Workbook) AddSheet(name string) error {
	_, err := w.f.NewSheet(name)
	return err
}

// RemoveSheet deletes the named sheet.
func (w *Workbook) RemoveSheet(name string) error {
	if !w.HasSheet(name) {
		return fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	return w.f.DeleteSheet(name)
}

// GetCell reads a typed cell value at zero-based (row, col). Formula
// cells come back as their formula text with the leading "=". Empty
// cells are nil; numeric cells are float64; boolean cells are bool.
func (w *Workbook) GetCell(sheet string, row, col int) (any, error) {
	addr := internal.FormatCell(row, col)

	if formula, err := w.f.GetCellFormula(sheet, addr); err == nil && formula != "" {
		return "=" + strings.TrimPrefix(formula, "="), nil
	}

	raw, err := w.f.GetCellValue(sheet, addr)
	if err != nil {
		return nil, fmt.Errorf("reading %s!%s: %w", sheet, addr, err)
	}
	if raw == "" {
		return nil, nil
	}

	if ct, err := w.f.GetCellType(sheet, addr); err == nil && ct == excelize.CellTypeBool {
		return raw == "TRUE" || raw == "1", nil
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n, nil
	}
	return raw, nil
}

// SetCell writes a value at zero-based (row, col). A string beginning
// with "=" is stored as a formula; everything else is a plain value.
// nil clears the cell value (formatting untouched).
func (w *Workbook) SetCell(sheet string, row, col int, value any) error {
	addr := internal.FormatCell(row, col)
	if s, ok := value.(string); ok && strings.HasPrefix(s, "=") {
		return w.f.SetCellFormula(sheet, addr, s)
	}
	return w.f.SetCellValue(sheet, addr, value)
}

// GetRange reads the typed values of a range like "A1:D20" as a
// row-major grid. Every row has the full range width; cells outside
// the populated area are nil.
func (w *Workbook) GetRange(sheet, rng string) ([][]any, error) {
	sr, sc, er, ec, err := internal.ResolveRange(rng)
	if err != nil {
		return nil, err
	}
	grid := make([][]any, 0, er-sr+1)
	for r := sr; r <= er; r++ {
		row := make([]any, 0, ec-sc+1)
		for c := sc; c <= ec; c++ {
			v, err := w.GetCell(sheet, r, c)
			if err != nil {
				return nil, err
			}
			row = append(row, v)
		}
		grid = append(grid, row)
	}
	return grid, nil
}

// SetRange writes a row-major grid starting at the top-left of the
// range. Rows or cells extending past the range bounds are ignored.
func (w *Workbook) SetRange(sheet, rng string, values [][]any) error {
	sr, sc, er, ec, err := internal.ResolveRange(rng)
	if err != nil {
		return err
	}
	for i, row := range values {
		r := sr + i
		if r > er {
			break
		}
		for j, v := range row {
			c := sc + j
			if c > ec {
				break
			}
			if err := w.SetCell(sheet, r, c, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// ClearRange sets every cell value in the range to empty. Formatting
// is untouched.
func (w *Workbook) ClearRange(sheet, rng string) error {
	sr, sc, er, ec, err := internal.ResolveRange(rng)
	if err != nil {
		return err
	}
	for r := sr; r <= er; r++ {
		for c := sc; c <= ec; c++ {
			if err := w.f.SetCellValue(sheet, internal.FormatCell(r, c), nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// Rows reads every populated row of a sheet as typed values. Row
// lengths follow the sheet's own ragged layout.
func (w *Workbook) Rows(sheet string) ([][]any, error) {
	raw, err := w.f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	grid := make([][]any, len(raw))
	for r, row := range raw {
		typed := make([]any, len(row))
		for c := range row {
			v, err := w.GetCell(sheet, r, c)
			if err != nil {
				return nil, err
			}
			typed[c] = v
		}
		grid[r] = typed
	}
	return grid, nil
}

// PopulatedRows returns the number of rows up to and including the
// last row that holds at least one value. Trailing rows that carry
// only formatting do not count.
func (w *Workbook) PopulatedRows(sheet string) (int, error) {
	rows, err := w.f.GetRows(sheet)
	if err != nil {
		return 0, err
	}
	last := 0
	for i, row := range rows {
		for _, cell := range row {
			if cell != "" {
				last = i + 1
				break
			}
		}
	}
	return last, nil
}

// AppendRow writes values after the last populated row, regardless of
// whether trailing rows contain only formatting. Returns the zero-based
// row index the values landed on.
func (w *Workbook) AppendRow(sheet string, values []any) (int, error) {
	last, err := w.PopulatedRows(sheet)
	if err != nil {
		return 0, err
	}
	for c, v := range values {
		if err := w.SetCell(sheet, last, c, v); err != nil {
			return 0, err
		}
	}
	return last, nil
}

// DeleteRows removes count rows starting at the zero-based startRow,
// shifting later rows up.
func (w *Workbook) DeleteRows(sheet string, startRow, count int) error {
	if startRow < 0 {
		return fmt.Errorf("row index must be non-negative, got %d", startRow)
	}
	for i := 0; i < count; i++ {
		// Each removal shifts the remaining rows up, so the target
		// row number stays put.
		if err := w.f.RemoveRow(sheet, startRow+1); err != nil {
			return err
		}
	}
	return nil
}

// SetColumnWidth sets the width of a single column given its letter.
func (w *Workbook) SetColumnWidth(sheet, col string, width float64) error {
	if _, err := internal.LetterToCol(col); err != nil {
		return err
	}
	col = strings.ToUpper(strings.TrimSpace(col))
	return w.f.SetColWidth(sheet, col, col, width)
}

// SheetText renders a sheet as tab-separated lines, one row per line.
// Used for change review diffs; not a faithful serialization.
func (w *Workbook) SheetText(sheet string) (string, error) {
	rows, err := w.f.GetRows(sheet)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// Text renders every sheet, each preceded by a "== name ==" header.
func (w *Workbook) Text() (string, error) {
	var b strings.Builder
	for _, sheet := range w.SheetNames() {
		text, err := w.SheetText(sheet)
		if err != nil {
			return "", err
		}
		b.WriteString("== " + sheet + " ==\n")
		b.WriteString(text)
	}
	return b.String(), nil
}
