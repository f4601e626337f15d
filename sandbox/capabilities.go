package sandbox

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/swizzylabs/swizzy-cli/internal"
	"github.com/swizzylabs/swizzy-cli/storage"
	"github.com/swizzylabs/swizzy-cli/workbook"
)

// Env is the complete symbol table of an executing script. Any
// identifier not declared here fails compilation before the script
// runs, so a capability left out of Env is structurally unreachable.
// Expression builtins (len, sum, filter, map, ...) remain available as
// the numeric and collection library.
type Env struct {
	InputData map[string]any `expr:"input_data"`

	ReadFile  func(handle string) (string, error)     `expr:"read_file"`
	WriteFile func(name, data string) (string, error) `expr:"write_file"`

	ReadJSON  func(handle string) (any, error)          `expr:"read_json"`
	WriteJSON func(name string, v any) (string, error)  `expr:"write_json"`

	ReadExcel     func(handle string, sheet ...string) ([][]any, error)        `expr:"read_excel"`
	WriteExcel    func(name string, rows any, sheet ...string) (string, error) `expr:"write_excel"`
	ReadExcelAll  func(handle string) (map[string][][]any, error)              `expr:"read_excel_all"`
	WriteExcelAll func(name string, sheets map[string]any) (string, error)     `expr:"write_excel_all"`

	ReadDocx  func(handle string) (string, error)      `expr:"read_docx"`
	WriteDocx func(name, text string) (string, error)  `expr:"write_docx"`

	ReadImage  func(handle string) (string, error)      `expr:"read_image"`
	WriteImage func(name, data string) (string, error)  `expr:"write_image"`

	EncodeBase64 func(s string) string          `expr:"encode_base64"`
	DecodeBase64 func(s string) (string, error) `expr:"decode_base64"`
}

// NewEnv builds a fresh capability scope around a storage collaborator
// and the caller's input mapping. Never shared between calls.
func NewEnv(store storage.Store, input map[string]any) Env {
	if input == nil {
		input = map[string]any{}
	}
	c := capabilities{store: store}
	return Env{
		InputData: input,

		ReadFile:  c.readFile,
		WriteFile: c.writeFile,

		ReadJSON:  c.readJSON,
		WriteJSON: c.writeJSON,

		ReadExcel:     c.readExcel,
		WriteExcel:    c.writeExcel,
		ReadExcelAll:  c.readExcelAll,
		WriteExcelAll: c.writeExcelAll,

		ReadDocx:  c.readDocx,
		WriteDocx: c.writeDocx,

		ReadImage:  c.readImage,
		WriteImage: c.writeImage,

		EncodeBase64: encodeBase64,
		DecodeBase64: decodeBase64,
	}
}

type capabilities struct {
	store storage.Store
}

func (c capabilities) readFile(handle string) (string, error) {
	data, err := c.store.Download(handle)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c capabilities) writeFile(name, data string) (string, error) {
	return c.store.Upload(name, []byte(data))
}

func (c capabilities) readJSON(handle string) (any, error) {
	data, err := c.store.Download(handle)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", handle, err)
	}
	return v, nil
}

func (c capabilities) writeJSON(name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return c.store.Upload(name, data)
}

func (c capabilities) readExcel(handle string, sheet ...string) ([][]any, error) {
	wb, err := c.loadWorkbook(handle)
	if err != nil {
		return nil, err
	}
	defer wb.Close()
	name := ""
	if len(sheet) > 0 {
		name = sheet[0]
	}
	resolved, err := wb.ResolveSheet(name)
	if err != nil {
		return nil, err
	}
	return wb.Rows(resolved)
}

func (c capabilities) writeExcel(name string, rows any, sheet ...string) (string, error) {
	grid, err := toGrid(rows)
	if err != nil {
		return "", err
	}
	wb := workbook.New()
	defer wb.Close()
	target := wb.FirstSheet()
	if len(sheet) > 0 && sheet[0] != "" {
		target = sheet[0]
		if err := wb.AddSheet(target); err != nil {
			return "", err
		}
		if target != wb.FirstSheet() {
			if err := wb.RemoveSheet(wb.FirstSheet()); err != nil {
				return "", err
			}
		}
	}
	if err := writeGrid(wb, target, grid); err != nil {
		return "", err
	}
	data, err := wb.SaveBytes()
	if err != nil {
		return "", err
	}
	return c.store.Upload(name, data)
}

func (c capabilities) readExcelAll(handle string) (map[string][][]any, error) {
	wb, err := c.loadWorkbook(handle)
	if err != nil {
		return nil, err
	}
	defer wb.Close()
	sheets := map[string][][]any{}
	for _, name := range wb.SheetNames() {
		rows, err := wb.Rows(name)
		if err != nil {
			return nil, err
		}
		sheets[name] = rows
	}
	return sheets, nil
}

func (c capabilities) writeExcelAll(name string, sheets map[string]any) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("no sheets given")
	}
	wb := workbook.New()
	defer wb.Close()
	placeholder := wb.FirstSheet()
	for sheetName, rows := range sheets {
		grid, err := toGrid(rows)
		if err != nil {
			return "", fmt.Errorf("sheet %s: %w", sheetName, err)
		}
		if sheetName != placeholder {
			if err := wb.AddSheet(sheetName); err != nil {
				return "", err
			}
		}
		if err := writeGrid(wb, sheetName, grid); err != nil {
			return "", err
		}
	}
	if _, claimed := sheets[placeholder]; !claimed {
		if err := wb.RemoveSheet(placeholder); err != nil {
			return "", err
		}
	}
	data, err := wb.SaveBytes()
	if err != nil {
		return "", err
	}
	return c.store.Upload(name, data)
}

func (c capabilities) readDocx(handle string) (string, error) {
	data, err := c.store.Download(handle)
	if err != nil {
		return "", err
	}
	return docxText(data)
}

func (c capabilities) writeDocx(name, text string) (string, error) {
	data, err := docxBytes(text)
	if err != nil {
		return "", err
	}
	return c.store.Upload(name, data)
}

// Images travel as base64 strings inside scripts.
func (c capabilities) readImage(handle string) (string, error) {
	data, err := c.store.Download(handle)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (c capabilities) writeImage(name, data string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("invalid base64 image data: %w", err)
	}
	return c.store.Upload(name, raw)
}

func encodeBase64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func decodeBase64(s string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (c capabilities) loadWorkbook(handle string) (*workbook.Workbook, error) {
	data, err := c.store.Download(handle)
	if err != nil {
		return nil, err
	}
	return workbook.Load(data)
}

// toGrid accepts both a typed grid and the []any shape scripts build.
func toGrid(v any) ([][]any, error) {
	switch rows := v.(type) {
	case [][]any:
		return rows, nil
	case []any:
		grid := make([][]any, 0, len(rows))
		for _, r := range rows {
			row, ok := r.([]any)
			if !ok {
				return nil, fmt.Errorf("rows must be lists of cell values")
			}
			grid = append(grid, row)
		}
		return grid, nil
	}
	return nil, fmt.Errorf("rows must be a list of rows")
}

func writeGrid(wb *workbook.Workbook, sheet string, grid [][]any) error {
	if len(grid) == 0 {
		return nil
	}
	width := 0
	for _, row := range grid {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return nil
	}
	rng := internal.FormatRange(0, 0, len(grid)-1, width-1)
	return wb.SetRange(sheet, rng, grid)
}
