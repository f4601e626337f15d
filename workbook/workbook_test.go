package workbook

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRejectsGarbage(t *testing.T) {
	_, err := Load([]byte("definitely not a workbook"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptWorkbook))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	w := New()
	sheet := w.FirstSheet()
	require.NoError(t, w.SetCell(sheet, 0, 0, "Name"))
	require.NoError(t, w.SetCell(sheet, 0, 1, "Score"))
	require.NoError(t, w.SetCell(sheet, 1, 0, "alice"))
	require.NoError(t, w.SetCell(sheet, 1, 1, 41.5))
	require.NoError(t, w.SetCell(sheet, 2, 1, true))

	data, err := w.SaveBytes()
	require.NoError(t, err)

	loaded, err := Load(data)
	require.NoError(t, err)
	defer loaded.Close()

	v, err := loaded.GetCell(sheet, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "Name", v)

	v, err = loaded.GetCell(sheet, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 41.5, v)

	v, err = loaded.GetCell(sheet, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	// Untouched cell stays empty.
	v, err = loaded.GetCell(sheet, 5, 5)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSetCellFormulaDetection(t *testing.T) {
	w := New()
	sheet := w.FirstSheet()

	require.NoError(t, w.SetCell(sheet, 0, 0, "=SUM(B1:B3)"))
	v, err := w.GetCell(sheet, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "=SUM(B1:B3)", v)

	// A plain string is never accidentally treated as a formula.
	require.NoError(t, w.SetCell(sheet, 1, 0, "net total = 12"))
	v, err = w.GetCell(sheet, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, "net total = 12", v)
}

func TestGetRangeShape(t *testing.T) {
	w := New()
	sheet := w.FirstSheet()
	require.NoError(t, w.SetRange(sheet, "A1:B2", [][]any{
		{"a", 1.0},
		{"b", 2.0},
	}))

	grid, err := w.GetRange(sheet, "A1:C2")
	require.NoError(t, err)
	require.Len(t, grid, 2)
	require.Len(t, grid[0], 3)
	assert.Equal(t, "a", grid[0][0])
	assert.Equal(t, 1.0, grid[0][1])
	assert.Nil(t, grid[0][2])
	assert.Equal(t, 2.0, grid[1][1])
}

func TestClearRangeLeavesOthers(t *testing.T) {
	w := New()
	sheet := w.FirstSheet()
	require.NoError(t, w.SetRange(sheet, "A1:B2", [][]any{
		{"keep", "wipe"},
		{"keep2", "wipe2"},
	}))

	require.NoError(t, w.ClearRange(sheet, "B1:B2"))

	v, err := w.GetCell(sheet, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "keep", v)
	v, err = w.GetCell(sheet, 0, 1)
	require.NoError(t, err)
	assert.Nil(t, v)
	v, err = w.GetCell(sheet, 1, 1)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestAppendRowAfterLastPopulated(t *testing.T) {
	w := New()
	sheet := w.FirstSheet()
	require.NoError(t, w.SetCell(sheet, 0, 0, "a"))
	require.NoError(t, w.SetCell(sheet, 2, 0, "c"))

	// Trailing formatting-only rows do not move the append point.
	require.NoError(t, w.ApplyStyle(sheet, "A4:A6", Style{Bold: true}))

	row, err := w.AppendRow(sheet, []any{"d", 4.0})
	require.NoError(t, err)
	assert.Equal(t, 3, row)

	v, err := w.GetCell(sheet, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, "d", v)
}

func TestDeleteRowsShiftsUp(t *testing.T) {
	w := New()
	sheet := w.FirstSheet()
	require.NoError(t, w.SetRange(sheet, "A1:A3", [][]any{{"a"}, {"b"}, {"c"}}))

	require.NoError(t, w.DeleteRows(sheet, 0, 1))

	v, err := w.GetCell(sheet, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "b", v)
	v, err = w.GetCell(sheet, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, "c", v)
	v, err = w.GetCell(sheet, 2, 0)
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Error(t, w.DeleteRows(sheet, -1, 1))
}

func TestResolveSheet(t *testing.T) {
	w := New()
	first := w.FirstSheet()

	got, err := w.ResolveSheet("")
	require.NoError(t, err)
	assert.Equal(t, first, got)

	_, err = w.ResolveSheet("Missing")
	assert.True(t, errors.Is(err, ErrSheetNotFound))
}

func TestAddRemoveSheet(t *testing.T) {
	w := New()
	require.NoError(t, w.AddSheet("Data"))
	assert.True(t, w.HasSheet("Data"))
	require.NoError(t, w.RemoveSheet("Data"))
	assert.False(t, w.HasSheet("Data"))
}

func TestSheetText(t *testing.T) {
	w := New()
	sheet := w.FirstSheet()
	require.NoError(t, w.SetRange(sheet, "A1:B2", [][]any{
		{"h1", "h2"},
		{"x", 1.0},
	}))

	text, err := w.SheetText(sheet)
	require.NoError(t, err)
	assert.Equal(t, "h1\th2\nx\t1\n", text)
}
