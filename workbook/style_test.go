package workbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeARGB(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"CCCCCC", "FFCCCCCC", false},
		{"ffcc00", "FFFFCC00", false},
		{"#4472C4", "FF4472C4", false},
		{"FFCCCCCC", "FFCCCCCC", false},
		{"CCC", "", true},
		{"GGGGGG", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeARGB(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestApplyStyleMerges(t *testing.T) {
	w := New()
	sheet := w.FirstSheet()
	require.NoError(t, w.SetCell(sheet, 0, 0, "header"))

	// First bold, then a background color: both must survive.
	require.NoError(t, w.ApplyStyle(sheet, "A1", Style{Bold: true}))
	require.NoError(t, w.ApplyStyle(sheet, "A1", Style{BgColor: "CCCCCC"}))

	st, err := w.cellStyle(sheet, "A1")
	require.NoError(t, err)
	require.NotNil(t, st.Font)
	assert.True(t, st.Font.Bold)
	require.Len(t, st.Fill.Color, 1)
	assert.Equal(t, "CCCCCC", st.Fill.Color[0])
}

func TestApplyStyleFillColorRoundTrips(t *testing.T) {
	w := New()
	sheet := w.FirstSheet()

	// aRGB input still produces a readable fill: the stored color is the
	// 6-digit RGB, not black.
	require.NoError(t, w.ApplyStyle(sheet, "A1", Style{BgColor: "FF4472C4"}))

	st, err := w.cellStyle(sheet, "A1")
	require.NoError(t, err)
	require.Len(t, st.Fill.Color, 1)
	assert.Equal(t, "4472C4", st.Fill.Color[0])
	assert.NotEqual(t, "000000", st.Fill.Color[0])
}

func TestApplyStyleRejectsBadAlign(t *testing.T) {
	w := New()
	err := w.ApplyStyle(w.FirstSheet(), "A1:B2", Style{Align: "justify"})
	assert.Error(t, err)
}

func TestApplyStyleNumberFormatAndAlign(t *testing.T) {
	w := New()
	sheet := w.FirstSheet()
	require.NoError(t, w.ApplyStyle(sheet, "B2", Style{NumberFormat: "#,##0.00", Align: "center"}))

	st, err := w.cellStyle(sheet, "B2")
	require.NoError(t, err)
	require.NotNil(t, st.CustomNumFmt)
	assert.Equal(t, "#,##0.00", *st.CustomNumFmt)
	require.NotNil(t, st.Alignment)
	assert.Equal(t, "center", st.Alignment.Horizontal)
}
