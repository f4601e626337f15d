package workbook

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/swizzylabs/swizzy-cli/internal"
)

// Style is the basic style record operations can apply to a range.
// Zero-value fields are left untouched on the target cells: applying a
// style merges attributes, it never replaces the whole cell style.
type Style struct {
	Bold         bool   `json:"bold,omitempty"`
	BgColor      string `json:"bg_color,omitempty"`
	NumberFormat string `json:"number_format,omitempty"`
	Align        string `json:"align,omitempty"`
}

// IsZero reports whether the style sets no attributes at all.
func (s Style) IsZero() bool {
	return !s.Bold && s.BgColor == "" && s.NumberFormat == "" && s.Align == ""
}

// NormalizeARGB normalizes a background color to 8-hex-digit aRGB.
// A 6-digit RGB color gets an opaque "FF" alpha prefix; 8-digit input
// passes through. The result is uppercased.
func NormalizeARGB(color string) (string, error) {
	color = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(color, "#")))
	for _, c := range color {
		if (c < '0' || c > '9') && (c < 'A' || c > 'F') {
			return "", fmt.Errorf("invalid color %q: expected hex digits", color)
		}
	}
	switch len(color) {
	case 6:
		return "FF" + color, nil
	case 8:
		return color, nil
	default:
		return "", fmt.Errorf("invalid color %q: expected 6 or 8 hex digits", color)
	}
}

func validAlign(align string) bool {
	switch align {
	case "left", "center", "right":
		return true
	}
	return false
}

// ApplyStyle merges the style attributes onto every cell in the range.
// Existing attributes not named by the style survive.
func (w *Workbook) ApplyStyle(sheet, rng string, style Style) error {
	if style.Align != "" && !validAlign(style.Align) {
		return fmt.Errorf("invalid align %q: expected left, center or right", style.Align)
	}
	var bg string
	if style.BgColor != "" {
		normalized, err := NormalizeARGB(style.BgColor)
		if err != nil {
			return err
		}
		// excelize wants 6-digit RGB and supplies the alpha itself; an
		// 8-digit value is stored as an invalid color.
		bg = normalized[2:]
	}

	sr, sc, er, ec, err := internal.ResolveRange(rng)
	if err != nil {
		return err
	}
	for r := sr; r <= er; r++ {
		for c := sc; c <= ec; c++ {
			addr := internal.FormatCell(r, c)
			base, err := w.cellStyle(sheet, addr)
			if err != nil {
				return err
			}
			if style.Bold {
				if base.Font == nil {
					base.Font = &excelize.Font{}
				}
				base.Font.Bold = true
			}
			if bg != "" {
				base.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{bg}}
			}
			if style.NumberFormat != "" {
				numFmt := style.NumberFormat
				base.CustomNumFmt = &numFmt
			}
			if style.Align != "" {
				if base.Alignment == nil {
					base.Alignment = &excelize.Alignment{}
				}
				base.Alignment.Horizontal = style.Align
			}
			id, err := w.f.NewStyle(&base)
			if err != nil {
				return fmt.Errorf("building style for %s: %w", addr, err)
			}
			if err := w.f.SetCellStyle(sheet, addr, addr, id); err != nil {
				return fmt.Errorf("styling %s: %w", addr, err)
			}
		}
	}
	return nil
}

// cellStyle reads the current style of a cell so new attributes can be
// merged on top of it.
func (w *Workbook) cellStyle(sheet, addr string) (excelize.Style, error) {
	id, err := w.f.GetCellStyle(sheet, addr)
	if err != nil {
		return excelize.Style{}, err
	}
	if id == 0 {
		return excelize.Style{}, nil
	}
	st, err := w.f.GetStyle(id)
	if err != nil || st == nil {
		return excelize.Style{}, nil
	}
	return *st, nil
}
