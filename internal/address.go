package internal

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidAddress is returned when a cell reference does not match the
// letter-then-digit pattern (e.g. "B5", "$AA$12").
var ErrInvalidAddress = errors.New("invalid cell address")

// cellRefRe matches a cell reference like A1, $B$2, AA100
var cellRefRe = regexp.MustCompile(`^\$?([A-Z]+)\$?(\d+)$`)

// Resolve converts a cell address like "AA12" to zero-based (row, col)
// indices using base-26 column decoding (A=1 … Z=26, AA=27 …).
func Resolve(address string) (row, col int, err error) {
	c, r, err := parseRef(address)
	if err != nil {
		return 0, 0, err
	}
	return r - 1, c - 1, nil
}

// ResolveRange parses a range like "A1:D20" and returns zero-based
// (startRow, startCol, endRow, endCol). A single cell is treated as a
// range with identical start and end. Reversed bounds are normalized.
func ResolveRange(rng string) (startRow, startCol, endRow, endCol int, err error) {
	fromRef, toRef, hasColon := strings.Cut(rng, ":")
	if !hasColon {
		toRef = fromRef // single cell
	}

	startCol, startRow, err = parseRef(fromRef)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid start of range %q: %w", fromRef, err)
	}
	endCol, endRow, err = parseRef(toRef)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid end of range %q: %w", toRef, err)
	}

	// Normalize order
	if startRow > endRow {
		startRow, endRow = endRow, startRow
	}
	if startCol > endCol {
		startCol, endCol = endCol, startCol
	}

	return startRow - 1, startCol - 1, endRow - 1, endCol - 1, nil
}

// SplitSheet splits an address like "Sheet1!A1:B2" into its sheet and
// range parts. Addresses without a sheet qualifier return sheet = "".
// Surrounding quotes on the sheet name are removed.
func SplitSheet(address string) (sheet, rng string) {
	sheetPart, rangePart, hasSheet := strings.Cut(address, "!")
	if !hasSheet {
		return "", address
	}
	return strings.Trim(sheetPart, "'"), rangePart
}

// ColToLetter converts a 1-indexed column number to Excel letter(s)
func ColToLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}

// LetterToCol converts Excel column letter(s) to a zero-based column
// index. Lowercase input is accepted.
func LetterToCol(letters string) (int, error) {
	letters = strings.ToUpper(strings.TrimSpace(letters))
	if letters == "" {
		return 0, fmt.Errorf("empty column letter: %w", ErrInvalidAddress)
	}
	col := 0
	for _, c := range letters {
		if c < 'A' || c > 'Z' {
			return 0, fmt.Errorf("invalid column letter %q: %w", letters, ErrInvalidAddress)
		}
		col = col*26 + int(c-'A'+1)
	}
	return col - 1, nil
}

// FormatCell builds a cell address like "B5" from zero-based indices.
func FormatCell(row, col int) string {
	return ColToLetter(col+1) + strconv.Itoa(row+1)
}

// FormatRange builds a range string like "A1:Z50" from zero-based indices.
// A degenerate range collapses to a single cell address.
func FormatRange(startRow, startCol, endRow, endCol int) string {
	from := FormatCell(startRow, startCol)
	to := FormatCell(endRow, endCol)
	if from == to {
		return from
	}
	return from + ":" + to
}

func parseRef(ref string) (col, row int, err error) {
	ref = strings.ReplaceAll(ref, "$", "")
	m := cellRefRe.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(ref)))
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAddress, ref)
	}
	col = 0
	for _, c := range m[1] {
		col = col*26 + int(c-'A'+1)
	}
	row, _ = strconv.Atoi(m[2])
	if row == 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAddress, ref)
	}
	return col, row, nil
}
