package internal

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffLine is one line of a rendered sheet diff.
type DiffLine struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	OldLine int    `json:"old_line,omitempty"`
	NewLine int    `json:"new_line,omitempty"`
}

const (
	DiffContext = "context"
	DiffAdded   = "added"
	DiffRemoved = "removed"
)

// TextDiff compares two rendered sheet snapshots line by line and
// returns the classified lines. Inputs are the tab-separated text
// produced by the workbook renderer; the diff is computed in line mode
// so cell edits surface as a removed/added line pair.
func TextDiff(before, after string) []DiffLine {
	dmp := diffmatchpatch.New()
	beforeChars, afterChars, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(beforeChars, afterChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var lines []DiffLine
	oldLine := 1
	newLine := 1
	for _, diff := range diffs {
		chunkLines := strings.Split(diff.Text, "\n")
		if len(chunkLines) > 0 && chunkLines[len(chunkLines)-1] == "" {
			chunkLines = chunkLines[:len(chunkLines)-1]
		}
		for _, line := range chunkLines {
			switch diff.Type {
			case diffmatchpatch.DiffEqual:
				lines = append(lines, DiffLine{Type: DiffContext, Text: line, OldLine: oldLine, NewLine: newLine})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				lines = append(lines, DiffLine{Type: DiffRemoved, Text: line, OldLine: oldLine})
				oldLine++
			case diffmatchpatch.DiffInsert:
				lines = append(lines, DiffLine{Type: DiffAdded, Text: line, NewLine: newLine})
				newLine++
			}
		}
	}
	return lines
}

// FormatDiff renders diff lines in a unified-diff-like layout.
func FormatDiff(lines []DiffLine) string {
	var b strings.Builder
	for _, line := range lines {
		switch line.Type {
		case DiffAdded:
			b.WriteString("+ ")
		case DiffRemoved:
			b.WriteString("- ")
		default:
			b.WriteString("  ")
		}
		b.WriteString(line.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatDiffSummary returns a human-readable one-line diff summary.
func FormatDiffSummary(lines []DiffLine) string {
	added, removed := 0, 0
	for _, line := range lines {
		switch line.Type {
		case DiffAdded:
			added++
		case DiffRemoved:
			removed++
		}
	}
	if added == 0 && removed == 0 {
		return "diff: no changes"
	}
	return fmt.Sprintf("diff: %d line(s) added, %d line(s) removed", added, removed)
}
