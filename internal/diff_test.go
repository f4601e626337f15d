package internal

import (
	"strings"
	"testing"
)

func TestTextDiff(t *testing.T) {
	before := "Name\tScore\nalice\t10\nbob\t20\n"
	after := "Name\tScore\nalice\t10\nbob\t25\ncarol\t30\n"

	lines := TextDiff(before, after)

	var added, removed, context int
	for _, line := range lines {
		switch line.Type {
		case DiffAdded:
			added++
		case DiffRemoved:
			removed++
		case DiffContext:
			context++
		}
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if added != 2 {
		t.Errorf("added = %d, want 2", added)
	}
	if context != 2 {
		t.Errorf("context = %d, want 2", context)
	}
}

func TestTextDiffNoChanges(t *testing.T) {
	text := "a\tb\nc\td\n"
	lines := TextDiff(text, text)
	for _, line := range lines {
		if line.Type != DiffContext {
			t.Fatalf("unexpected %s line: %q", line.Type, line.Text)
		}
	}
	if got := FormatDiffSummary(lines); got != "diff: no changes" {
		t.Errorf("summary = %q", got)
	}
}

func TestFormatDiff(t *testing.T) {
	lines := TextDiff("a\n", "b\n")
	out := FormatDiff(lines)
	if !strings.Contains(out, "- a") || !strings.Contains(out, "+ b") {
		t.Errorf("unexpected diff output:\n%s", out)
	}

	summary := FormatDiffSummary(lines)
	if summary != "diff: 1 line(s) added, 1 line(s) removed" {
		t.Errorf("summary = %q", summary)
	}
}
