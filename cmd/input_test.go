package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func newDocCmd(t *testing.T) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	c.Flags().String("ops", "", "")
	c.Flags().String("ops-file", "", "")
	return c
}

func TestResolveDocSource_Inline(t *testing.T) {
	c := newDocCmd(t)
	if err := c.Flags().Set("ops", `[{"operation":"clear_range"}]`); err != nil {
		t.Fatal(err)
	}

	got, err := resolveDocSource(c, strings.NewReader(""), "ops", "ops-file", false)
	if err != nil {
		t.Fatalf("resolveDocSource: %v", err)
	}
	if string(got) != `[{"operation":"clear_range"}]` {
		t.Errorf("got %q", got)
	}
}

func TestResolveDocSource_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.json")
	if err := os.WriteFile(path, []byte(`{"operations":[]}`), 0644); err != nil {
		t.Fatal(err)
	}

	c := newDocCmd(t)
	if err := c.Flags().Set("ops-file", path); err != nil {
		t.Fatal(err)
	}

	got, err := resolveDocSource(c, strings.NewReader(""), "ops", "ops-file", false)
	if err != nil {
		t.Fatalf("resolveDocSource: %v", err)
	}
	if string(got) != `{"operations":[]}` {
		t.Errorf("got %q", got)
	}
}

func TestResolveDocSource_Stdin(t *testing.T) {
	c := newDocCmd(t)

	got, err := resolveDocSource(c, strings.NewReader("[1,2]"), "ops", "ops-file", true)
	if err != nil {
		t.Fatalf("resolveDocSource: %v", err)
	}
	if string(got) != "[1,2]" {
		t.Errorf("got %q", got)
	}
}

func TestResolveDocSource_Exclusivity(t *testing.T) {
	c := newDocCmd(t)
	if _, err := resolveDocSource(c, strings.NewReader(""), "ops", "ops-file", false); err == nil {
		t.Error("expected error when no source is selected")
	}

	c = newDocCmd(t)
	if err := c.Flags().Set("ops", "{}"); err != nil {
		t.Fatal(err)
	}
	if _, err := resolveDocSource(c, strings.NewReader(""), "ops", "ops-file", true); err == nil {
		t.Error("expected error when two sources are selected")
	}
}

func TestParseScriptInput(t *testing.T) {
	input, err := parseScriptInput("", false)
	if err != nil {
		t.Fatalf("parseScriptInput: %v", err)
	}
	if len(input) != 0 {
		t.Errorf("default input = %v, want empty map", input)
	}

	input, err = parseScriptInput(`{"n": 2}`, true)
	if err != nil {
		t.Fatalf("parseScriptInput: %v", err)
	}
	if input["n"] != 2.0 {
		t.Errorf("input = %v", input)
	}

	if _, err := parseScriptInput(`[1,2]`, true); err == nil {
		t.Error("expected error for non-object input")
	}
}
