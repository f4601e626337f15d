package cmd

import (
	"testing"

	"github.com/swizzylabs/swizzy-cli/config"
)

func TestResolveDataDir_Precedence(t *testing.T) {
	orig := dataDir
	t.Cleanup(func() { dataDir = orig })

	dataDir = "/from/flag"
	if got := resolveDataDir(config.Config{DataDir: "/from/config"}); got != "/from/flag" {
		t.Errorf("flag should win, got %q", got)
	}

	dataDir = ""
	if got := resolveDataDir(config.Config{DataDir: "/from/config"}); got != "/from/config" {
		t.Errorf("config should win over cwd, got %q", got)
	}

	if got := resolveDataDir(config.Config{}); got == "" {
		t.Error("expected a non-empty fallback dir")
	}
}

func TestNewGenClient_RequiresURL(t *testing.T) {
	if _, err := newGenClient(config.Config{}); err == nil {
		t.Error("expected error without a configured generation URL")
	}

	c, err := newGenClient(config.Config{GenURL: "https://gen.example.com/"})
	if err != nil {
		t.Fatalf("newGenClient: %v", err)
	}
	if c.BaseURL != "https://gen.example.com" {
		t.Errorf("BaseURL = %q", c.BaseURL)
	}
}
