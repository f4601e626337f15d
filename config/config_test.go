package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ConfigFileIsDirectory(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("SWIZZY_CONFIG_DIR", tmp)

	cfgPath := filepath.Join(tmp, "config.json")
	if err := os.Mkdir(cfgPath, 0o755); err != nil {
		t.Fatalf("setup config dir: %v", err)
	}

	if _, err := Load(); err == nil {
		t.Fatalf("expected read error when config file is a directory")
	} else if os.IsNotExist(err) {
		t.Fatalf("expected non-ENOENT error, got %v", err)
	}
}

func TestLoad_MissingFileIsZeroValue(t *testing.T) {
	t.Setenv("SWIZZY_CONFIG_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != (Config{}) {
		t.Errorf("cfg = %+v, want zero value", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("SWIZZY_CONFIG_DIR", t.TempDir())

	want := Config{
		GenURL:          "https://gen.example.com",
		GenAPIKey:       "sk-test",
		DataDir:         "/tmp/swizzy-data",
		ScriptTimeoutMS: 2500,
	}
	if err := Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
	if got.ScriptTimeout() != 2500*time.Millisecond {
		t.Errorf("ScriptTimeout = %v", got.ScriptTimeout())
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("SWIZZY_CONFIG_DIR", t.TempDir())

	if err := Save(Config{GenURL: "https://file.example.com"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	t.Setenv("SWIZZY_GEN_URL", "https://env.example.com")
	t.Setenv("SWIZZY_SCRIPT_TIMEOUT_MS", "100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GenURL != "https://env.example.com" {
		t.Errorf("GenURL = %q", cfg.GenURL)
	}
	if cfg.ScriptTimeoutMS != 100 {
		t.Errorf("ScriptTimeoutMS = %d", cfg.ScriptTimeoutMS)
	}
}
