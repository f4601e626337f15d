package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	// GenURL is the base URL of the script-generation service.
	GenURL string `json:"gen_url,omitempty"`
	// GenAPIKey authenticates against the generation service.
	GenAPIKey string `json:"gen_api_key,omitempty"`
	// DataDir is the root of the local file store.
	DataDir string `json:"data_dir,omitempty"`
	// ScriptTimeoutMS bounds one sandboxed script run.
	ScriptTimeoutMS int `json:"script_timeout_ms,omitempty"`
}

// ScriptTimeout returns the configured script limit, or zero when the
// sandbox default should apply.
func (c Config) ScriptTimeout() time.Duration {
	if c.ScriptTimeoutMS <= 0 {
		return 0
	}
	return time.Duration(c.ScriptTimeoutMS) * time.Millisecond
}

func dir() (string, error) {
	if v := os.Getenv("SWIZZY_CONFIG_DIR"); v != "" {
		return v, nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "swizzy"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "swizzy"), nil
}

func filePath() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.json"), nil
}

// Load reads the config file and applies SWIZZY_* environment
// overrides. Returns a zero-value Config if the file does not exist.
func Load() (Config, error) {
	p, err := filePath()
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	data, err := os.ReadFile(p)
	if err != nil {
		if !os.IsNotExist(err) {
			return Config{}, err
		}
	} else if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("SWIZZY_GEN_URL"); v != "" {
		cfg.GenURL = v
	}
	if v := os.Getenv("SWIZZY_GEN_API_KEY"); v != "" {
		cfg.GenAPIKey = v
	}
	if v := os.Getenv("SWIZZY_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("SWIZZY_SCRIPT_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.ScriptTimeoutMS = ms
		}
	}
	return cfg, nil
}

// Save writes the config to disk atomically using a temp file + rename.
func Save(cfg Config) error {
	p, err := filePath()
	if err != nil {
		return err
	}
	d := filepath.Dir(p)
	if err := os.MkdirAll(d, 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	// Remove dest first for Windows compat (os.Rename fails if dest exists on Windows).
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Delete removes the config file.
func Delete() error {
	p, err := filePath()
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
