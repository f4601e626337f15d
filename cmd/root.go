package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/swizzylabs/swizzy-cli/config"
	"github.com/swizzylabs/swizzy-cli/genai"
	"github.com/swizzylabs/swizzy-cli/sandbox"
	"github.com/swizzylabs/swizzy-cli/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var dataDir string

var rootCmd = &cobra.Command{
	Use:           "swizzy",
	Short:         "Swizzy CLI — spreadsheet engine and script sandbox",
	Version:       Version,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory backing the file store (env: SWIZZY_DATA_DIR)")
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func resolveDataDir(cfg config.Config) string {
	if dataDir != "" {
		return dataDir
	}
	if cfg.DataDir != "" {
		return cfg.DataDir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func newStore(cfg config.Config) (storage.Store, error) {
	return storage.NewDirStore(resolveDataDir(cfg))
}

func newExecutor(cfg config.Config, timeoutMS int) (*sandbox.Executor, error) {
	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}
	executor := sandbox.New(store)
	if timeoutMS > 0 {
		executor.Timeout = time.Duration(timeoutMS) * time.Millisecond
	} else if d := cfg.ScriptTimeout(); d > 0 {
		executor.Timeout = d
	}
	return executor, nil
}

func newGenClient(cfg config.Config) (*genai.Client, error) {
	if cfg.GenURL == "" {
		return nil, fmt.Errorf("no generation service configured: set SWIZZY_GEN_URL or gen_url in the config file")
	}
	c := genai.New(cfg.GenURL, cfg.GenAPIKey)
	c.UserAgent = "swizzy/" + Version
	return c, nil
}

func Execute() error {
	return rootCmd.Execute()
}
