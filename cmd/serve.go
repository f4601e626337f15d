package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/swizzylabs/swizzy-cli/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the engine over a websocket session",
	Long: `Serve the workbook engine and the script sandbox over a websocket
JSON-RPC session. Files travel by storage handle within --data-dir.

Methods: xlsx.create, xlsx.apply, xlsx.analyze, script.run.

Example:
  swizzy serve --addr :8787 --data-dir ./files`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8787", "Listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	executor, err := newExecutor(cfg, 0)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return server.New(store, executor, logger).Run(cmd.Context(), serveAddr)
}
