package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/swizzylabs/swizzy-cli/engine"
	"github.com/swizzylabs/swizzy-cli/workbook"
)

var (
	analyzeOps     string
	analyzeOpsFile string
	analyzeStdin   bool
)

var xlsxAnalyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Run analysis operations against a workbook",
	Long: `Run analysis operations (summary_stats, filter, extract, correlation,
trend_analysis, pivot) against a workbook and print the per-operation
results. The file is never modified.

Examples:
  swizzy xlsx analyze report.xlsx --ops '[{"type":"summary_stats","target":"B2:B20"}]'
  swizzy xlsx --json analyze report.xlsx --ops-file stats.json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	xlsxAnalyzeCmd.Flags().StringVar(&analyzeOps, "ops", "", "Inline JSON operation batch")
	xlsxAnalyzeCmd.Flags().StringVar(&analyzeOpsFile, "ops-file", "", "Path to a JSON operation batch")
	xlsxAnalyzeCmd.Flags().BoolVar(&analyzeStdin, "stdin", false, "Read the operation batch from stdin")
	xlsxCmd.AddCommand(xlsxAnalyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	doc, err := resolveDocSource(cmd, os.Stdin, "ops", "ops-file", analyzeStdin)
	if err != nil {
		return err
	}
	batch, err := engine.ParseBatch(doc)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	wb, err := workbook.Load(data)
	if err != nil {
		return err
	}
	defer wb.Close()

	results, err := engine.Apply(wb, batch)
	if err != nil {
		return err
	}

	if jsonOutput {
		if err := jsonPrint(results); err != nil {
			return err
		}
	} else {
		printResults(results)
	}

	if results.HasErrors() {
		return &ExitError{Code: 1}
	}
	return nil
}
