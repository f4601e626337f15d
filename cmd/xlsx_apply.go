package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/swizzylabs/swizzy-cli/engine"
	"github.com/swizzylabs/swizzy-cli/internal"
	"github.com/swizzylabs/swizzy-cli/workbook"
)

var (
	applyOps     string
	applyOpsFile string
	applyStdin   bool
	applyDiff    bool
	applyDryRun  bool
	applyAtomic  bool
)

var xlsxApplyCmd = &cobra.Command{
	Use:   "apply <file>",
	Short: "Apply a JSON operation batch to a workbook",
	Long: `Apply an ordered JSON operation batch to a workbook and save it.

Batch shapes (both accepted):
  {"operations": [{"type": "summary_stats", ...}, ...]}
  [{"operation": "update_cell", "cell": "B5", "value": 42}, ...]

Operations run in order; later operations see earlier mutations.
Individual operation failures are reported per operation and do not
stop the batch. A missing sheet aborts the whole batch.

Flags:
  --diff     Print a line diff of the rendered sheet text.
  --dry-run  Apply and report without saving the file.
  --atomic   Discard the save when any operation errored.

Exit codes:
  0: all operations succeeded
  1: invalid batch, fatal error, or any per-operation error

Examples:
  swizzy xlsx apply report.xlsx --ops-file batch.json
  swizzy xlsx apply report.xlsx --diff --ops '[{"operation":"delete_row","row_index":0}]'`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

func init() {
	xlsxApplyCmd.Flags().StringVar(&applyOps, "ops", "", "Inline JSON operation batch")
	xlsxApplyCmd.Flags().StringVar(&applyOpsFile, "ops-file", "", "Path to a JSON operation batch")
	xlsxApplyCmd.Flags().BoolVar(&applyStdin, "stdin", false, "Read the operation batch from stdin")
	xlsxApplyCmd.Flags().BoolVar(&applyDiff, "diff", false, "Print a line diff of the sheet text before/after")
	xlsxApplyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Apply without saving the file")
	xlsxApplyCmd.Flags().BoolVar(&applyAtomic, "atomic", false, "Save only when every operation succeeded")
	xlsxCmd.AddCommand(xlsxApplyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	doc, err := resolveDocSource(cmd, os.Stdin, "ops", "ops-file", applyStdin)
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

	before := ""
	if applyDiff {
		if before, err = wb.Text(); err != nil {
			return err
		}
	}

	results, err := engine.Apply(wb, batch)
	if err != nil {
		return err
	}

	failed := results.HasErrors()
	saved := false
	if !applyDryRun && !(applyAtomic && failed) {
		out, err := wb.SaveBytes()
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[0], out, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", args[0], err)
		}
		saved = true
	}

	if jsonOutput {
		if err := jsonPrint(map[string]any{
			"file":    args[0],
			"results": results,
			"saved":   saved,
		}); err != nil {
			return err
		}
	} else {
		printResults(results)
		if applyDiff {
			after, err := wb.Text()
			if err != nil {
				return err
			}
			diff := internal.TextDiff(before, after)
			fmt.Print(internal.FormatDiff(diff))
			fmt.Println(internal.FormatDiffSummary(diff))
		}
		if !saved {
			fmt.Printf("%s not saved\n", args[0])
		}
	}

	if failed {
		return &ExitError{Code: 1}
	}
	return nil
}
