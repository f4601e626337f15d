package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/swizzylabs/swizzy-cli/workbook"
)

var (
	createSpec     string
	createSpecFile string
	createStdin    bool
)

var xlsxCreateCmd = &cobra.Command{
	Use:   "create <file>",
	Short: "Build a new workbook from a creation spec",
	Long: `Build a new workbook from a JSON creation spec and write it to <file>.

Spec shape:
  {"sheets": [{"name": "...", "data": [[...], ...],
               "column_widths": {"A": 18},
               "formats": [{"range": "A1:D1", "bold": true, "bg_color": "CCCCCC"}]}]}

Provide exactly one spec source: --spec, --spec-file, or --stdin.

Examples:
  swizzy xlsx create report.xlsx --spec-file layout.json
  cat layout.json | swizzy xlsx create report.xlsx --stdin`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	xlsxCreateCmd.Flags().StringVar(&createSpec, "spec", "", "Inline JSON creation spec")
	xlsxCreateCmd.Flags().StringVar(&createSpecFile, "spec-file", "", "Path to a JSON creation spec")
	xlsxCreateCmd.Flags().BoolVar(&createStdin, "stdin", false, "Read the creation spec from stdin")
	xlsxCmd.AddCommand(xlsxCreateCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	doc, err := resolveDocSource(cmd, os.Stdin, "spec", "spec-file", createStdin)
	if err != nil {
		return err
	}

	spec, err := workbook.ParseCreateSpec(doc)
	if err != nil {
		return err
	}
	wb, err := workbook.BuildFromSpec(spec)
	if err != nil {
		return err
	}
	defer wb.Close()

	data, err := wb.SaveBytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", args[0], err)
	}

	if jsonOutput {
		return jsonPrint(map[string]any{
			"file":   args[0],
			"sheets": wb.SheetNames(),
		})
	}
	fmt.Printf("created %s with %d sheet(s)\n", args[0], len(wb.SheetNames()))
	return nil
}
