package cmd

import "github.com/spf13/cobra"

var jsonOutput bool

var xlsxCmd = &cobra.Command{
	Use:   "xlsx",
	Short: "Spreadsheet commands",
	Long: `Create, modify, and analyze Excel workbooks (.xlsx).

Commands:
  create  Build a new workbook from a creation spec.
  apply   Apply a JSON operation batch and save the workbook.
  analyze Run analysis operations and print the results.

Output:
  default  Human-friendly summaries
  --json   Raw JSON results for automation

Examples:
  swizzy xlsx create report.xlsx --spec-file layout.json
  swizzy xlsx apply report.xlsx --ops '[{"operation":"update_cell","cell":"B5","value":42}]'
  swizzy xlsx --json analyze report.xlsx --ops-file stats.json`,
}

func init() {
	xlsxCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output raw JSON instead of human-formatted summaries")
	rootCmd.AddCommand(xlsxCmd)
}
