package cmd

import "github.com/spf13/cobra"

var scriptJSONOutput bool

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Sandboxed script commands",
	Long: `Run or generate sandboxed data scripts.

Scripts execute against a restricted scope holding only the caller's
input data, storage-backed file helpers, and the expression builtins.
Filesystem, process, and import primitives are never in scope.

Examples:
  swizzy script run --code 'sum(input_data.values)' --input-json '{"values":[1,2,3]}'
  swizzy script gen "total the amount column of sales.xlsx" --run`,
}

func init() {
	scriptCmd.PersistentFlags().BoolVar(&scriptJSONOutput, "json", false, "Output raw JSON instead of human-formatted summaries")
	rootCmd.AddCommand(scriptCmd)
}
