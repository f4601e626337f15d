package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	genInputSchema string
	genOutputReqs  string
	genInputJSON   string
	genRun         bool
	genTimeoutMS   int
)

var scriptGenCmd = &cobra.Command{
	Use:   "gen <task>",
	Short: "Generate a script from a task description",
	Long: `Ask the configured generation service for a script implementing the
task, print it, and optionally execute it in the sandbox.

Flags:
  --input-schema  Describes the input_data mapping the script receives.
  --output        Describes the value the script must produce.
  --run           Execute the generated script immediately.
  --input-json    input_data for --run (defaults to {}).

The generation service is configured via SWIZZY_GEN_URL and
SWIZZY_GEN_API_KEY or the config file.

Examples:
  swizzy script gen "sum the amount column" --input-schema '{"handle":"string"}'
  swizzy script gen "total sales by region" --run --input-json '{"handle":"sales.xlsx"}'`,
	Args: cobra.ExactArgs(1),
	RunE: runScriptGen,
}

func init() {
	scriptGenCmd.Flags().StringVar(&genInputSchema, "input-schema", "", "Description of the input_data mapping")
	scriptGenCmd.Flags().StringVar(&genOutputReqs, "output", "", "Description of the required output value")
	scriptGenCmd.Flags().StringVar(&genInputJSON, "input-json", "", "JSON object passed to the script as input_data (with --run)")
	scriptGenCmd.Flags().BoolVar(&genRun, "run", false, "Execute the generated script in the sandbox")
	scriptGenCmd.Flags().IntVar(&genTimeoutMS, "timeout-ms", 0, "Execution time limit in milliseconds (with --run)")
	scriptCmd.AddCommand(scriptGenCmd)
}

func runScriptGen(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if !genRun {
		for _, name := range []string{"input-json", "timeout-ms"} {
			if cmd.Flags().Changed(name) {
				return fmt.Errorf("--%s requires --run", name)
			}
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gen, err := newGenClient(cfg)
	if err != nil {
		return err
	}

	code, err := gen.Generate(cmd.Context(), args[0], genInputSchema, genOutputReqs)
	if err != nil {
		return err
	}

	if !genRun {
		if scriptJSONOutput {
			return jsonPrint(map[string]any{"script": code})
		}
		fmt.Println(code)
		return nil
	}

	input, err := parseScriptInput(genInputJSON, cmd.Flags().Changed("input-json"))
	if err != nil {
		return err
	}
	executor, err := newExecutor(cfg, genTimeoutMS)
	if err != nil {
		return err
	}

	result := executor.Run(cmd.Context(), code, input)
	if scriptJSONOutput {
		if err := jsonPrint(map[string]any{"script": code, "result": result}); err != nil {
			return err
		}
		if !result.Success {
			return &ExitError{Code: 1}
		}
		return nil
	}

	fmt.Println(code)
	return printScriptResult(result)
}
