package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/swizzylabs/swizzy-cli/sandbox"
)

var (
	runCode      string
	runScript    string
	runStdin     bool
	runInputJSON string
	runTimeoutMS int
)

var scriptRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a script in the sandbox",
	Long: `Execute a script in the sandbox against the local file store.

Contract:
  - Provide exactly one code source: --code, --script, or --stdin.
  - The script's value is its output; an output mapping with an
    "error" key is reported as the script's own failure.
  - --input-json becomes the input_data mapping (defaults to {}).

Exit codes:
  0: script succeeded
  1: sandbox violation, timeout, runtime error, or script error

Examples:
  swizzy script run --code 'len(read_excel(input_data.handle))' --input-json '{"handle":"sales.xlsx"}'
  cat transform.swz | swizzy script run --stdin --timeout-ms 5000`,
	Args: cobra.NoArgs,
	RunE: runScriptRun,
}

func init() {
	scriptRunCmd.Flags().StringVar(&runCode, "code", "", "Inline script source")
	scriptRunCmd.Flags().StringVar(&runScript, "script", "", "Path to a script file")
	scriptRunCmd.Flags().BoolVar(&runStdin, "stdin", false, "Read script source from stdin")
	scriptRunCmd.Flags().StringVar(&runInputJSON, "input-json", "", "JSON object passed to the script as input_data")
	scriptRunCmd.Flags().IntVar(&runTimeoutMS, "timeout-ms", 0, "Execution time limit in milliseconds (> 0)")
	scriptCmd.AddCommand(scriptRunCmd)
}

func runScriptRun(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	code, err := resolveScriptSource(cmd, os.Stdin)
	if err != nil {
		return err
	}
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("script code must not be empty")
	}

	input, err := parseScriptInput(runInputJSON, cmd.Flags().Changed("input-json"))
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("timeout-ms") && runTimeoutMS <= 0 {
		return fmt.Errorf("--timeout-ms must be > 0")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	executor, err := newExecutor(cfg, runTimeoutMS)
	if err != nil {
		return err
	}

	result := executor.Run(cmd.Context(), code, input)
	return printScriptResult(result)
}

func resolveScriptSource(cmd *cobra.Command, stdin io.Reader) (string, error) {
	b, err := resolveDocSource(cmd, stdin, "code", "script", runStdin)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func parseScriptInput(raw string, provided bool) (map[string]any, error) {
	if !provided {
		return map[string]any{}, nil
	}
	var input map[string]any
	if err := json.Unmarshal([]byte(raw), &input); err != nil {
		return nil, fmt.Errorf("invalid --input-json: %w", err)
	}
	return input, nil
}

func printScriptResult(result sandbox.Result) error {
	if scriptJSONOutput {
		if err := jsonPrint(result); err != nil {
			return err
		}
	} else if result.Success {
		if result.Output != nil {
			if err := jsonPrint(result.Output); err != nil {
				return err
			}
		}
	} else {
		fmt.Printf("%s: %s\n", result.Kind, result.Error)
	}

	if !result.Success {
		return &ExitError{Code: 1}
	}
	return nil
}
