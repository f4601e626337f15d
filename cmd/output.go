package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/swizzylabs/swizzy-cli/engine"
)

// ExitError signals a non-zero exit code without printing an error message.
type ExitError struct{ Code int }

func (e *ExitError) Error() string { return "" }

func jsonPrint(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResults renders a per-operation result map in key order, one
// line per operation.
func printResults(results engine.Results) {
	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if m, ok := results[k].(map[string]any); ok {
			if msg, failed := m["error"]; failed {
				fmt.Printf("%s: error: %v\n", k, msg)
				continue
			}
		}
		line, err := json.Marshal(results[k])
		if err != nil {
			fmt.Printf("%s: %v\n", k, results[k])
			continue
		}
		fmt.Printf("%s: %s\n", k, line)
	}
}
