package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// resolveDocSource reads a document from exactly one of an inline
// flag, a file-path flag, or stdin. inlineName and fileName are the
// flag names to check on cmd.
func resolveDocSource(cmd *cobra.Command, stdin io.Reader, inlineName, fileName string, fromStdin bool) ([]byte, error) {
	inlineSet := cmd.Flags().Changed(inlineName)
	fileSet := cmd.Flags().Changed(fileName)

	selected := 0
	for _, set := range []bool{inlineSet, fileSet, fromStdin} {
		if set {
			selected++
		}
	}
	if selected == 0 {
		return nil, fmt.Errorf("exactly one of --%s, --%s, or --stdin is required", inlineName, fileName)
	}
	if selected > 1 {
		return nil, fmt.Errorf("--%s, --%s, and --stdin are mutually exclusive", inlineName, fileName)
	}

	switch {
	case inlineSet:
		v, err := cmd.Flags().GetString(inlineName)
		if err != nil {
			return nil, err
		}
		return []byte(v), nil
	case fileSet:
		path, err := cmd.Flags().GetString(fileName)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("--%s requires a path", fileName)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading --%s: %w", fileName, err)
		}
		return b, nil
	default:
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading --stdin: %w", err)
		}
		return b, nil
	}
}
