package sandbox

import "strings"

// denied substrings drop the whole line they appear on. This is the
// secondary defense layer; the primary boundary is that none of these
// primitives exist in the executing scope at all.
var denied = []string{
	"import os",
	"import sys",
	"subprocess",
	"__import__",
	"eval(",
	"exec(",
	"os.",
	"sys.",
	"open(",
	"file.",
	".remove(",
	".delete(",
	"shutil",
}

// Sanitize removes script lines referencing denied primitives and all
// import statements. Only explicitly injected symbols are available to
// a script, so a surviving reference still fails at compile time.
func Sanitize(script string) string {
	lines := strings.Split(script, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "from ") {
			continue
		}
		if containsDenied(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func containsDenied(line string) bool {
	line = strings.ToLower(line)
	for _, substr := range denied {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
