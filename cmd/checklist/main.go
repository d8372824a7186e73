package main

import (
	"os"
	"strings"

	"checklist-cli/internal/cli"
	"checklist-cli/internal/store"
)

func rewriteDirectNoteLookupArgs(argv []string) []string {
	// `checklist <note-id>` works like `checklist notes show <note-id>`.
	//
	// Cobra treats the first non-flag token as a subcommand, so we rewrite argv before
	// parsing. Persistent flags may come first (`checklist --dir ... <note-id>`), so
	// find the first positional token, not just argv[1].
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--dir":       true,
		"--backend":   true,
		"--format":    true,
		"--width":     true,
		"--log-level": true,
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && store.IsNoteID(argv[i+1]) {
				return insertShow(argv, i+1)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			// Unknown flags are skipped without a value so a note id is never consumed.
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		if store.IsNoteID(a) {
			return insertShow(argv, i)
		}
		return argv
	}
	return argv
}

func insertShow(argv []string, at int) []string {
	out := make([]string, 0, len(argv)+2)
	out = append(out, argv[:at]...)
	out = append(out, "notes", "show")
	return append(out, argv[at:]...)
}

func main() {
	os.Args = rewriteDirectNoteLookupArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
