package main

import (
	"fmt"
	"os"
	"strings"
)

// fatal prints an error message to stderr. Callers return the appropriate
// exit code themselves; fatal never calls os.Exit so deferred cleanup
// (e.g. signal.NotifyContext's cancel) still runs.
func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "dupcheck: "+format+"\n", args...)
}

// parseFlag extracts a flag value from args (e.g. "--key=value").
func parseFlag(args []string, prefix string) string {
	for _, arg := range args {
		if strings.HasPrefix(arg, prefix) {
			return strings.TrimPrefix(arg, prefix)
		}
	}
	return ""
}

// hasFlag reports whether a bare flag (no "=value") is present in args.
func hasFlag(args []string, flag string) bool {
	for _, arg := range args {
		if arg == flag {
			return true
		}
	}
	return false
}

// splitRootsAndFlags separates positional root paths from "--flag"/
// "--flag=value" arguments. Roots may appear in any position.
func splitRootsAndFlags(args []string) (roots []string, flags []string) {
	for _, a := range args {
		if strings.HasPrefix(a, "-") {
			flags = append(flags, a)
		} else {
			roots = append(roots, a)
		}
	}
	return roots, flags
}
