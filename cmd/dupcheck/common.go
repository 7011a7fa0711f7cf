package main

import (
	"errors"

	"github.com/nocopy/dupcheck/pkg/dupscan"
)

// resolveOptions builds a dupscan.ScanOptions from the config/env/flag
// merge layer described in config.go.
func resolveOptions(flags []string) (dupscan.ScanOptions, error) {
	cfg, err := loadConfig(parseFlag(flags, "--config="))
	if err != nil {
		return dupscan.ScanOptions{}, err
	}
	cfg, err = applyFlags(cfg, flags)
	if err != nil {
		return dupscan.ScanOptions{}, err
	}
	return cfg.toScanOptions(), nil
}

// renderScanResult implements the shared --json/--stats/--strict/exit-code
// tail of every scan command: 0 on complete or benign-only scans, 1 on
// invalid roots or runtime scan errors (or, under --strict, any fatal
// ScanStats counter).
func renderScanResult(flags []string, result jsonResult, stats dupscan.ScanStats, err error, printText func()) int {
	if err != nil {
		var de *dupscan.Error
		if errors.As(err, &de) {
			fatal("%v", de)
		} else {
			fatal("%v", err)
		}
		return 1
	}

	if hasFlag(flags, "--json") {
		if hasFlag(flags, "--stats") {
			s := stats
			result.Stats = &s
		}
		if jerr := printJSON(result); jerr != nil {
			fatal("%v", jerr)
			return 1
		}
	} else {
		printText()
	}

	if hasFlag(flags, "--stats") {
		printStatsTable(stats)
	}

	if hasFlag(flags, "--strict") && stats.Incomplete() {
		return 1
	}
	return 0
}
