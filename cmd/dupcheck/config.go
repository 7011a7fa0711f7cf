package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/nocopy/dupcheck/pkg/dupscan"
)

// cliConfig holds every koanf-mergeable field of dupscan.ScanOptions,
// merged in layers: defaults -> optional JSON
// config file -> DUPCHECK_* environment variables -> command-line flags
// (applied directly in applyFlags, not through koanf, since flags win over
// everything and a flag's absence must not override a config/env value).
type cliConfig struct {
	IgnoreDirs          []string `koanf:"ignore_dirs"`
	RespectGitignore    bool     `koanf:"respect_gitignore"`
	FollowSymlinks      bool     `koanf:"follow_symlinks"`
	MaxFileSize         int64    `koanf:"max_file_size"`
	MaxFiles            int      `koanf:"max_files"`
	MaxTotalBytes       int64    `koanf:"max_total_bytes"`
	MaxNormalizedChars  int64    `koanf:"max_normalized_chars"`
	MaxTokens           int64    `koanf:"max_tokens"`
	MinMatchLen         int      `koanf:"min_match_len"`
	MinTokenLen         int      `koanf:"min_token_len"`
	SimilarityThreshold float64  `koanf:"similarity_threshold"`
	SimhashMaxDistance  int      `koanf:"simhash_max_distance"`
	MaxReportItems      int      `koanf:"max_report_items"`
	CrossRepoOnly       bool     `koanf:"cross_repo_only"`
}

func defaultCLIConfig() cliConfig {
	d := dupscan.DefaultScanOptions()
	return cliConfig{
		RespectGitignore:    d.RespectGitignore,
		FollowSymlinks:      d.FollowSymlinks,
		MaxFileSize:         d.MaxFileSize,
		MinMatchLen:         d.MinMatchLen,
		MinTokenLen:         d.MinTokenLen,
		SimilarityThreshold: d.SimilarityThreshold,
		SimhashMaxDistance:  d.SimhashMaxDistance,
		MaxReportItems:      d.MaxReportItems,
	}
}

// loadConfig merges defaults, an optional JSON config file (--config or
// DUPCHECK_CONFIG), and DUPCHECK_* environment variables, in that order.
// Command-line flags are applied on top of the result by the caller.
func loadConfig(configPath string) (cliConfig, error) {
	k := koanf.New(".")

	defaults := defaultCLIConfig()
	defaultsMap := map[string]any{
		"ignore_dirs":          defaults.IgnoreDirs,
		"respect_gitignore":    defaults.RespectGitignore,
		"follow_symlinks":      defaults.FollowSymlinks,
		"max_file_size":        defaults.MaxFileSize,
		"max_files":            defaults.MaxFiles,
		"max_total_bytes":      defaults.MaxTotalBytes,
		"max_normalized_chars": defaults.MaxNormalizedChars,
		"max_tokens":           defaults.MaxTokens,
		"min_match_len":        defaults.MinMatchLen,
		"min_token_len":        defaults.MinTokenLen,
		"similarity_threshold": defaults.SimilarityThreshold,
		"simhash_max_distance": defaults.SimhashMaxDistance,
		"max_report_items":     defaults.MaxReportItems,
		"cross_repo_only":      defaults.CrossRepoOnly,
	}
	if err := k.Load(confmap.Provider(defaultsMap, "."), nil); err != nil {
		return cliConfig{}, fmt.Errorf("load defaults: %w", err)
	}

	if configPath == "" {
		configPath = os.Getenv("DUPCHECK_CONFIG")
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), json.Parser()); err != nil {
			return cliConfig{}, fmt.Errorf("load config %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: "DUPCHECK_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "DUPCHECK_"))
			return key, value
		},
	}), nil); err != nil {
		return cliConfig{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg cliConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return cliConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// applyFlags overlays command-line flags onto cfg. Only flags explicitly
// present in args override the config/env-derived value.
func applyFlags(cfg cliConfig, args []string) (cliConfig, error) {
	if v := parseFlag(args, "--ignore-dirs="); v != "" {
		cfg.IgnoreDirs = strings.Split(v, ",")
	}
	if hasFlag(args, "--no-gitignore") {
		cfg.RespectGitignore = false
	}
	if hasFlag(args, "--follow-symlinks") {
		cfg.FollowSymlinks = true
	}
	if v := parseFlag(args, "--max-file-size="); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("--max-file-size: %w", err)
		}
		cfg.MaxFileSize = n
	}
	if v := parseFlag(args, "--max-files="); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("--max-files: %w", err)
		}
		cfg.MaxFiles = n
	}
	if v := parseFlag(args, "--max-total-bytes="); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("--max-total-bytes: %w", err)
		}
		cfg.MaxTotalBytes = n
	}
	if v := parseFlag(args, "--max-normalized-chars="); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("--max-normalized-chars: %w", err)
		}
		cfg.MaxNormalizedChars = n
	}
	if v := parseFlag(args, "--max-tokens="); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("--max-tokens: %w", err)
		}
		cfg.MaxTokens = n
	}
	if v := parseFlag(args, "--min-match-len="); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("--min-match-len: %w", err)
		}
		cfg.MinMatchLen = n
	}
	if v := parseFlag(args, "--min-token-len="); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("--min-token-len: %w", err)
		}
		cfg.MinTokenLen = n
	}
	if v := parseFlag(args, "--similarity-threshold="); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("--similarity-threshold: %w", err)
		}
		cfg.SimilarityThreshold = f
	}
	if v := parseFlag(args, "--simhash-max-distance="); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("--simhash-max-distance: %w", err)
		}
		cfg.SimhashMaxDistance = n
	}
	if v := parseFlag(args, "--max-report-items="); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("--max-report-items: %w", err)
		}
		cfg.MaxReportItems = n
	}
	if hasFlag(args, "--cross-repo-only") {
		cfg.CrossRepoOnly = true
	}
	return cfg, nil
}

func (c cliConfig) toScanOptions() dupscan.ScanOptions {
	return dupscan.ScanOptions{
		IgnoreDirs:          c.IgnoreDirs,
		RespectGitignore:    c.RespectGitignore,
		FollowSymlinks:      c.FollowSymlinks,
		MaxFileSize:         c.MaxFileSize,
		MaxFiles:            c.MaxFiles,
		MaxTotalBytes:       c.MaxTotalBytes,
		MaxNormalizedChars:  c.MaxNormalizedChars,
		MaxTokens:           c.MaxTokens,
		MinMatchLen:         c.MinMatchLen,
		MinTokenLen:         c.MinTokenLen,
		SimilarityThreshold: c.SimilarityThreshold,
		SimhashMaxDistance:  c.SimhashMaxDistance,
		MaxReportItems:      c.MaxReportItems,
		CrossRepoOnly:       c.CrossRepoOnly,
	}
}
