package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config is the compiled-in configuration with optional overrides.
type Config struct {
	SchemaVersion string        `json:"schemaVersion"`
	App           AppConfig     `json:"app"`
	Paths         PathsConfig   `json:"paths"`
	Logging       LoggingConfig `json:"logging"`
	Scan          ScanConfig    `json:"scan"`
	Reports       ReportsConfig `json:"reports"`
	History       HistoryConfig `json:"history"`
	Watch         WatchConfig   `json:"watch"`
}

type AppConfig struct {
	Name    string `json:"name"`
	Channel string `json:"channel"`
}

type PathsConfig struct {
	WorkspaceRoot string `json:"workspaceRoot"`
	OutputDir     string `json:"outputDir"`
}

type LoggingConfig struct {
	Level string `json:"level"`
	JSON  bool   `json:"json"`
}

type ScanConfig struct {
	IncludeGlobs     []string `json:"include_globs"`
	ExcludeDirs      []string `json:"exclude_dirs"`
	AllowlistPath    string   `json:"allowlist_path"`
	Workers          int      `json:"workers"`
	MaxFileSizeBytes int64    `json:"max_file_size_bytes"`
	ExcerptLimit     int      `json:"excerpt_limit"`
}

type ReportsConfig struct {
	SARIF ReportConfig `json:"sarif"`
	JUnit ReportConfig `json:"junit"`
	Hints ReportConfig `json:"hints"`
	HTML  ReportConfig `json:"html"`
}

type ReportConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type HistoryConfig struct {
	Enabled  bool   `json:"enabled"`
	Path     string `json:"path"`
	MaxRows  int    `json:"max_rows"`
	KeepDays int    `json:"keep_days"`
}

type WatchConfig struct {
	DebounceMs int `json:"debounce_ms"`
}

type Flags struct {
	ConfigPath string
	Workspace  string
}

// Default returns the compiled-in defaults. The include set targets the
// TS/JS source family; Python and friends opt in through a config file.
func Default() Config {
	return Config{
		SchemaVersion: "1.0",
		App: AppConfig{
			Name:    "codegate",
			Channel: "release",
		},
		Paths: PathsConfig{
			WorkspaceRoot: ".",
			OutputDir:     ".codegate",
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  false,
		},
		Scan: ScanConfig{
			IncludeGlobs: []string{
				"**/*.ts",
				"**/*.tsx",
				"**/*.js",
				"**/*.jsx",
				"**/*.mjs",
				"**/*.cjs",
			},
			ExcludeDirs: []string{
				"node_modules",
				".git",
				"dist",
				"build",
				"coverage",
				"vendor",
				"__pycache__",
				".next",
				".codegate",
			},
			AllowlistPath:    ".codegate/allowlist.yml",
			Workers:          4,
			MaxFileSizeBytes: 1024 * 1024,
			ExcerptLimit:     10,
		},
		Reports: ReportsConfig{
			SARIF: ReportConfig{Enabled: true, Path: ".codegate/results.sarif"},
			JUnit: ReportConfig{Enabled: true, Path: ".codegate/junit.xml"},
			Hints: ReportConfig{Enabled: true, Path: ".codegate/hints.json"},
			HTML:  ReportConfig{Enabled: true, Path: ".codegate/report.html"},
		},
		History: HistoryConfig{
			Enabled:  true,
			Path:     ".codegate/history.db",
			MaxRows:  50,
			KeepDays: 14,
		},
		Watch: WatchConfig{
			DebounceMs: 300,
		},
	}
}

// Load reads a JSON config from disk.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve applies defaults and optional overrides, then validates.
func Resolve(flags Flags) (Config, string, []string, error) {
	cfg := Default()
	var cfgPath string
	var warnings []string

	if flags.ConfigPath != "" {
		loaded, err := Load(flags.ConfigPath)
		if err != nil {
			return Config{}, "", nil, err
		}
		mergeConfigDefaults(&loaded, &cfg)
		cfg = loaded
		cfgPath = flags.ConfigPath
	}

	if flags.Workspace != "" {
		cfg.Paths.WorkspaceRoot = flags.Workspace
	}

	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = "1.0"
	}
	if cfg.Scan.Workers < 1 {
		cfg.Scan.Workers = 1
		warnings = append(warnings, "scan workers forced to 1")
	}
	if cfg.History.MaxRows < 1 {
		cfg.History.MaxRows = Default().History.MaxRows
		warnings = append(warnings, "history max_rows reset to default")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, "", nil, err
	}

	return cfg, cfgPath, warnings, nil
}

// Validate checks the resolved configuration for consistency.
func (c *Config) Validate() error {
	if c.SchemaVersion != "1.0" {
		return fmt.Errorf("unsupported schemaVersion: %s (expected 1.0)", c.SchemaVersion)
	}
	if c.Paths.OutputDir == "" {
		return fmt.Errorf("paths.outputDir must not be empty")
	}
	return nil
}

func mergeConfigDefaults(cfg *Config, defaults *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = defaults.App.Name
	}
	if cfg.App.Channel == "" {
		cfg.App.Channel = defaults.App.Channel
	}
	if cfg.Paths.WorkspaceRoot == "" {
		cfg.Paths.WorkspaceRoot = defaults.Paths.WorkspaceRoot
	}
	if cfg.Paths.OutputDir == "" {
		cfg.Paths.OutputDir = defaults.Paths.OutputDir
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Logging.Level
	}
	if len(cfg.Scan.IncludeGlobs) == 0 {
		cfg.Scan.IncludeGlobs = defaults.Scan.IncludeGlobs
	}
	if len(cfg.Scan.ExcludeDirs) == 0 {
		cfg.Scan.ExcludeDirs = defaults.Scan.ExcludeDirs
	}
	if cfg.Scan.AllowlistPath == "" {
		cfg.Scan.AllowlistPath = defaults.Scan.AllowlistPath
	}
	if cfg.Scan.Workers == 0 {
		cfg.Scan.Workers = defaults.Scan.Workers
	}
	if cfg.Scan.MaxFileSizeBytes == 0 {
		cfg.Scan.MaxFileSizeBytes = defaults.Scan.MaxFileSizeBytes
	}
	if cfg.Scan.ExcerptLimit == 0 {
		cfg.Scan.ExcerptLimit = defaults.Scan.ExcerptLimit
	}
	if cfg.Reports.SARIF.Path == "" {
		cfg.Reports.SARIF = defaults.Reports.SARIF
	}
	if cfg.Reports.JUnit.Path == "" {
		cfg.Reports.JUnit = defaults.Reports.JUnit
	}
	if cfg.Reports.Hints.Path == "" {
		cfg.Reports.Hints = defaults.Reports.Hints
	}
	if cfg.Reports.HTML.Path == "" {
		cfg.Reports.HTML = defaults.Reports.HTML
	}
	if cfg.History.Path == "" {
		cfg.History = defaults.History
	}
	if cfg.History.MaxRows == 0 {
		cfg.History.MaxRows = defaults.History.MaxRows
	}
	if cfg.History.KeepDays == 0 {
		cfg.History.KeepDays = defaults.History.KeepDays
	}
	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = defaults.Watch.DebounceMs
	}
}
