// Package cmd wires the codegate CLI. Every subcommand works off the
// resolved global configuration and writes its artifacts under the
// workspace output directory.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	cfgpkg "github.com/openmeethq/codegate/internal/config"
	"github.com/openmeethq/codegate/internal/logging"
)

// Version information (set at build time)
var (
	Version   = "1.1.0"
	BuildDate = "unknown"
)

var (
	flagConfig    string
	flagWorkspace string
	flagAllowlist string
	flagDebug     bool
)

// Global resolved config, shared by all subcommands.
var (
	cfg     cfgpkg.Config
	cfgPath string
)

var rootCmd = &cobra.Command{
	Use:   "codegate",
	Short: "Pattern-based source quality gate",
	Long: `codegate scans source trees for debug leftovers, unresolved markers,
placeholder language, mock data, and security-sensitive constructs,
then gates shipping on what it finds.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		resolved, path, warnings, err := cfgpkg.Resolve(cfgpkg.Flags{
			ConfigPath: flagConfig,
			Workspace:  flagWorkspace,
		})
		if err != nil {
			return fmt.Errorf("config load failed: %w", err)
		}
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "WARNING: %s\n", w)
		}
		cfg = resolved
		cfgPath = path
		if flagAllowlist != "" {
			cfg.Scan.AllowlistPath = flagAllowlist
		}
		logging.Init(flagDebug)
		if cfgPath != "" {
			logging.Log.Debugw("config loaded", "path", cfgPath)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a JSON config file")
	rootCmd.PersistentFlags().StringVar(&flagWorkspace, "workspace", "", "workspace root to scan")
	rootCmd.PersistentFlags().StringVar(&flagAllowlist, "allowlist", "", "allowlist path override")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.Version = fmt.Sprintf("%s (built %s)", Version, BuildDate)
}

// Execute runs the CLI.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// outPath resolves a file inside the output directory.
func outPath(name string) string {
	return filepath.Join(cfg.Paths.WorkspaceRoot, cfg.Paths.OutputDir, name)
}

// wsPath resolves a workspace-relative config path.
func wsPath(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(cfg.Paths.WorkspaceRoot, filepath.FromSlash(rel))
}

func ensureOutDir() error {
	return os.MkdirAll(filepath.Join(cfg.Paths.WorkspaceRoot, cfg.Paths.OutputDir), 0o755)
}

// shouldExit lets tests drive commands in-process without killing the run.
func shouldExit() bool {
	return os.Getenv("CODEGATE_NO_EXIT") != "1"
}

func exitWith(code int) {
	if code != 0 && shouldExit() {
		os.Exit(code)
	}
}
