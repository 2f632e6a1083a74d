package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openmeethq/codegate/internal/allowlist"
	"github.com/openmeethq/codegate/internal/engine"
	"github.com/openmeethq/codegate/internal/history"
	"github.com/openmeethq/codegate/internal/logging"
	"github.com/openmeethq/codegate/internal/report"
	"github.com/openmeethq/codegate/internal/rules"
	"github.com/openmeethq/codegate/internal/selector"
	"github.com/openmeethq/codegate/internal/support"
)

var flagScanFormat string

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the workspace and write report.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan()
	},
}

func init() {
	scanCmd.Flags().StringVar(&flagScanFormat, "format", "hud", "output format: hud or json")
	rootCmd.AddCommand(scanCmd)
}

func runScan() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := scanOnce(ctx)
	if err != nil {
		return err
	}

	switch flagScanFormat {
	case "json":
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	default:
		printScanHUD(rep)
	}

	// A blocking exit always follows the printed findings.
	if rep.Status == report.StatusFail {
		exitWith(1)
	}
	return nil
}

// scanOnce runs the full scan pipeline once and persists every scan
// artifact. watch mode reuses it on each debounced change.
func scanOnce(ctx context.Context) (*report.ScanReport, error) {
	ws := cfg.Paths.WorkspaceRoot
	if err := ensureOutDir(); err != nil {
		return nil, fmt.Errorf("cannot create output dir: %w", err)
	}

	allow, warnings := allowlist.Load(wsPath(cfg.Scan.AllowlistPath))
	for _, w := range warnings {
		logging.Log.Warnw("allowlist", "detail", w)
	}

	files, selWarnings, err := selector.Select(ws, cfg.Scan.IncludeGlobs, cfg.Scan.ExcludeDirs, allow)
	if err != nil {
		return nil, fmt.Errorf("file selection failed: %w", err)
	}
	for _, w := range selWarnings {
		logging.Log.Warnw("selector", "detail", w)
	}

	violations, stats, err := engine.Run(ctx, engine.Options{
		Workspace:        ws,
		Files:            files,
		Catalog:          rules.DefaultCatalog(),
		Workers:          cfg.Scan.Workers,
		MaxFileSizeBytes: cfg.Scan.MaxFileSizeBytes,
	})
	if err != nil {
		return nil, err
	}

	rep := report.Build(violations, stats.Scanned)
	if err := rep.Write(outPath("report.json")); err != nil {
		return nil, fmt.Errorf("cannot write report: %w", err)
	}

	if cfg.Reports.Hints.Enabled {
		if err := writeHints(wsPath(cfg.Reports.Hints.Path), rep); err != nil {
			logging.Log.Warnw("hints not written", "error", err)
		}
	}
	if cfg.Reports.HTML.Enabled {
		if err := writeReportHTML(wsPath(cfg.Reports.HTML.Path), rep); err != nil {
			logging.Log.Warnw("html report not written", "error", err)
		}
	}

	recordHistory("scan", rep.Status, rep)

	if err := support.AppendAudit(ws, cfg.Paths.OutputDir, support.AuditEntry{
		Mode:     "scan",
		Status:   rep.Status,
		Blocker:  rep.Summary.Blocker,
		Critical: rep.Summary.Critical,
		Major:    rep.Summary.Major,
		Minor:    rep.Summary.Minor,
		Info:     rep.Summary.Info,
		Scanned:  rep.Files.Scanned,
		Result:   report.Headline(rep),
	}); err != nil {
		logging.Log.Warnw("audit append failed", "error", err)
	}

	logging.Log.Infow("scan complete",
		"scanned", rep.Files.Scanned,
		"skipped", stats.Skipped,
		"violations", rep.Summary.Total,
		"status", rep.Status,
	)
	return rep, nil
}

// hint is a machine-readable remediation pointer for CI annotations.
type hint struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Hint     string `json:"hint"`
}

func writeHints(path string, rep *report.ScanReport) error {
	hints := []hint{}
	for _, v := range rep.Violations {
		if v.Severity < rules.SeverityMajor {
			continue
		}
		hints = append(hints, hint{
			File:     v.File,
			Line:     v.Line,
			Rule:     v.RuleID,
			Severity: v.Severity.String(),
			Message:  v.Message,
			Hint:     fixHintFor(v.Category),
		})
	}
	return support.WriteJSONAtomic(path, hints)
}

func fixHintFor(cat rules.Category) string {
	switch cat {
	case rules.CategoryDebug:
		return "remove the debug statement or route it through the logger"
	case rules.CategoryMarker:
		return "resolve the marker or move the work into a tracked issue"
	case rules.CategoryPlaceholder:
		return "replace the placeholder with the real implementation"
	case rules.CategoryMock:
		return "move mock data into test fixtures"
	case rules.CategoryEmptyImpl:
		return "implement the body or return an explicit error"
	case rules.CategorySecurity:
		return "load the secret from the environment or a secret store"
	default:
		return "review the finding"
	}
}

func writeReportHTML(path string, rep *report.ScanReport) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	html := "<html><body><h2>codegate report</h2><p>Status: " + rep.Status +
		"</p><pre>" + string(data) + "</pre></body></html>"
	return support.WriteFileAtomic(path, []byte(html))
}

// recordHistory is best effort: a broken history database never blocks a
// scan or verify run.
func recordHistory(mode, status string, rep *report.ScanReport) {
	if !cfg.History.Enabled {
		return
	}
	store, err := history.Open(wsPath(cfg.History.Path))
	if err != nil {
		logging.Log.Warnw("history unavailable", "error", err)
		return
	}
	defer store.Close()

	err = store.Record(history.Entry{
		Mode:           mode,
		Status:         status,
		Blocker:        rep.Summary.Blocker,
		Critical:       rep.Summary.Critical,
		Major:          rep.Summary.Major,
		Minor:          rep.Summary.Minor,
		Info:           rep.Summary.Info,
		Scanned:        rep.Files.Scanned,
		WithViolations: rep.Files.WithViolations,
		CommitSHA:      support.GitShortSHA(cfg.Paths.WorkspaceRoot),
	})
	if err != nil {
		logging.Log.Warnw("history record failed", "error", err)
		return
	}
	if _, err := store.Prune(cfg.History.MaxRows, cfg.History.KeepDays); err != nil {
		logging.Log.Warnw("history prune failed", "error", err)
	}
}
