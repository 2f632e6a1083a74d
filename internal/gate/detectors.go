package gate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/openmeethq/codegate/internal/allowlist"
	"github.com/openmeethq/codegate/internal/report"
	"github.com/openmeethq/codegate/internal/rules"
	"github.com/openmeethq/codegate/internal/support"
)

// ViolationGate maps the scan report's status onto the gate.
type ViolationGate struct {
	Report *report.ScanReport
}

func (ViolationGate) ID() string          { return "violation-gate" }
func (ViolationGate) Description() string { return "scan report severities within policy" }

func (d ViolationGate) Check(string) Verdict {
	v := Verdict{ID: d.ID(), Description: d.Description()}
	if d.Report == nil {
		v.Status = StatusFail
		v.Details = []string{"no scan report loaded"}
		return v
	}
	switch d.Report.Status {
	case report.StatusFail:
		v.Status = StatusFail
	case report.StatusWarn:
		v.Status = StatusWarn
	default:
		v.Status = StatusPass
	}
	v.Details = []string{report.Headline(d.Report)}
	return v
}

// ReportIntegrity verifies that report.json exists and parses.
type ReportIntegrity struct {
	Path string
}

func (ReportIntegrity) ID() string          { return "report-integrity" }
func (ReportIntegrity) Description() string { return "scan report present and well formed" }

func (d ReportIntegrity) Check(string) Verdict {
	v := Verdict{ID: d.ID(), Description: d.Description()}
	rep, err := report.Load(d.Path)
	if err != nil {
		v.Status = StatusFail
		if errors.Is(err, os.ErrNotExist) {
			v.Details = []string{fmt.Sprintf("missing %s; run `codegate scan` first", d.Path)}
		} else {
			v.Details = []string{err.Error()}
		}
		return v
	}
	v.Status = StatusPass
	v.Details = []string{fmt.Sprintf("schema %s, %d violations", rep.SchemaVersion, rep.Summary.Total)}
	return v
}

// AllowlistCheck reports allowlist health. Config problems degrade, they
// never block.
type AllowlistCheck struct {
	Path string
}

func (AllowlistCheck) ID() string          { return "allowlist" }
func (AllowlistCheck) Description() string { return "allowlist readable and compiled" }

func (d AllowlistCheck) Check(string) Verdict {
	v := Verdict{ID: d.ID(), Description: d.Description()}
	allow, warnings := allowlist.Load(d.Path)
	if len(warnings) > 0 {
		v.Status = StatusWarn
		v.Details = warnings
		return v
	}
	paths, patterns, roots := allow.Counts()
	v.Status = StatusPass
	v.Details = []string{fmt.Sprintf("%d skip paths, %d skip patterns, %d scan roots", paths, patterns, roots)}
	return v
}

// WorkspaceCheck confirms the workspace root and output directory are usable.
type WorkspaceCheck struct {
	OutputDir string
}

func (WorkspaceCheck) ID() string          { return "workspace" }
func (WorkspaceCheck) Description() string { return "workspace root and output directory usable" }

func (d WorkspaceCheck) Check(workspace string) Verdict {
	v := Verdict{ID: d.ID(), Description: d.Description()}
	fi, err := os.Stat(workspace)
	if err != nil || !fi.IsDir() {
		v.Status = StatusFail
		v.Details = []string{fmt.Sprintf("workspace root %s is not a directory", workspace)}
		return v
	}
	outDir := filepath.Join(workspace, d.OutputDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		v.Status = StatusFail
		v.Details = []string{fmt.Sprintf("cannot create %s: %v", outDir, err)}
		return v
	}
	v.Status = StatusPass
	v.Details = []string{outDir}
	return v
}

// CatalogCheck validates the active rule catalog.
type CatalogCheck struct {
	Catalog rules.Catalog
}

func (CatalogCheck) ID() string          { return "catalog" }
func (CatalogCheck) Description() string { return "rule catalog valid" }

func (d CatalogCheck) Check(string) Verdict {
	v := Verdict{ID: d.ID(), Description: d.Description()}
	if err := d.Catalog.Validate(); err != nil {
		v.Status = StatusFail
		v.Details = []string{err.Error()}
		return v
	}
	v.Status = StatusPass
	v.Details = []string{fmt.Sprintf("%d rules", len(d.Catalog))}
	return v
}

// GitCheck records the workspace commit when available. Absence of git is
// a degradation, not a failure.
type GitCheck struct{}

func (GitCheck) ID() string          { return "git" }
func (GitCheck) Description() string { return "workspace commit resolvable" }

func (d GitCheck) Check(workspace string) Verdict {
	v := Verdict{ID: d.ID(), Description: d.Description()}
	sha := support.GitShortSHA(workspace)
	if sha == "" {
		v.Status = StatusWarn
		v.Details = []string{"not a git repository or git unavailable"}
		return v
	}
	v.Status = StatusPass
	v.Details = []string{sha}
	return v
}
