// Package report turns raw violations into the persisted scan report and
// the CI-facing renditions of it. Reports carry no timestamps: two scans of
// identical content must serialize to identical bytes.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/openmeethq/codegate/internal/rules"
	"github.com/openmeethq/codegate/internal/support"
)

const SchemaVersion = "1.0"

const (
	StatusPass = "PASS"
	StatusWarn = "WARN"
	StatusFail = "FAIL"
)

// Summary tallies violations per severity.
type Summary struct {
	Total    int `json:"total"`
	Blocker  int `json:"blocker"`
	Critical int `json:"critical"`
	Major    int `json:"major"`
	Minor    int `json:"minor"`
	Info     int `json:"info"`
}

// FileStats counts scan coverage. Scanned excludes skipped files.
type FileStats struct {
	Scanned        int `json:"scanned"`
	WithViolations int `json:"withViolations"`
}

// ScanReport is the canonical scan output written to report.json.
type ScanReport struct {
	SchemaVersion string            `json:"schemaVersion"`
	Status        string            `json:"status"`
	Summary       Summary           `json:"summary"`
	Files         FileStats         `json:"files"`
	Violations    []rules.Violation `json:"violations"`
}

// Sort orders violations for stable output: severity weight descending, then
// file, line, column, and rule id ascending.
func Sort(v []rules.Violation) {
	sort.Slice(v, func(i, j int) bool {
		if v[i].Severity != v[j].Severity {
			return v[i].Severity.Weight() > v[j].Severity.Weight()
		}
		if v[i].File != v[j].File {
			return v[i].File < v[j].File
		}
		if v[i].Line != v[j].Line {
			return v[i].Line < v[j].Line
		}
		if v[i].Column != v[j].Column {
			return v[i].Column < v[j].Column
		}
		return v[i].RuleID < v[j].RuleID
	})
}

// Build assembles the report from an unordered violation set.
func Build(violations []rules.Violation, scanned int) *ScanReport {
	if violations == nil {
		violations = []rules.Violation{}
	}
	Sort(violations)

	var sum Summary
	seen := map[string]struct{}{}
	for _, v := range violations {
		sum.Total++
		switch v.Severity {
		case rules.SeverityBlocker:
			sum.Blocker++
		case rules.SeverityCritical:
			sum.Critical++
		case rules.SeverityMajor:
			sum.Major++
		case rules.SeverityMinor:
			sum.Minor++
		default:
			sum.Info++
		}
		seen[v.File] = struct{}{}
	}

	return &ScanReport{
		SchemaVersion: SchemaVersion,
		Status:        StatusFor(sum),
		Summary:       sum,
		Files:         FileStats{Scanned: scanned, WithViolations: len(seen)},
		Violations:    violations,
	}
}

// StatusFor applies the fixed gate policy: blockers and criticals fail,
// majors warn, everything else passes.
func StatusFor(s Summary) string {
	if s.Blocker > 0 || s.Critical > 0 {
		return StatusFail
	}
	if s.Major > 0 {
		return StatusWarn
	}
	return StatusPass
}

// Headline is the one-line human verdict used by the HUD and gate outputs.
func Headline(rep *ScanReport) string {
	switch rep.Status {
	case StatusFail:
		return fmt.Sprintf("FAIL: %s must be resolved", countPhrase(rep.Summary, rules.SeverityBlocker, rules.SeverityCritical))
	case StatusWarn:
		return fmt.Sprintf("WARN: %s should be resolved", countPhrase(rep.Summary, rules.SeverityMajor))
	default:
		if rep.Summary.Total == 0 {
			return fmt.Sprintf("PASS: no violations in %d files", rep.Files.Scanned)
		}
		return fmt.Sprintf("PASS: %d low-severity violations tolerated", rep.Summary.Total)
	}
}

func countPhrase(s Summary, severities ...rules.Severity) string {
	parts := []string{}
	for _, sev := range severities {
		n := 0
		switch sev {
		case rules.SeverityBlocker:
			n = s.Blocker
		case rules.SeverityCritical:
			n = s.Critical
		case rules.SeverityMajor:
			n = s.Major
		case rules.SeverityMinor:
			n = s.Minor
		case rules.SeverityInfo:
			n = s.Info
		}
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, sev))
		}
	}
	if len(parts) == 0 {
		return "0 violations"
	}
	return strings.Join(parts, ", ")
}

// Top returns the n highest-ranked violations for display.
func (r *ScanReport) Top(n int) []rules.Violation {
	if n <= 0 || n > len(r.Violations) {
		n = len(r.Violations)
	}
	return r.Violations[:n]
}

// Write persists the report atomically.
func (r *ScanReport) Write(path string) error {
	return support.WriteJSONAtomic(path, r)
}

// Load reads a previously written report.
func Load(path string) (*ScanReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scan report %s: %w", path, err)
	}
	var rep ScanReport
	if err := json.Unmarshal(support.StripBOM(data), &rep); err != nil {
		return nil, fmt.Errorf("failed to parse scan report %s: %w", path, err)
	}
	if rep.SchemaVersion == "" || rep.Status == "" {
		return nil, fmt.Errorf("scan report %s is missing schemaVersion or status", path)
	}
	return &rep, nil
}
