package report

import (
	"encoding/json"

	"github.com/openmeethq/codegate/internal/rules"
	"github.com/openmeethq/codegate/internal/support"
)

type sarifDocument struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}
type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}
type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}
type sarifDriver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}
type sarifResult struct {
	RuleID  string          `json:"ruleId"`
	Level   string          `json:"level"`
	Message sarifMessage    `json:"message"`
	Locs    []sarifLocation `json:"locations,omitempty"`
}
type sarifMessage struct {
	Text string `json:"text"`
}
type sarifLocation struct {
	PhysicalLocation sarifPhysical `json:"physicalLocation"`
}
type sarifPhysical struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           *sarifRegion  `json:"region,omitempty"`
}
type sarifArtifact struct {
	URI string `json:"uri"`
}
type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn,omitempty"`
}

func sarifLevel(sev rules.Severity) string {
	switch sev {
	case rules.SeverityBlocker, rules.SeverityCritical:
		return "error"
	case rules.SeverityMajor:
		return "warning"
	default:
		return "note"
	}
}

// WriteSARIF renders the report as SARIF 2.1.0 for code-scanning uploads.
// A failing gate is appended as its own result so pipelines surface the
// verdict even when individual findings are filtered.
func WriteSARIF(path string, rep *ScanReport, version string) error {
	results := []sarifResult{}
	for _, v := range rep.Violations {
		r := sarifResult{
			RuleID:  v.RuleID,
			Level:   sarifLevel(v.Severity),
			Message: sarifMessage{Text: v.Message},
		}
		if v.File != "" {
			loc := sarifLocation{PhysicalLocation: sarifPhysical{ArtifactLocation: sarifArtifact{URI: v.File}}}
			if v.Line > 0 {
				loc.PhysicalLocation.Region = &sarifRegion{StartLine: v.Line, StartColumn: v.Column}
			}
			r.Locs = append(r.Locs, loc)
		}
		results = append(results, r)
	}

	if rep.Status == StatusFail {
		results = append(results, sarifResult{
			RuleID:  "quality-gate",
			Level:   "error",
			Message: sarifMessage{Text: Headline(rep)},
		})
	}

	doc := sarifDocument{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool:    sarifTool{Driver: sarifDriver{Name: "codegate", Version: version}},
			Results: results,
		}},
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return support.WriteFileAtomic(path, data)
}
