package report

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"os"
	"path/filepath"
	"testing"

	"github.com/openmeethq/codegate/internal/rules"
)

func mkViolation(file string, line int, rule string, sev rules.Severity) rules.Violation {
	return rules.Violation{
		File:     file,
		Line:     line,
		Column:   1,
		RuleID:   rule,
		Category: rules.CategoryDebug,
		Severity: sev,
		Message:  "found " + rule,
	}
}

// --- gate policy ---

func TestBuildStatusPolicy(t *testing.T) {
	cases := []struct {
		name       string
		severities []rules.Severity
		want       string
	}{
		{"empty", nil, StatusPass},
		{"info only", []rules.Severity{rules.SeverityInfo}, StatusPass},
		{"minor only", []rules.Severity{rules.SeverityMinor, rules.SeverityMinor}, StatusPass},
		{"major warns", []rules.Severity{rules.SeverityMajor}, StatusWarn},
		{"major plus minor warns", []rules.Severity{rules.SeverityMajor, rules.SeverityMinor}, StatusWarn},
		{"critical fails", []rules.Severity{rules.SeverityCritical}, StatusFail},
		{"blocker fails", []rules.Severity{rules.SeverityBlocker}, StatusFail},
		{"blocker beats major", []rules.Severity{rules.SeverityMajor, rules.SeverityBlocker}, StatusFail},
	}
	for _, tc := range cases {
		var violations []rules.Violation
		for i, sev := range tc.severities {
			violations = append(violations, mkViolation("a.ts", i+1, "R", sev))
		}
		rep := Build(violations, 10)
		if rep.Status != tc.want {
			t.Errorf("%s: status = %s, want %s", tc.name, rep.Status, tc.want)
		}
	}
}

// --- ordering ---

func TestBuildOrdersViolations(t *testing.T) {
	input := []rules.Violation{
		mkViolation("b.ts", 5, "DBG-001", rules.SeverityMinor),
		mkViolation("a.ts", 9, "MRK-001", rules.SeverityMajor),
		mkViolation("z.ts", 1, "SEC-001", rules.SeverityBlocker),
		mkViolation("a.ts", 2, "MRK-001", rules.SeverityMajor),
		mkViolation("a.ts", 2, "EMP-001", rules.SeverityCritical),
	}
	rep := Build(input, 5)

	got := make([]string, 0, len(rep.Violations))
	for _, v := range rep.Violations {
		got = append(got, v.RuleID)
	}
	want := []string{"SEC-001", "EMP-001", "MRK-001", "MRK-001", "DBG-001"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch at %d: got %v, want %v", i, got, want)
		}
	}
	if rep.Violations[2].Line != 2 || rep.Violations[3].Line != 9 {
		t.Fatalf("same-severity violations not ordered by location: %+v", rep.Violations[2:4])
	}
}

func TestBuildByteIdenticalAcrossInputOrder(t *testing.T) {
	forward := []rules.Violation{
		mkViolation("a.ts", 1, "DBG-001", rules.SeverityMinor),
		mkViolation("b.ts", 3, "SEC-001", rules.SeverityBlocker),
		mkViolation("a.ts", 7, "MRK-001", rules.SeverityMajor),
	}
	reversed := []rules.Violation{forward[2], forward[1], forward[0]}

	dir := t.TempDir()
	p1 := filepath.Join(dir, "one.json")
	p2 := filepath.Join(dir, "two.json")
	if err := Build(forward, 3).Write(p1); err != nil {
		t.Fatal(err)
	}
	if err := Build(reversed, 3).Write(p2); err != nil {
		t.Fatal(err)
	}

	b1, err := os.ReadFile(p1)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := os.ReadFile(p2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b1, b2) {
		t.Fatal("identical inputs must serialize to identical bytes")
	}
}

// --- summary ---

func TestBuildCountsDistinctFiles(t *testing.T) {
	rep := Build([]rules.Violation{
		mkViolation("a.ts", 1, "DBG-001", rules.SeverityMinor),
		mkViolation("a.ts", 2, "DBG-002", rules.SeverityMinor),
		mkViolation("b.ts", 1, "DBG-001", rules.SeverityMinor),
	}, 12)
	if rep.Files.Scanned != 12 || rep.Files.WithViolations != 2 {
		t.Fatalf("file stats wrong: %+v", rep.Files)
	}
	if rep.Summary.Total != 3 || rep.Summary.Minor != 3 {
		t.Fatalf("summary wrong: %+v", rep.Summary)
	}
}

func TestBuildEmptyViolationsSerializeAsArray(t *testing.T) {
	rep := Build(nil, 0)
	data, err := json.Marshal(rep)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"violations":[]`)) {
		t.Fatalf("violations must serialize as empty array: %s", data)
	}
}

// --- persistence ---

func TestWriteLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	orig := Build([]rules.Violation{
		mkViolation("a.ts", 1, "SEC-001", rules.SeverityBlocker),
	}, 4)
	if err := orig.Write(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Status != StatusFail || loaded.Summary.Blocker != 1 || loaded.Files.Scanned != 4 {
		t.Fatalf("round trip lost data: %+v", loaded)
	}
}

func TestLoadRejectsIncompleteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	if err := os.WriteFile(path, []byte(`{"violations":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("report without schemaVersion must be rejected")
	}
}

// --- sarif ---

func TestWriteSARIFLevelsAndGate(t *testing.T) {
	rep := Build([]rules.Violation{
		mkViolation("a.ts", 1, "SEC-001", rules.SeverityBlocker),
		mkViolation("a.ts", 2, "MRK-001", rules.SeverityMajor),
		mkViolation("a.ts", 3, "DBG-001", rules.SeverityMinor),
	}, 1)

	path := filepath.Join(t.TempDir(), "results.sarif")
	if err := WriteSARIF(path, rep, "1.2.3"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc sarifDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}

	if len(doc.Runs) != 1 || doc.Runs[0].Tool.Driver.Name != "codegate" {
		t.Fatalf("driver wrong: %+v", doc.Runs)
	}
	results := doc.Runs[0].Results
	if len(results) != 4 {
		t.Fatalf("want 3 findings plus gate, got %d", len(results))
	}
	levels := map[string]string{}
	for _, r := range results {
		levels[r.RuleID] = r.Level
	}
	if levels["SEC-001"] != "error" || levels["MRK-001"] != "warning" || levels["DBG-001"] != "note" {
		t.Fatalf("level mapping wrong: %v", levels)
	}
	if levels["quality-gate"] != "error" {
		t.Fatalf("failing gate must be appended as error, got %v", levels)
	}
	if results[0].Locs[0].PhysicalLocation.Region.StartLine != 1 {
		t.Fatalf("region missing: %+v", results[0])
	}
}

func TestWriteSARIFNoGateEntryOnPass(t *testing.T) {
	rep := Build(nil, 3)
	path := filepath.Join(t.TempDir(), "results.sarif")
	if err := WriteSARIF(path, rep, "dev"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc sarifDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Runs[0].Results) != 0 {
		t.Fatalf("passing report must not append gate result: %+v", doc.Runs[0].Results)
	}
}

// --- junit ---

func TestWriteJUnitFailureAccounting(t *testing.T) {
	rep := Build([]rules.Violation{
		mkViolation("a.ts", 1, "SEC-001", rules.SeverityBlocker),
		mkViolation("a.ts", 2, "EMP-001", rules.SeverityCritical),
		mkViolation("a.ts", 3, "MRK-001", rules.SeverityMajor),
		mkViolation("a.ts", 4, "DBG-001", rules.SeverityMinor),
	}, 1)

	path := filepath.Join(t.TempDir(), "junit.xml")
	if err := WriteJUnit(path, rep); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("<?xml")) {
		t.Fatal("junit output missing xml header")
	}
	var doc junitTestsuites
	if err := xml.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	suite := doc.Testsuites[0]
	if suite.Tests != 5 {
		t.Fatalf("want 4 cases plus gate, got %d", suite.Tests)
	}
	if suite.Failures != 3 {
		t.Fatalf("blocker, critical, and gate should fail: got %d failures", suite.Failures)
	}

	byName := map[string]junitTestcase{}
	for _, c := range suite.Cases {
		byName[c.Name] = c
	}
	if byName["MRK-001"].Skipped == nil {
		t.Fatal("major violation should be a skip, not a failure")
	}
	if byName["DBG-001"].Failure != nil || byName["DBG-001"].Skipped != nil {
		t.Fatal("minor violation should be a plain passing case")
	}
	if byName["quality-gate"].Failure == nil {
		t.Fatal("failing report must fail the gate case")
	}
}

func TestWriteJUnitPassingGate(t *testing.T) {
	rep := Build([]rules.Violation{
		mkViolation("a.ts", 1, "DBG-001", rules.SeverityMinor),
	}, 1)
	path := filepath.Join(t.TempDir(), "junit.xml")
	if err := WriteJUnit(path, rep); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc junitTestsuites
	if err := xml.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Testsuites[0].Failures != 0 {
		t.Fatalf("passing report must not record failures: %+v", doc.Testsuites[0])
	}
}
