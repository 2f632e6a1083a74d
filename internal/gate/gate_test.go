package gate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openmeethq/codegate/internal/report"
	"github.com/openmeethq/codegate/internal/rules"
)

type fakeDetector struct {
	id     string
	status Status
	panics bool
}

func (f fakeDetector) ID() string          { return f.id }
func (f fakeDetector) Description() string { return "fake " + f.id }
func (f fakeDetector) Check(string) Verdict {
	if f.panics {
		panic("boom")
	}
	return Verdict{Status: f.status}
}

// --- orchestration ---

func TestRunMergesVerdicts(t *testing.T) {
	cases := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"all pass", []Status{StatusPass, StatusPass}, StatusPass},
		{"warn dominates pass", []Status{StatusPass, StatusWarn}, StatusWarn},
		{"fail dominates warn", []Status{StatusWarn, StatusFail, StatusPass}, StatusFail},
	}
	for _, tc := range cases {
		var detectors []Detector
		for i, s := range tc.statuses {
			detectors = append(detectors, fakeDetector{id: "d" + string(rune('0'+i)), status: s})
		}
		out := Run(t.TempDir(), false, detectors...)
		if out.Status != tc.want {
			t.Errorf("%s: status = %s, want %s", tc.name, out.Status, tc.want)
		}
		if len(out.Verdicts) != len(tc.statuses) {
			t.Errorf("%s: every detector must record a verdict", tc.name)
		}
	}
}

func TestRunRecoversPanickingDetector(t *testing.T) {
	out := Run(t.TempDir(), false,
		fakeDetector{id: "ok", status: StatusPass},
		fakeDetector{id: "broken", panics: true},
		fakeDetector{id: "after", status: StatusPass},
	)
	if out.Status != StatusFail {
		t.Fatalf("panicking detector must fail the gate, got %s", out.Status)
	}
	if len(out.Verdicts) != 3 {
		t.Fatalf("detectors after a panic must still run: %+v", out.Verdicts)
	}
	broken := out.Verdicts[1]
	if broken.ID != "broken" || broken.Status != StatusFail {
		t.Fatalf("panic verdict wrong: %+v", broken)
	}
	if len(broken.Details) != 1 || !strings.Contains(broken.Details[0], "panicked") {
		t.Fatalf("panic must be the sole detail: %+v", broken.Details)
	}
}

func TestSoftModeDowngradesFail(t *testing.T) {
	out := Run(t.TempDir(), true, fakeDetector{id: "d", status: StatusFail})
	if out.Status != StatusWarn || !out.Downgraded || !out.Soft {
		t.Fatalf("soft fail must downgrade to warn: %+v", out)
	}
	if out.ExitCode() != 0 {
		t.Fatal("downgraded outcome must not block")
	}
	if out.Verdicts[0].Status != StatusFail {
		t.Fatal("the verdict itself must keep the real status")
	}
}

func TestExitCode(t *testing.T) {
	if (&Outcome{Status: StatusFail}).ExitCode() != 1 {
		t.Fatal("fail must exit 1")
	}
	if (&Outcome{Status: StatusWarn}).ExitCode() != 0 {
		t.Fatal("warn must exit 0")
	}
	if (&Outcome{Status: StatusPass}).ExitCode() != 0 {
		t.Fatal("pass must exit 0")
	}
}

func TestWriteOutcome(t *testing.T) {
	workspace := t.TempDir()
	out := Run(workspace, false,
		fakeDetector{id: "a", status: StatusPass},
		fakeDetector{id: "b", status: StatusFail},
	)
	if err := WriteOutcome(workspace, ".codegate", out); err != nil {
		t.Fatal(err)
	}

	jsonData, err := os.ReadFile(filepath.Join(workspace, ".codegate", "gate.json"))
	if err != nil {
		t.Fatal(err)
	}
	var loaded Outcome
	if err := json.Unmarshal(jsonData, &loaded); err != nil {
		t.Fatal(err)
	}
	if loaded.Status != StatusFail || len(loaded.Verdicts) != 2 {
		t.Fatalf("gate.json wrong: %+v", loaded)
	}

	txt, err := os.ReadFile(filepath.Join(workspace, ".codegate", "gate.txt"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(txt)), "\n")
	if lines[0] != "FAIL" {
		t.Fatalf("gate.txt must lead with the status, got %q", lines[0])
	}
	if len(lines) != 3 {
		t.Fatalf("gate.txt must list every verdict: %q", lines)
	}
}

// --- detectors ---

func TestViolationGateMapsReportStatus(t *testing.T) {
	mk := func(sev rules.Severity) *report.ScanReport {
		return report.Build([]rules.Violation{{
			File: "a.ts", Line: 1, RuleID: "R", Severity: sev, Message: "m",
		}}, 1)
	}
	cases := []struct {
		rep  *report.ScanReport
		want Status
	}{
		{mk(rules.SeverityBlocker), StatusFail},
		{mk(rules.SeverityMajor), StatusWarn},
		{mk(rules.SeverityMinor), StatusPass},
		{report.Build(nil, 0), StatusPass},
		{nil, StatusFail},
	}
	for i, tc := range cases {
		got := ViolationGate{Report: tc.rep}.Check("")
		if got.Status != tc.want {
			t.Errorf("case %d: status = %s, want %s", i, got.Status, tc.want)
		}
	}
}

func TestReportIntegrity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")

	v := ReportIntegrity{Path: path}.Check("")
	if v.Status != StatusFail || !strings.Contains(strings.Join(v.Details, " "), "codegate scan") {
		t.Fatalf("missing report must fail with guidance: %+v", v)
	}

	if err := report.Build(nil, 1).Write(path); err != nil {
		t.Fatal(err)
	}
	v = ReportIntegrity{Path: path}.Check("")
	if v.Status != StatusPass {
		t.Fatalf("valid report must pass: %+v", v)
	}
}

func TestAllowlistCheckDegradesNotFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "allowlist.yml")

	if v := (AllowlistCheck{Path: path}).Check(""); v.Status != StatusPass {
		t.Fatalf("missing allowlist is fine: %+v", v)
	}

	if err := os.WriteFile(path, []byte("skipPaths: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if v := (AllowlistCheck{Path: path}).Check(""); v.Status != StatusWarn {
		t.Fatalf("malformed allowlist must warn, not fail: %+v", v)
	}
}

func TestWorkspaceCheck(t *testing.T) {
	ws := t.TempDir()
	if v := (WorkspaceCheck{OutputDir: ".codegate"}).Check(ws); v.Status != StatusPass {
		t.Fatalf("usable workspace must pass: %+v", v)
	}
	if v := (WorkspaceCheck{OutputDir: ".codegate"}).Check(filepath.Join(ws, "nope")); v.Status != StatusFail {
		t.Fatalf("missing workspace must fail: %+v", v)
	}
}

func TestCatalogCheck(t *testing.T) {
	if v := (CatalogCheck{Catalog: rules.DefaultCatalog()}).Check(""); v.Status != StatusPass {
		t.Fatalf("default catalog must pass: %+v", v)
	}
	bad := rules.Catalog{
		rules.DefaultCatalog()[0],
		rules.DefaultCatalog()[0],
	}
	if v := (CatalogCheck{Catalog: bad}).Check(""); v.Status != StatusFail {
		t.Fatalf("duplicate rule ids must fail: %+v", v)
	}
}
