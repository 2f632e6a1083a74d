// Package gate decides whether a workspace may ship. Detectors each return
// one verdict; the orchestrator merges them and survives any single
// detector's failure, so a broken check reads as a failing check rather
// than a crashed run.
package gate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/openmeethq/codegate/internal/logging"
	"github.com/openmeethq/codegate/internal/support"
)

type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Verdict is one detector's conclusion. Details are ordered; a recovered
// panic carries the error text as the sole detail.
type Verdict struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Status      Status   `json:"status"`
	Details     []string `json:"details,omitempty"`
}

// Detector checks one shippability concern against the workspace.
type Detector interface {
	ID() string
	Description() string
	Check(workspace string) Verdict
}

// Outcome is the merged gate decision.
type Outcome struct {
	Status     Status    `json:"status"`
	Soft       bool      `json:"soft,omitempty"`
	Downgraded bool      `json:"downgraded,omitempty"`
	Verdicts   []Verdict `json:"verdicts"`
}

// SoftFromEnv reports whether advisory mode is requested. Soft runs record
// failures but never block.
func SoftFromEnv() bool {
	return os.Getenv("CODEGATE_SOFT") == "1"
}

// Run executes detectors in order and merges their verdicts. Any fail makes
// the outcome fail unless soft mode downgrades it to warn.
func Run(workspace string, soft bool, detectors ...Detector) *Outcome {
	out := &Outcome{Status: StatusPass, Soft: soft, Verdicts: []Verdict{}}
	for _, d := range detectors {
		v := runDetector(workspace, d)
		out.Verdicts = append(out.Verdicts, v)
		switch v.Status {
		case StatusFail:
			out.Status = StatusFail
		case StatusWarn:
			if out.Status == StatusPass {
				out.Status = StatusWarn
			}
		}
	}
	if soft && out.Status == StatusFail {
		out.Status = StatusWarn
		out.Downgraded = true
	}
	return out
}

func runDetector(workspace string, d Detector) (v Verdict) {
	defer func() {
		if r := recover(); r != nil {
			logging.Log.Errorw("detector panicked", "detector", d.ID(), "panic", r)
			v = Verdict{
				ID:          d.ID(),
				Description: d.Description(),
				Status:      StatusFail,
				Details:     []string{fmt.Sprintf("detector panicked: %v", r)},
			}
		}
	}()
	v = d.Check(workspace)
	if v.ID == "" {
		v.ID = d.ID()
	}
	if v.Description == "" {
		v.Description = d.Description()
	}
	return v
}

// ExitCode maps the outcome to a process exit code. Warn does not block.
func (o *Outcome) ExitCode() int {
	if o.Status == StatusFail {
		return 1
	}
	return 0
}

// WriteOutcome persists gate.json and the plain-text gate.txt used by
// shell pipelines.
func WriteOutcome(workspace, outDir string, o *Outcome) error {
	dir := filepath.Join(workspace, outDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := support.WriteJSONAtomic(filepath.Join(dir, "gate.json"), o); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(strings.ToUpper(string(o.Status)))
	b.WriteString("\n")
	if o.Downgraded {
		b.WriteString("soft mode downgraded fail to warn\n")
	}
	for _, v := range o.Verdicts {
		if len(v.Details) > 0 {
			fmt.Fprintf(&b, "%-4s %s: %s\n", v.Status, v.ID, strings.Join(v.Details, "; "))
		} else {
			fmt.Fprintf(&b, "%-4s %s\n", v.Status, v.ID)
		}
	}
	return support.WriteFileAtomic(filepath.Join(dir, "gate.txt"), []byte(b.String()))
}
