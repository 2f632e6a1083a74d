package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/openmeethq/codegate/internal/gate"
	"github.com/openmeethq/codegate/internal/rules"
	"github.com/openmeethq/codegate/internal/support"
)

type doctorReport struct {
	GeneratedAtUtc string         `json:"generatedAtUtc"`
	RepoRoot       string         `json:"repoRoot"`
	Status         string         `json:"status"`
	Reasons        []string       `json:"reasons,omitempty"`
	Checks         []gate.Verdict `json:"checks"`
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check workspace readiness without scanning",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDoctor()
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// buildDoctorReport runs the environment detectors. Warn verdicts degrade
// to reasons only; fail verdicts flip the overall status.
func buildDoctorReport() doctorReport {
	ws := cfg.Paths.WorkspaceRoot
	out := gate.Run(ws, false,
		gate.WorkspaceCheck{OutputDir: cfg.Paths.OutputDir},
		gate.CatalogCheck{Catalog: rules.DefaultCatalog()},
		gate.AllowlistCheck{Path: wsPath(cfg.Scan.AllowlistPath)},
		gate.GitCheck{},
	)

	status := "OK"
	reasons := []string{}
	for _, v := range out.Verdicts {
		if v.Status == gate.StatusPass {
			continue
		}
		if v.Status == gate.StatusFail {
			status = "DEGRADED"
		}
		reasons = append(reasons, fmt.Sprintf("%s: %s", v.ID, strings.Join(v.Details, "; ")))
	}

	return doctorReport{
		GeneratedAtUtc: time.Now().UTC().Format(time.RFC3339),
		RepoRoot:       ws,
		Status:         status,
		Reasons:        reasons,
		Checks:         out.Verdicts,
	}
}

func runDoctor() error {
	rep := buildDoctorReport()
	if err := support.WriteJSONAtomic(outPath("doctor.json"), rep); err != nil {
		return fmt.Errorf("cannot write doctor report: %w", err)
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	if rep.Status != "OK" {
		exitWith(1)
	}
	return nil
}
