package cmd

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openmeethq/codegate/internal/gate"
	"github.com/openmeethq/codegate/internal/logging"
	"github.com/openmeethq/codegate/internal/report"
	"github.com/openmeethq/codegate/internal/rules"
	"github.com/openmeethq/codegate/internal/support"
)

var flagSoft bool

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Evaluate the quality gate against the latest scan report",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVerify()
	},
}

func init() {
	verifyCmd.Flags().BoolVar(&flagSoft, "soft", false, "downgrade a fail verdict to warn")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify() error {
	ws := cfg.Paths.WorkspaceRoot
	if err := ensureOutDir(); err != nil {
		return fmt.Errorf("cannot create output dir: %w", err)
	}

	reportPath := outPath("report.json")
	rep, err := report.Load(reportPath)
	if err != nil {
		// The integrity detector reports the details.
		rep = nil
	}

	soft := flagSoft || gate.SoftFromEnv()
	out := gate.Run(ws, soft,
		gate.ReportIntegrity{Path: reportPath},
		gate.ViolationGate{Report: rep},
		gate.AllowlistCheck{Path: wsPath(cfg.Scan.AllowlistPath)},
		gate.CatalogCheck{Catalog: rules.DefaultCatalog()},
	)

	if err := gate.WriteOutcome(ws, cfg.Paths.OutputDir, out); err != nil {
		return fmt.Errorf("cannot write gate outcome: %w", err)
	}

	if rep != nil {
		if cfg.Reports.SARIF.Enabled {
			if err := report.WriteSARIF(wsPath(cfg.Reports.SARIF.Path), rep, Version); err != nil {
				logging.Log.Warnw("sarif not written", "error", err)
			}
		}
		if cfg.Reports.JUnit.Enabled {
			if err := report.WriteJUnit(wsPath(cfg.Reports.JUnit.Path), rep); err != nil {
				logging.Log.Warnw("junit not written", "error", err)
			}
		}
	}

	certHash, verified, err := generateCertificate(ws, rep, out)
	if err != nil {
		logging.Log.Warnw("certificate not written", "error", err)
	} else {
		logging.Log.Infow("certificate written", "hash", certHash, "signature_verified", verified)
	}

	entry := support.AuditEntry{
		Mode:           "verify",
		Status:         strings.ToUpper(string(out.Status)),
		Soft:           soft,
		CertificateSHA: certHash,
	}
	if rep != nil {
		entry.Blocker = rep.Summary.Blocker
		entry.Critical = rep.Summary.Critical
		entry.Major = rep.Summary.Major
		entry.Minor = rep.Summary.Minor
		entry.Info = rep.Summary.Info
		entry.Scanned = rep.Files.Scanned
		entry.Result = report.Headline(rep)
	}
	if err := support.AppendAudit(ws, cfg.Paths.OutputDir, entry); err != nil {
		logging.Log.Warnw("audit append failed", "error", err)
	}

	if rep != nil {
		recordHistory("verify", strings.ToUpper(string(out.Status)), rep)
	}

	printVerifyHUD(rep, out, certHash)
	exitWith(out.ExitCode())
	return nil
}

func generateCertificate(workspace string, rep *report.ScanReport, out *gate.Outcome) (string, bool, error) {
	cert := support.NewCertificate("verify")
	cert.Pass = out.Status != gate.StatusFail
	cert.Status = strings.ToUpper(string(out.Status))
	if rep != nil {
		cert.Reason = report.Headline(rep)
		cert.Blocker = rep.Summary.Blocker
		cert.Critical = rep.Summary.Critical
		cert.Major = rep.Summary.Major
		cert.Minor = rep.Summary.Minor
		cert.Info = rep.Summary.Info
		cert.Scanned = rep.Files.Scanned
	} else {
		cert.Reason = "no scan report loaded"
	}
	cert.EvidenceHashes = collectEvidenceHashes()

	priv, err := support.LoadSigningKey(workspace, cfg.Paths.OutputDir)
	if err != nil {
		cert.Signature = ""
		cert.SignatureMethod = ""
	} else if err := support.SignCertificate(&cert, priv); err != nil {
		return "", false, err
	}

	certPath := outPath("certificate.json")
	if err := support.WriteJSONAtomic(certPath, cert); err != nil {
		return "", false, err
	}

	verified := false
	if len(priv) > 0 {
		ok, err := support.VerifyCertificate(&cert, priv.Public().(ed25519.PublicKey))
		verified = err == nil && ok
	}

	hash, _ := support.HashFile(certPath)
	return hash, verified, nil
}

func collectEvidenceHashes() map[string]string {
	candidates := []string{
		"report.json",
		"report.html",
		"results.sarif",
		"junit.xml",
		"gate.json",
	}
	hashes := map[string]string{}
	for _, name := range candidates {
		path := outPath(name)
		if _, err := os.Stat(path); err == nil {
			if h, err := support.HashFile(path); err == nil {
				key := filepath.ToSlash(filepath.Join(cfg.Paths.OutputDir, name))
				hashes[key] = h
			}
		}
	}
	return hashes
}
