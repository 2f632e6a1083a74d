package cmd

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/openmeethq/codegate/internal/gate"
	"github.com/openmeethq/codegate/internal/report"
	"github.com/openmeethq/codegate/internal/rules"
)

// isTerminal checks if the file descriptor is a terminal
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func severityColor(sev rules.Severity) string {
	switch {
	case sev >= rules.SeverityCritical:
		return "\033[31m"
	case sev == rules.SeverityMajor:
		return "\033[33m"
	default:
		return "\033[36m"
	}
}

// printScanHUD prints a human-readable summary to stdout.
func printScanHUD(rep *report.ScanReport) {
	fmt.Println("+--------------------------------------------------+")
	fmt.Println("|                  CODEGATE SCAN                   |")
	fmt.Println("+--------------------------------------------------+")
	fmt.Printf("|  Status:   %-38s|\n", rep.Status)
	fmt.Printf("|  BLOCKER:  %-38d|\n", rep.Summary.Blocker)
	fmt.Printf("|  CRITICAL: %-38d|\n", rep.Summary.Critical)
	fmt.Printf("|  MAJOR:    %-38d|\n", rep.Summary.Major)
	fmt.Printf("|  MINOR:    %-38d|\n", rep.Summary.Minor)
	fmt.Printf("|  INFO:     %-38d|\n", rep.Summary.Info)
	fmt.Printf("|  Scanned:  %-38d|\n", rep.Files.Scanned)
	fmt.Println("+--------------------------------------------------+")
	printBoxedLine(report.Headline(rep))
	fmt.Println("+--------------------------------------------------+")

	top := rep.Top(cfg.Scan.ExcerptLimit)
	if len(top) == 0 {
		return
	}
	fmt.Println()
	colored := isTerminal(os.Stdout)
	for _, v := range top {
		sev := v.Severity.String()
		if colored {
			sev = severityColor(v.Severity) + sev + "\033[0m"
		}
		fmt.Printf("  %s %s:%d %s: %s\n", sev, v.File, v.Line, v.RuleID, v.Message)
	}
	if rep.Summary.Total > len(top) {
		fmt.Printf("  ... and %d more (see report.json)\n", rep.Summary.Total-len(top))
	}
}

// printVerifyHUD prints the gate outcome. rep is nil when no scan report
// could be loaded.
func printVerifyHUD(rep *report.ScanReport, out *gate.Outcome, certHash string) {
	fmt.Println("+--------------------------------------------------+")
	fmt.Println("|                 CODEGATE VERIFY                  |")
	fmt.Println("+--------------------------------------------------+")
	fmt.Printf("|  Status:   %-38s|\n", strings.ToUpper(string(out.Status)))
	if out.Downgraded {
		printBoxedLine("soft mode downgraded fail to warn")
	}
	for _, v := range out.Verdicts {
		printBoxedLine(fmt.Sprintf("%-4s %s", strings.ToUpper(string(v.Status)), v.ID))
	}
	fmt.Println("+--------------------------------------------------+")
	if rep != nil {
		printBoxedLine(report.Headline(rep))
	}
	if certHash != "" {
		printBoxedLine("certificate " + certHash[:12])
	}
	fmt.Println("+--------------------------------------------------+")
}

func printBoxedLine(s string) {
	// Wrap long lines
	if len(s) > 48 {
		fmt.Printf("|  %-48s|\n", s[:48])
		fmt.Printf("|  %-48s|\n", s[48:])
	} else {
		fmt.Printf("|  %-48s|\n", s)
	}
}
