package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openmeethq/codegate/internal/rules"
)

var flagRulesFormat string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the rule catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRules()
	},
}

func init() {
	rulesCmd.Flags().StringVar(&flagRulesFormat, "format", "table", "output format: table or json")
	rootCmd.AddCommand(rulesCmd)
}

func runRules() error {
	catalog := rules.DefaultCatalog()

	if flagRulesFormat == "json" {
		type ruleInfo struct {
			ID       string `json:"id"`
			Category string `json:"category"`
			Severity string `json:"severity"`
			Where    string `json:"where"`
			Tests    bool   `json:"appliesToTestFiles"`
			Pattern  string `json:"pattern"`
			Message  string `json:"message"`
		}
		infos := make([]ruleInfo, 0, len(catalog))
		for _, r := range catalog {
			infos = append(infos, ruleInfo{
				ID:       r.ID,
				Category: string(r.Category),
				Severity: r.Severity.String(),
				Where:    whereLabel(r.Where),
				Tests:    r.AppliesToTestFiles,
				Pattern:  r.Pattern.String(),
				Message:  r.Message,
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSEVERITY\tWHERE\tTESTS\tCATEGORY\tPATTERN")
	for _, r := range catalog {
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\t%s\n",
			r.ID, r.Severity, whereLabel(r.Where), r.AppliesToTestFiles, r.Category, r.Pattern)
	}
	return w.Flush()
}

func whereLabel(w rules.Where) string {
	if w == rules.MatchComment {
		return "comment"
	}
	return "code"
}
