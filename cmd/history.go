package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openmeethq/codegate/internal/history"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent scan and verify runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistoryList()
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop history rows beyond the retention limits",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistoryPrune()
	},
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 10, "maximum rows to list")
	historyCmd.AddCommand(historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*history.Store, error) {
	if !cfg.History.Enabled {
		return nil, fmt.Errorf("history is disabled in the configuration")
	}
	return history.Open(wsPath(cfg.History.Path))
}

func runHistoryList() error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(flagHistoryLimit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tMODE\tSTATUS\tBLOCKER\tCRITICAL\tMAJOR\tMINOR\tINFO\tSCANNED\tCOMMIT")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			e.CreatedAtUtc, e.Mode, e.Status,
			e.Blocker, e.Critical, e.Major, e.Minor, e.Info,
			e.Scanned, e.CommitSHA)
	}
	return w.Flush()
}

func runHistoryPrune() error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	dropped, err := store.Prune(cfg.History.MaxRows, cfg.History.KeepDays)
	if err != nil {
		return err
	}
	fmt.Printf("pruned %d runs (keep %d rows, %d days)\n", dropped, cfg.History.MaxRows, cfg.History.KeepDays)
	return nil
}
