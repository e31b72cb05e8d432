package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pagebinder/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List runs recorded in the ledger",
	Long: `History lists earlier runs recorded by "pagebinder run --ledger <db>",
most recent first. With --run it lists the pages saved by that run.`,
	RunE: runHistory,
}

func init() {
	addLedgerFlag(historyCmd)
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list (0 for all)")
	historyCmd.Flags().Int64("run", 0, "list the pages of this run ID")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd); err != nil {
		return err
	}
	cfg := loadPipelineConfig()
	if cfg.LedgerPath == "" {
		return fmt.Errorf("no ledger configured; pass --ledger or set ledger in pagebinder.yaml")
	}

	store, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if runID, _ := cmd.Flags().GetInt64("run"); runID > 0 {
		pages, err := store.Pages(cmd.Context(), runID)
		if err != nil {
			return err
		}
		for _, p := range pages {
			fmt.Fprintf(out, "%5d  %-12.12s  %8d  %s\n", p.Page, p.SHA256, p.Size, p.SourceURL)
		}
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.Runs(cmd.Context(), limit)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Fprintf(out, "%4d  %s  %-9s  %3d saved  %3d skipped  %3d failed  %s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Status,
			r.Saved, r.Skipped, r.Failed, r.Source)
		if r.Error != "" {
			fmt.Fprintf(out, "      error: %s\n", r.Error)
		}
	}
	return nil
}
