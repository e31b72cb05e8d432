package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pagebinder/internal/harvest"
	"github.com/pdiddy/pagebinder/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Reset the working folder, harvest page images, and assemble the PDF",
	Long: `Run performs every stage in order. The working folder is emptied,
each listed page image is downloaded into it, and the images are bound into
the output PDF in ascending page order.

Pages whose download fails are skipped. Markup that does not match the
expected list shape aborts the run before anything is assembled.`,
	Example: `  pagebinder run --html book.html
  pagebinder run --url https://example.com/viewer -o book.pdf -c 4 --progress`,
	RunE: runRun,
}

func init() {
	addHarvestFlags(runCmd)
	addFolderFlag(runCmd)
	addOutputFlag(runCmd)
	addLedgerFlag(runCmd)

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd); err != nil {
		return err
	}
	cfg := loadPipelineConfig()
	client := harvest.NewClient(cfg.Harvest.HTTPConfig)

	markup, source, err := loadMarkup(cmd, client, &cfg.Harvest)
	if err != nil {
		return err
	}

	report, err := pipeline.Run(cmd.Context(), client, bytes.NewReader(markup), source, cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if report.Harvest.HasFailures() {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d page(s) could not be downloaded\n", len(report.Harvest.Failed))
	}
	if report.RunID > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "recorded run %d in %s\n", report.RunID, cfg.LedgerPath)
	}
	return nil
}
