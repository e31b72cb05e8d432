// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the three stages in order: reset the working
// folder, harvest page images from markup, and assemble them into a PDF.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/pdiddy/pagebinder/internal/assemble"
	"github.com/pdiddy/pagebinder/internal/harvest"
	"github.com/pdiddy/pagebinder/internal/ledger"
	"github.com/pdiddy/pagebinder/internal/workdir"
	"github.com/pdiddy/pagebinder/pkg/types"
)

// Report collects the outcome of every stage of a run.
type Report struct {
	Source     string
	StartedAt  time.Time
	FinishedAt time.Time

	Reset    workdir.ResetResult
	Harvest  harvest.Result
	Assembly assemble.Result

	// ManifestPath is the written manifest, empty if none was written.
	ManifestPath string

	// RunID is the ledger row for this run, zero when no ledger is configured.
	RunID int64
}

// Status summarizes the run for the ledger.
func (r Report) Status(err error) string {
	switch {
	case err != nil:
		return ledger.StatusFailed
	case r.Assembly.Written():
		return ledger.StatusAssembled
	default:
		return ledger.StatusEmpty
	}
}

// Run executes reset, harvest, and assembly against html. source names the
// markup for the manifest and ledger. A harvest abort stops the run before
// assembly; an empty harvest runs assembly, which writes nothing.
func Run(ctx context.Context, client *http.Client, html io.Reader, source string, cfg types.PipelineConfig, w io.Writer) (Report, error) {
	cfg = cfg.Normalize()
	report := Report{Source: source, StartedAt: time.Now()}

	err := run(ctx, client, html, cfg, &report, w)
	report.FinishedAt = time.Now()

	if cfg.LedgerPath != "" {
		id, lerr := record(ctx, cfg, report, err)
		if lerr != nil {
			fmt.Fprintf(w, "warning: could not record run in ledger: %v\n", lerr)
		}
		report.RunID = id
	}
	return report, err
}

func run(ctx context.Context, client *http.Client, html io.Reader, cfg types.PipelineConfig, report *Report, w io.Writer) error {
	fmt.Fprintf(w, "resetting: %s\n", cfg.WorkingFolder)
	reset, err := workdir.Reset(cfg.WorkingFolder, w)
	report.Reset = reset
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	result, err := harvest.Harvest(ctx, client, html, cfg.Harvest, w)
	report.Harvest = result
	if err != nil {
		return fmt.Errorf("harvest: %w", err)
	}

	if len(result.Saved) > 0 {
		path := filepath.Join(cfg.WorkingFolder, harvest.ManifestFile)
		if err := harvest.WriteManifest(result.Manifest(report.Source, cfg.WorkingFolder), path); err != nil {
			fmt.Fprintf(w, "warning: could not write manifest: %v\n", err)
		} else {
			report.ManifestPath = path
		}
	}

	assembled, err := assemble.Assemble(result.Paths(), cfg.Assembly, w)
	report.Assembly = assembled
	if err != nil {
		return fmt.Errorf("assemble: %w", err)
	}
	return nil
}

func record(ctx context.Context, cfg types.PipelineConfig, report Report, runErr error) (int64, error) {
	store, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	entry := ledger.Run{
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Source:     report.Source,
		Folder:     cfg.WorkingFolder,
		OutputPath: report.Assembly.OutputPath,
		Saved:      len(report.Harvest.Saved),
		Skipped:    len(report.Harvest.Skipped),
		Failed:     len(report.Harvest.Failed),
		Status:     report.Status(runErr),
	}
	if runErr != nil {
		entry.Error = runErr.Error()
	}
	// Record even when ctx was cancelled so an interrupted run is still listed.
	return store.Record(context.WithoutCancel(ctx), entry, report.Harvest.Saved)
}
