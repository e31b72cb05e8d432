// Package harvest extracts page images from HTML markup, downloads them into
// the working folder, and returns them ordered by page number.
//
// Per-item problems (no image source, bad page label, failed download) skip
// the item and harvesting continues. A structural problem with the markup
// aborts the harvest and yields an empty result.
package harvest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/pagebinder/internal/httputil"
	"github.com/pdiddy/pagebinder/pkg/types"
)

// Result holds the outcome of a harvest.
type Result struct {
	// Saved lists downloaded images in ascending page order.
	Saved []types.SavedImage

	// Skipped lists items dropped before download (no source, bad label,
	// duplicate page).
	Skipped []ItemError

	// Failed lists items whose download failed.
	Failed []ItemError
}

// Paths returns the saved file paths in ascending page order.
func (r Result) Paths() []string {
	return types.ImagePaths(r.Saved)
}

// Total returns the number of list items accounted for.
func (r Result) Total() int {
	return len(r.Saved) + len(r.Skipped) + len(r.Failed)
}

// HasFailures reports whether any download failed.
func (r Result) HasFailures() bool {
	return len(r.Failed) > 0
}

// FileName returns the name used for a page's image in the working folder.
func FileName(page int, ext string) string {
	return strconv.Itoa(page) + ext
}

// Harvest parses html, downloads every usable page image into cfg.Folder,
// and returns the saved images sorted by page number. Status lines are
// written to w. The returned error is non-nil only when the whole harvest is
// aborted (malformed markup, unusable folder, cancelled context); the
// Result is empty in that case.
func Harvest(ctx context.Context, client *http.Client, html io.Reader, cfg types.HarvestConfig, w io.Writer) (Result, error) {
	cfg = cfg.WithDefaults()

	items, skipped, err := parseItems(html, cfg.BaseURL)
	if err != nil {
		fmt.Fprintf(w, "harvest aborted: %v\n", err)
		return Result{}, err
	}
	items, dupes := dedupePages(items)
	skipped = append(skipped, dupes...)
	for _, s := range skipped {
		fmt.Fprintf(w, "skipped: %v\n", s)
	}

	if err := os.MkdirAll(cfg.Folder, 0o755); err != nil {
		err = fmt.Errorf("creating working folder %s: %w", cfg.Folder, err)
		fmt.Fprintf(w, "harvest aborted: %v\n", err)
		return Result{}, err
	}

	out := &lockedWriter{w: w}
	bar := newProgressBar(cfg.Progress, len(items))

	// One slot per item keeps results keyed by document position regardless
	// of completion order.
	saved := make([]*types.SavedImage, len(items))
	failed := make([]*ItemError, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i, it := range items {
		i, it := i, it
		g.Go(func() error {
			defer bar.Add(1)
			img, err := savePage(gctx, client, it.PageImage, cfg, out)
			if err != nil {
				out.printf("failed:  page %d (%v)\n", it.Page, err)
				failed[i] = &ItemError{
					Item:      it.item,
					Label:     it.label,
					SourceURL: it.SourceURL,
					Err:       fmt.Errorf("%w: %w", ErrFetchFailed, err),
				}
				return nil
			}
			saved[i] = &img
			return nil
		})
	}
	g.Wait()
	bar.Finish()

	if err := ctx.Err(); err != nil {
		fmt.Fprintf(w, "harvest aborted: %v\n", err)
		return Result{}, err
	}

	result := Result{Skipped: skipped}
	for i := range items {
		switch {
		case saved[i] != nil:
			result.Saved = append(result.Saved, *saved[i])
		case failed[i] != nil:
			result.Failed = append(result.Failed, *failed[i])
		}
	}
	types.SortByPage(result.Saved)

	fmt.Fprintf(w, "\nHarvest summary: %d saved, %d skipped, %d failed (total: %d)\n",
		len(result.Saved), len(result.Skipped), len(result.Failed), result.Total())
	return result, nil
}

// savePage downloads one page image to <folder>/<page><ext>, replacing any
// file of the same name.
func savePage(ctx context.Context, client *http.Client, p types.PageImage, cfg types.HarvestConfig, out *lockedWriter) (types.SavedImage, error) {
	dest := filepath.Join(cfg.Folder, FileName(p.Page, cfg.Extension))
	out.printf("downloading: page %d (%s)\n", p.Page, p.SourceURL)

	dl, err := httputil.DownloadFile(ctx, client, p.SourceURL, dest, cfg.UserAgent)
	if err != nil {
		return types.SavedImage{}, err
	}
	out.printf("saved: %s\n", dest)

	return types.SavedImage{
		Page:      p.Page,
		SourceURL: p.SourceURL,
		Path:      dl.Path,
		Size:      dl.Size,
		SHA256:    dl.SHA256,
	}, nil
}

// NewClient returns an HTTP client for the harvest stage. A zero timeout
// leaves requests unbounded.
func NewClient(cfg types.HTTPConfig) *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}

func newProgressBar(enabled bool, n int) *progressbar.ProgressBar {
	if !enabled {
		return progressbar.DefaultSilent(int64(n))
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Downloading pages"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// lockedWriter serializes status lines written by concurrent downloads.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, format, args...)
}
