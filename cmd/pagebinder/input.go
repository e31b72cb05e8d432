package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pagebinder/internal/httputil"
	"github.com/pdiddy/pagebinder/pkg/types"
)

// loadMarkup reads the HTML named by --html or fetched from --url. It
// returns the markup and a name for it. When the markup came from a URL and
// no base URL is configured, the page URL becomes the base for relative
// image sources.
func loadMarkup(cmd *cobra.Command, client *http.Client, cfg *types.HarvestConfig) ([]byte, string, error) {
	htmlPath, _ := cmd.Flags().GetString("html")
	pageURL, _ := cmd.Flags().GetString("url")

	switch {
	case htmlPath != "" && pageURL != "":
		return nil, "", fmt.Errorf("use either --html or --url, not both")
	case pageURL != "":
		data, err := httputil.Fetch(cmd.Context(), client, pageURL, cfg.UserAgent)
		if err != nil {
			return nil, "", fmt.Errorf("fetching %s: %w", pageURL, err)
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = pageURL
		}
		return data, pageURL, nil
	case htmlPath == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, "", fmt.Errorf("reading stdin: %w", err)
		}
		return data, "stdin", nil
	case htmlPath != "":
		data, err := os.ReadFile(htmlPath)
		if err != nil {
			return nil, "", fmt.Errorf("reading %s: %w", htmlPath, err)
		}
		return data, htmlPath, nil
	default:
		return nil, "", fmt.Errorf("provide the page list with --html <file> or --url <page>")
	}
}
