// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
//
// Every helper makes exactly one attempt. Callers decide whether a failure
// skips an item or aborts a stage; nothing here retries.
package httputil

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// StatusError reports a response whose status was not 200 OK.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// Download describes a body saved to disk.
type Download struct {
	Path   string
	Size   int64
	SHA256 string
}

// get issues a single GET and returns the response if its status is 200.
func get(ctx context.Context, client *http.Client, url, userAgent string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// Fetch retrieves url and returns the full response body.
func Fetch(ctx context.Context, client *http.Client, url, userAgent string) ([]byte, error) {
	resp, err := get(ctx, client, url, userAgent)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return data, nil
}

// DownloadFile fetches url to destPath using a temporary file in the same
// directory, renamed into place on success. An existing destPath is
// replaced; on failure it is left as it was.
func DownloadFile(ctx context.Context, client *http.Client, url, destPath, userAgent string) (Download, error) {
	resp, err := get(ctx, client, url, userAgent)
	if err != nil {
		return Download{}, err
	}
	defer resp.Body.Close()

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".download-*.tmp")
	if err != nil {
		return Download{}, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	h := sha256.New()
	n, copyErr := io.Copy(io.MultiWriter(tmpFile, h), resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return Download{}, fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return Download{}, fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return Download{}, fmt.Errorf("renaming temp file: %w", err)
	}

	return Download{
		Path:   destPath,
		Size:   n,
		SHA256: hex.EncodeToString(h.Sum(nil)),
	}, nil
}
