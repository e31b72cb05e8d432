// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workdir manages the transient working folder that holds downloaded
// page images between harvest and assembly.
//
// Reset empties the folder of its direct children. It is best-effort: one
// entry that cannot be removed is reported and the rest are still processed.
// Subdirectories are removed only when empty; a non-empty subdirectory is
// left in place and reported, not cleared recursively.
package workdir

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// EntryError records a direct child of the folder that could not be removed.
type EntryError struct {
	Path string
	Err  error
}

func (e EntryError) Error() string {
	return fmt.Sprintf("removing %s: %v", e.Path, e.Err)
}

func (e EntryError) Unwrap() error { return e.Err }

// ResetResult holds the outcome of a Reset.
type ResetResult struct {
	Removed []string
	Failed  []EntryError

	// Ignored lists entries that are neither files, symlinks, nor directories.
	Ignored []string
}

// HasFailures reports whether any entry could not be removed.
func (r ResetResult) HasFailures() bool {
	return len(r.Failed) > 0
}

// Reset removes the direct children of dir. A missing directory is not an
// error; Reset returns an empty result and the harvest stage creates the
// directory on demand. Removal failures are written to w and collected in
// the result but do not abort the reset.
func Reset(dir string, w io.Writer) (ResetResult, error) {
	var result ResetResult

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return result, fmt.Errorf("reading working folder %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		mode := entry.Type()

		switch {
		case mode.IsRegular(), mode&os.ModeSymlink != 0, mode.IsDir():
			// os.Remove uses rmdir for directories, which refuses non-empty ones.
			if err := os.Remove(path); err != nil {
				fmt.Fprintf(w, "warning: could not remove %s: %v\n", path, err)
				result.Failed = append(result.Failed, EntryError{Path: path, Err: err})
				continue
			}
			result.Removed = append(result.Removed, path)
		default:
			result.Ignored = append(result.Ignored, path)
		}
	}

	return result, nil
}
