// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assemble binds an ordered list of page images into a single
// multi-page PDF. Page i of the document is image i of the input.
//
// Images are normalized to opaque RGB before rendering so every page shares
// one color mode. The document is rendered in memory, its page count is
// checked, and only then is it written beside the output path and renamed
// into place. A failure at any step leaves the previous output untouched.
package assemble

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/pagebinder/pkg/types"
)

// Renderer turns normalized page images into a PDF. The fpdf backend is the
// default; tests substitute their own.
type Renderer interface {
	// Render writes a document with one page per image, in order.
	Render(w io.Writer, pages []*image.RGBA) error
}

// Result holds the outcome of an assembly.
type Result struct {
	// OutputPath is the written document, empty when nothing was written.
	OutputPath string

	// Pages is the number of pages in the written document.
	Pages int

	// Size is the document size in bytes.
	Size int64
}

// Written reports whether a document was produced.
func (r Result) Written() bool {
	return r.OutputPath != ""
}

// Assemble renders the images at paths into cfg.OutputPath using the fpdf
// backend. An empty paths list is reported on w and produces no file and no
// error.
func Assemble(paths []string, cfg types.AssemblyConfig, w io.Writer) (Result, error) {
	return AssembleWith(NewFPDFRenderer(cfg), paths, cfg, w)
}

// AssembleWith is Assemble with an explicit renderer.
func AssembleWith(r Renderer, paths []string, cfg types.AssemblyConfig, w io.Writer) (Result, error) {
	if cfg.OutputPath == "" {
		cfg.OutputPath = types.DefaultOutputPath
	}
	if len(paths) == 0 {
		fmt.Fprintln(w, "no images to assemble; nothing written")
		return Result{}, nil
	}

	pages := make([]*image.RGBA, 0, len(paths))
	for _, p := range paths {
		img, err := LoadImage(p)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", p, err)
			return Result{}, fmt.Errorf("loading page %d: %w", len(pages)+1, err)
		}
		pages = append(pages, img)
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, pages); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", cfg.OutputPath, err)
		return Result{}, fmt.Errorf("rendering document: %w", err)
	}

	if err := verifyPageCount(buf.Bytes(), len(pages)); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", cfg.OutputPath, err)
		return Result{}, err
	}

	if err := writeAtomic(cfg.OutputPath, buf.Bytes()); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", cfg.OutputPath, err)
		return Result{}, err
	}

	fmt.Fprintf(w, "assembled: %s (%d pages)\n", cfg.OutputPath, len(pages))
	return Result{
		OutputPath: cfg.OutputPath,
		Pages:      len(pages),
		Size:       int64(buf.Len()),
	}, nil
}

// writeAtomic writes data to a temporary file next to path and renames it
// over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".assemble-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing document: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
