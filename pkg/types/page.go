// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "sort"

// PageImage is one list item parsed from the source markup: a page number
// and the locator of the image for that page.
type PageImage struct {
	// Page is the positive page number taken from the item's label.
	Page int `json:"page" yaml:"page"`

	// SourceURL is the image locator, resolved against the base URL if one is set.
	SourceURL string `json:"source_url" yaml:"source_url"`
}

// SavedImage is a PageImage that was downloaded and written to disk.
type SavedImage struct {
	Page      int    `json:"page" yaml:"page"`
	SourceURL string `json:"source_url" yaml:"source_url"`

	// Path is the local file holding the image bytes.
	Path string `json:"path" yaml:"path"`

	// Size is the number of bytes written.
	Size int64 `json:"size" yaml:"size"`

	// SHA256 is the hex digest of the image bytes.
	SHA256 string `json:"sha256" yaml:"sha256"`
}

// Manifest records the outcome of a harvest so a document can be assembled
// later without downloading again.
type Manifest struct {
	// Source names where the markup came from (a file path, URL, or "stdin").
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Folder is the working folder the images were saved to.
	Folder string `json:"folder" yaml:"folder"`

	// Pages lists saved images in ascending page order.
	Pages []SavedImage `json:"pages" yaml:"pages"`
}

// Paths returns the file paths of m's pages in manifest order.
func (m Manifest) Paths() []string {
	return ImagePaths(m.Pages)
}

// SortByPage orders images ascending by numeric page number. The sort is
// stable so equal pages keep their input order.
func SortByPage(images []SavedImage) {
	sort.SliceStable(images, func(i, j int) bool {
		return images[i].Page < images[j].Page
	})
}

// ImagePaths returns the Path of each image, preserving order.
func ImagePaths(images []SavedImage) []string {
	paths := make([]string, len(images))
	for i, img := range images {
		paths[i] = img.Path
	}
	return paths
}
