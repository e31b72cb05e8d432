// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pagebinder/pkg/types"
)

// ManifestFile is the manifest's name inside the working folder.
const ManifestFile = "pages.yaml"

// Manifest builds the manifest for a harvest result.
func (r Result) Manifest(source, folder string) types.Manifest {
	return types.Manifest{
		Source: source,
		Folder: folder,
		Pages:  r.Saved,
	}
}

// WriteManifest writes m as YAML to path.
func WriteManifest(m types.Manifest, path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadManifest reads a manifest from path. Pages are re-sorted by page
// number so a hand-edited manifest still assembles in order.
func ReadManifest(path string) (types.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Manifest{}, err
	}
	var m types.Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return types.Manifest{}, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	types.SortByPage(m.Pages)
	return m, nil
}
