// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workdir

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReset(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(t *testing.T) string
		wantRemoved int
		wantFailed  int
		wantLeft    []string
	}{
		{
			name: "removes files and empty subdirectory",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "a.png", "a")
				writeFile(t, dir, "b.png", "b")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
				return dir
			},
			wantRemoved: 3,
			wantLeft:    nil,
		},
		{
			name: "leaves non-empty subdirectory in place",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "1.png", "x")
				sub := filepath.Join(dir, "keep")
				require.NoError(t, os.Mkdir(sub, 0o755))
				writeFile(t, sub, "inner.png", "y")
				return dir
			},
			wantRemoved: 1,
			wantFailed:  1,
			wantLeft:    []string{"keep"},
		},
		{
			name: "missing directory is skipped",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
		},
		{
			name: "empty directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
		},
		{
			name: "removes symlink without touching target",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				target := filepath.Join(t.TempDir(), "target.png")
				require.NoError(t, os.WriteFile(target, []byte("t"), 0o644))
				require.NoError(t, os.Symlink(target, filepath.Join(dir, "link.png")))
				t.Cleanup(func() {
					_, err := os.Stat(target)
					assert.NoError(t, err, "symlink target should survive reset")
				})
				return dir
			},
			wantRemoved: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.setup(t)
			var buf bytes.Buffer

			got, err := Reset(dir, &buf)
			require.NoError(t, err)
			assert.Len(t, got.Removed, tt.wantRemoved)
			assert.Len(t, got.Failed, tt.wantFailed)
			assert.Equal(t, tt.wantFailed > 0, got.HasFailures())

			entries, err := os.ReadDir(dir)
			if os.IsNotExist(err) {
				assert.Empty(t, tt.wantLeft)
				return
			}
			require.NoError(t, err)
			var left []string
			for _, e := range entries {
				left = append(left, e.Name())
			}
			assert.Equal(t, tt.wantLeft, left)
		})
	}
}

func TestResetReportsFailures(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFile(t, sub, "page.png", "p")

	var buf bytes.Buffer
	got, err := Reset(dir, &buf)
	require.NoError(t, err)
	require.Len(t, got.Failed, 1)

	assert.Equal(t, sub, got.Failed[0].Path)
	assert.Error(t, got.Failed[0].Unwrap())
	assert.Contains(t, buf.String(), "could not remove")
	assert.Contains(t, got.Failed[0].Error(), "nested")

	// The nested file is untouched.
	_, err = os.Stat(filepath.Join(sub, "page.png"))
	assert.NoError(t, err)
}

func TestResetUnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	dir := filepath.Join(t.TempDir(), "locked")
	require.NoError(t, os.Mkdir(dir, 0o000))
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	_, err := Reset(dir, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading working folder")
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
