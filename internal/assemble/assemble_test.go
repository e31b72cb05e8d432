// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assemble

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/pagebinder/pkg/types"
)

// fakeRenderer writes canned bytes or returns an error.
type fakeRenderer struct {
	output string
	err    error
	calls  int
}

func (f *fakeRenderer) Render(w io.Writer, pages []*image.RGBA) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, f.output)
	return err
}

// writePNG writes a w×h image with a translucent top-left pixel.
func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 5), B: 90, A: 255})
		}
	}
	img.Set(0, 0, color.NRGBA{R: 0, G: 0, B: 0, A: 0})
	return writeImage(t, dir, name, func(f *os.File) error { return png.Encode(f, img) })
}

func writeGrayJPEG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	return writeImage(t, dir, name, func(f *os.File) error { return jpeg.Encode(f, img, nil) })
}

func writePalettedPNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	pal := color.Palette{color.Black, color.White, color.RGBA{R: 200, A: 255}}
	img := image.NewPaletted(image.Rect(0, 0, w, h), pal)
	for i := range img.Pix {
		img.Pix[i] = uint8(i % len(pal))
	}
	return writeImage(t, dir, name, func(f *os.File) error { return png.Encode(f, img) })
}

func writeImage(t *testing.T, dir, name string, encode func(*os.File) error) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := encode(f); err != nil {
		f.Close()
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func threePages(t *testing.T) (dir string, paths []string) {
	t.Helper()
	dir = t.TempDir()
	paths = []string{
		writePNG(t, dir, "1.png", 20, 30),
		writeGrayJPEG(t, dir, "2.png", 40, 25),
		writePalettedPNG(t, dir, "3.png", 15, 15),
	}
	return dir, paths
}

func TestAssembleEmptyWritesNothing(t *testing.T) {
	out := filepath.Join(t.TempDir(), "output.pdf")
	var log bytes.Buffer

	result, err := Assemble(nil, types.AssemblyConfig{OutputPath: out}, &log)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if result.Written() {
		t.Errorf("result = %+v, want nothing written", result)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("empty assembly should not create the output file")
	}
	if !strings.Contains(log.String(), "no images") {
		t.Errorf("log = %q, want a no-images notice", log.String())
	}
}

func TestAssembleThreePagesInOrder(t *testing.T) {
	dir, paths := threePages(t)
	out := filepath.Join(dir, "book.pdf")
	var log bytes.Buffer

	result, err := Assemble(paths, types.AssemblyConfig{OutputPath: out, Title: "Test Book"}, &log)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if result.Pages != 3 || result.OutputPath != out {
		t.Errorf("result = %+v, want 3 pages at %s", result, out)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if int64(len(data)) != result.Size {
		t.Errorf("Size = %d, file has %d bytes", result.Size, len(data))
	}

	n, err := PageCount(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("PageCount: %v", err)
	}
	if n != 3 {
		t.Fatalf("page count = %d, want 3", n)
	}

	conf := model.NewDefaultConfiguration()
	dims, err := api.PageDims(bytes.NewReader(data), conf)
	if err != nil {
		t.Fatalf("PageDims: %v", err)
	}
	want := [][2]float64{{20, 30}, {40, 25}, {15, 15}}
	if len(dims) != len(want) {
		t.Fatalf("len(dims) = %d, want %d", len(dims), len(want))
	}
	for i, d := range dims {
		if d.Width != want[i][0] || d.Height != want[i][1] {
			t.Errorf("page %d = %vx%v, want %vx%v", i+1, d.Width, d.Height, want[i][0], want[i][1])
		}
	}

	if !strings.Contains(log.String(), "assembled:") {
		t.Errorf("log = %q, want 'assembled:'", log.String())
	}
	assertNoTempFiles(t, dir)
}

func TestAssembleIsDeterministic(t *testing.T) {
	dir, paths := threePages(t)
	first := filepath.Join(dir, "first.pdf")
	second := filepath.Join(dir, "second.pdf")

	if _, err := Assemble(paths, types.AssemblyConfig{OutputPath: first}, io.Discard); err != nil {
		t.Fatalf("first Assemble: %v", err)
	}
	if _, err := Assemble(paths, types.AssemblyConfig{OutputPath: second}, io.Discard); err != nil {
		t.Fatalf("second Assemble: %v", err)
	}

	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)
	if !bytes.Equal(a, b) {
		t.Error("assembling identical images twice produced different documents")
	}
}

func TestAssembleCreationDate(t *testing.T) {
	dir, paths := threePages(t)
	out := filepath.Join(dir, "dated.pdf")
	date := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	if _, err := Assemble(paths, types.AssemblyConfig{OutputPath: out, CreationDate: date}, io.Discard); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("D:20240301")) {
		t.Error("document should carry the configured creation date")
	}
}

func TestAssembleFailuresLeaveOutputUntouched(t *testing.T) {
	tests := []struct {
		name     string
		renderer *fakeRenderer
		corrupt  bool
		wantErr  string
	}{
		{
			name:     "renderer error",
			renderer: &fakeRenderer{err: errors.New("encoder exploded")},
			wantErr:  "rendering document",
		},
		{
			name:     "truncated document fails verification",
			renderer: &fakeRenderer{output: "%PDF-1.4\n1 0 obj\n<<"},
			wantErr:  "verifying document",
		},
		{
			name:     "undecodable image",
			renderer: &fakeRenderer{},
			corrupt:  true,
			wantErr:  "loading page 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, paths := threePages(t)
			if tt.corrupt {
				if err := os.WriteFile(paths[1], []byte("not an image"), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			out := filepath.Join(dir, "output.pdf")
			if err := os.WriteFile(out, []byte("previous"), 0o644); err != nil {
				t.Fatal(err)
			}
			var log bytes.Buffer

			result, err := AssembleWith(tt.renderer, paths, types.AssemblyConfig{OutputPath: out}, &log)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want %q", err, tt.wantErr)
			}
			if result.Written() {
				t.Errorf("result = %+v, want nothing written", result)
			}
			if tt.corrupt && tt.renderer.calls != 0 {
				t.Error("renderer should not run when an image fails to load")
			}

			data, err := os.ReadFile(out)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != "previous" {
				t.Errorf("output = %q, want previous content preserved", data)
			}
			if !strings.Contains(log.String(), "failed:") {
				t.Errorf("log = %q, want 'failed:'", log.String())
			}
			assertNoTempFiles(t, dir)
		})
	}
}

func TestAssembleMissingImage(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "output.pdf")

	_, err := Assemble([]string{filepath.Join(dir, "nope.png")}, types.AssemblyConfig{OutputPath: out}, io.Discard)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("failed assembly should not create the output file")
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".assemble-*.tmp"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) > 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}
