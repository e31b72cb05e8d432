package assemble

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		src  image.Image
		at   image.Point
		want color.RGBA
	}{
		{
			name: "transparent pixel becomes white",
			src: func() image.Image {
				img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
				img.Set(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
				return img
			}(),
			at:   image.Pt(0, 0),
			want: color.RGBA{R: 255, G: 255, B: 255, A: 255},
		},
		{
			name: "opaque pixel keeps its color",
			src: func() image.Image {
				img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
				img.Set(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
				return img
			}(),
			at:   image.Pt(1, 1),
			want: color.RGBA{R: 10, G: 20, B: 30, A: 255},
		},
		{
			name: "grayscale expands to rgb",
			src: func() image.Image {
				img := image.NewGray(image.Rect(0, 0, 1, 1))
				img.SetGray(0, 0, color.Gray{Y: 128})
				return img
			}(),
			at:   image.Pt(0, 0),
			want: color.RGBA{R: 128, G: 128, B: 128, A: 255},
		},
		{
			name: "offset bounds are rebased to origin",
			src: func() image.Image {
				img := image.NewRGBA(image.Rect(5, 5, 7, 7))
				img.Set(5, 5, color.RGBA{R: 1, G: 2, B: 3, A: 255})
				return img
			}(),
			at:   image.Pt(0, 0),
			want: color.RGBA{R: 1, G: 2, B: 3, A: 255},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.src)
			assert.Equal(t, image.Rect(0, 0, tt.src.Bounds().Dx(), tt.src.Bounds().Dy()), got.Bounds())
			assert.True(t, got.Opaque(), "normalized image must not carry transparency")
			assert.Equal(t, tt.want, got.RGBAAt(tt.at.X, tt.at.Y))
		})
	}
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()

	// JPEG content under a .png name still decodes.
	path := writeGrayJPEG(t, dir, "7.png", 8, 4)
	img, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())
	assert.True(t, img.Opaque())

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("<html>404</html>"), 0o644))
	_, err = LoadImage(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding")
}
