// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assemble

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"sync"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/pagebinder/pkg/types"
)

const producer = "pagebinder"

// FPDFRenderer renders pages with go-pdf/fpdf. Each page is sized to its
// image at 72 dpi, so one pixel maps to one point.
type FPDFRenderer struct {
	// CreationDate is written as both the creation and modification date.
	CreationDate time.Time
	Title        string
}

// NewFPDFRenderer returns a renderer for cfg. A zero CreationDate becomes
// the Unix epoch so output depends only on the input images.
func NewFPDFRenderer(cfg types.AssemblyConfig) FPDFRenderer {
	date := cfg.CreationDate
	if date.IsZero() {
		date = time.Unix(0, 0).UTC()
	}
	return FPDFRenderer{CreationDate: date, Title: cfg.Title}
}

// Render implements Renderer.
func (r FPDFRenderer) Render(w io.Writer, pages []*image.RGBA) error {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetCompression(true)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(r.CreationDate)
	pdf.SetModificationDate(r.CreationDate)
	pdf.SetProducer(producer, false)
	if r.Title != "" {
		pdf.SetTitle(r.Title, true)
	}
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	for i, img := range pages {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("encoding page %d: %w", i+1, err)
		}

		name := fmt.Sprintf("page-%d", i+1)
		pdf.RegisterImageOptionsReader(name, opts, &buf)

		wd := float64(img.Bounds().Dx())
		ht := float64(img.Bounds().Dy())
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: wd, Ht: ht})
		pdf.ImageOptions(name, 0, 0, wd, ht, false, opts, 0, "")

		if pdf.Err() {
			return fmt.Errorf("page %d: %w", i+1, pdf.Error())
		}
	}

	return pdf.Output(w)
}

var disableConfigDir sync.Once

// verifyPageCount parses a rendered document with pdfcpu and checks that it
// holds want pages.
func verifyPageCount(data []byte, want int) error {
	n, err := PageCount(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("verifying document: %w", err)
	}
	if n != want {
		return fmt.Errorf("verifying document: %d pages rendered, want %d", n, want)
	}
	return nil
}

// PageCount returns the number of pages in the PDF read from rs.
func PageCount(rs io.ReadSeeker) (int, error) {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.PageCount(rs, conf)
}
