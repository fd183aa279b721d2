package pdfedit

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"math"
	"testing"

	"codeberg.org/go-pdf/fpdf"

	"github.com/tooldeck/tooldeck/raster"
)

const (
	a4Width  = 595.28
	a4Height = 841.89
)

func assertNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 0.75 {
		t.Errorf("%s = %.2f, want ≈ %.2f", name, got, want)
	}
}

// pageRasterizer renders a blank page of the A4 size at the requested dpi.
type pageRasterizer struct {
	calls int
}

func (p *pageRasterizer) RenderPage(ctx context.Context, _ []byte, page int, dpi float64) (raster.Page, error) {
	if err := ctx.Err(); err != nil {
		return raster.Page{}, err
	}
	p.calls++
	scale := dpi / raster.PointsPerInch
	w := int(math.Round(a4Width * scale))
	h := int(math.Round(a4Height * scale))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return raster.Page{Image: img, Width: w, Height: h, PageCount: 1}, nil
}

type textAt struct {
	x, y float64 // fpdf coordinates, origin top-left
	size float64
	str  string
}

// makePDF builds an A4 page with Helvetica text at the given positions.
func makePDF(t *testing.T, items ...textAt) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.AddPage()
	for _, it := range items {
		pdf.SetFont("Helvetica", "", it.size)
		pdf.Text(it.x, it.y, it.str)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("makePDF: %v", err)
	}
	return buf.Bytes()
}

func solidPage(w, h int, c color.Color) raster.Page {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return raster.Page{Image: img, Width: w, Height: h, PageCount: 1}
}
