// Package raster renders PDF pages to bitmaps and answers structural
// questions (page count, optimized rewrite) about PDF files.
//
// Rendering goes through the Rasterizer interface so the converter and the
// PDF editor never depend on a particular rendering engine; the default
// implementation is MuPDF via go-fitz.
package raster

import (
	"context"
	"errors"
	"image"
)

// PointsPerInch is the PDF user-space unit: a page rendered at this DPI has
// one pixel per point.
const PointsPerInch = 72.0

// MaxScale bounds every render scale so a single request cannot ask for an
// unbounded bitmap.
const MaxScale = 8.0

// ErrPageRange is returned when a page index is outside the document.
var ErrPageRange = errors.New("page out of range")

// Page is a rendered PDF page.
type Page struct {
	Image     image.Image
	Width     int // pixels
	Height    int // pixels
	PageCount int // pages in the source document
}

// Rasterizer renders one page of a PDF held in memory. page is zero-based.
type Rasterizer interface {
	RenderPage(ctx context.Context, data []byte, page int, dpi float64) (Page, error)
}

// DPIForScale converts a viewport scale factor (1.0 = one pixel per point)
// into a rendering resolution.
func DPIForScale(scale float64) float64 {
	if scale <= 0 {
		scale = 1
	}
	return PointsPerInch * scale
}

// newPage wraps img with its dimensions.
func newPage(img image.Image, pageCount int) Page {
	b := img.Bounds()
	return Page{Image: img, Width: b.Dx(), Height: b.Dy(), PageCount: pageCount}
}
