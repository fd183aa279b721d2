package raster

import (
	"context"
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// Fitz renders pages with MuPDF.
type Fitz struct{}

// NewFitz returns the MuPDF-backed Rasterizer.
func NewFitz() *Fitz {
	return &Fitz{}
}

// RenderPage renders page (zero-based) at dpi.
func (Fitz) RenderPage(ctx context.Context, data []byte, page int, dpi float64) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return Page{}, fmt.Errorf("open pdf: %w", err)
	}
	defer func() { _ = doc.Close() }()

	n := doc.NumPage()
	if page < 0 || page >= n {
		return Page{}, fmt.Errorf("render page %d of %d: %w", page+1, n, ErrPageRange)
	}
	if dpi <= 0 {
		dpi = PointsPerInch
	}

	img, err := doc.ImageDPI(page, dpi)
	if err != nil {
		return Page{}, fmt.Errorf("render page %d: %w", page+1, err)
	}
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	return newPage(img, n), nil
}
