// Package pdfedit implements the text-overlay PDF editor: extracting the
// first page as a raster plus positioned text runs, editing run text, and
// rebuilding a single-page PDF from the raster and the edited runs.
package pdfedit

import (
	"context"
	"errors"
	"fmt"
	"math"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/tooldeck/tooldeck/raster"
)

var (
	// ErrNoPage means the document has no first page to edit.
	ErrNoPage = errors.New("pdf has no pages")

	// ErrInvalidPDF means the bytes could not be parsed as a PDF.
	ErrInvalidPDF = errors.New("invalid pdf")

	// ErrUnknownRun means an edit named a run id the session does not hold.
	ErrUnknownRun = errors.New("unknown text run")

	// ErrScaleRange means a render scale above raster.MaxScale.
	ErrScaleRange = errors.New("render scale out of range")
)

const (
	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	idLength   = 7
)

// TextRun is one editable piece of text in canvas space. Only Str changes
// after extraction.
type TextRun struct {
	ID       string  `json:"id"`
	Str      string  `json:"str"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"` // baseline
	FontSize float64 `json:"fontSize"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
}

// Page is an extracted first page.
type Page struct {
	Raster raster.Page
	Runs   []TextRun
	Scale  float64
}

// Extractor turns PDF bytes into an editable Page.
type Extractor struct {
	raster raster.Rasterizer
	newID  func() (string, error)
}

// NewExtractor returns an Extractor rendering with r.
func NewExtractor(r raster.Rasterizer) *Extractor {
	return &Extractor{
		raster: r,
		newID:  func() (string, error) { return gonanoid.Generate(idAlphabet, idLength) },
	}
}

// ExtractFirstPage renders page 1 at scale (DefaultScale when not
// positive) and reads its text layer. Later pages are ignored. A scale above
// raster.MaxScale fails with ErrScaleRange before anything is rendered.
func (e *Extractor) ExtractFirstPage(ctx context.Context, data []byte, scale float64) (Page, error) {
	if scale <= 0 {
		scale = DefaultScale
	}
	if scale > raster.MaxScale || math.IsNaN(scale) {
		return Page{}, fmt.Errorf("%w: %g (max %g)", ErrScaleRange, scale, raster.MaxScale)
	}
	n, err := raster.PageCount(data)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %w", ErrInvalidPDF, err)
	}
	if n == 0 {
		return Page{}, ErrNoPage
	}

	img, err := e.raster.RenderPage(ctx, data, 0, raster.DPIForScale(scale))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Page{}, ctxErr
		}
		return Page{}, fmt.Errorf("render first page: %w", err)
	}

	items, err := readTextLayer(data)
	if err != nil {
		if errors.Is(err, ErrNoPage) {
			return Page{}, err
		}
		return Page{}, fmt.Errorf("%w: %w", ErrInvalidPDF, err)
	}

	runs := make([]TextRun, 0, len(items))
	for _, it := range items {
		id, err := e.newID()
		if err != nil {
			return Page{}, fmt.Errorf("generate run id: %w", err)
		}
		runs = append(runs, newRun(id, it, scale, float64(img.Height)))
	}
	return Page{Raster: img, Runs: runs, Scale: scale}, nil
}

// newRun places a text item on a canvas canvasHeight pixels tall.
func newRun(id string, it textItem, scale, canvasHeight float64) TextRun {
	x, y := ToCanvas(it.Matrix[4], it.Matrix[5], scale, canvasHeight)
	fontSize := it.Matrix.FontScale() * scale
	width := it.Width * scale
	if width <= 0 {
		width = ApproxWidth(fontSize, len([]rune(it.Str)))
	}
	return TextRun{
		ID:       id,
		Str:      it.Str,
		X:        x,
		Y:        y,
		FontSize: fontSize,
		Width:    width,
		Height:   LineHeight(fontSize),
	}
}
