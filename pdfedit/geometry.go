package pdfedit

import "math"

// Canvas space has its origin at the top-left of the rendered page, in
// pixels. PDF space has its origin at the bottom-left, in points. A page
// rendered at scale s has s pixels per point.

const (
	// DefaultScale is the render scale used when none is given.
	DefaultScale = 1.3

	// widthPerChar is the advance assumed per character, in ems, when the
	// text layer reports no width. It is an approximation, not a measurement.
	widthPerChar = 0.5

	lineHeight = 1.2

	minOverlayWidth = 20.0

	minRebuildFontSize = 8.0
	maxRebuildFontSize = 36.0

	minDisplayFontSize = 10.0
	maxDisplayFontSize = 24.0
)

// Matrix is a PDF text rendering matrix [a b c d e f].
type Matrix [6]float64

// FontScale is the length of the matrix's x basis vector.
func (m Matrix) FontScale() float64 {
	return math.Hypot(m[0], m[1])
}

// ToCanvas maps a PDF-space point to canvas space for a page rendered at
// scale whose raster is canvasHeight pixels tall.
func ToCanvas(x, y, scale, canvasHeight float64) (float64, float64) {
	return x * scale, canvasHeight - y*scale
}

// PDFToCanvas is the inverse of CanvasToPDF.
func PDFToCanvas(pdfY, fontSize, pageHeight float64) float64 {
	return pageHeight - pdfY - fontSize
}

// CanvasToPDF gives the PDF-space y at which a run with canvas y and
// fontSize is redrawn on a page pageHeight points tall.
func CanvasToPDF(y, fontSize, pageHeight float64) float64 {
	return pageHeight - y - fontSize
}

// ApproxWidth estimates the rendered width of n characters at fontSize.
func ApproxWidth(fontSize float64, n int) float64 {
	return widthPerChar * fontSize * float64(n)
}

// LineHeight is the box height used for a run of the given font size.
func LineHeight(fontSize float64) float64 {
	return lineHeight * fontSize
}

// ClampFontSize bounds the size text is redrawn at.
func ClampFontSize(fontSize float64) float64 {
	return math.Max(minRebuildFontSize, math.Min(maxRebuildFontSize, fontSize))
}

// Box is an axis-aligned rectangle in canvas space.
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Overlay is where an editable region for a run is placed on screen.
type Overlay struct {
	Box
	FontSize float64 `json:"fontSize"`
}

// OverlayFor positions the editable region of run: its top edge sits one
// font size above the baseline and it is never narrower than 20 pixels.
func OverlayFor(run TextRun) Overlay {
	return Overlay{
		Box: Box{
			Left:   run.X,
			Top:    run.Y - run.FontSize,
			Width:  math.Max(minOverlayWidth, run.Width),
			Height: run.Height,
		},
		FontSize: math.Max(minDisplayFontSize, math.Min(maxDisplayFontSize, run.FontSize)),
	}
}
