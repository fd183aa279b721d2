package pdfedit

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/tooldeck/tooldeck/raster"
)

const (
	rebuildFont   = "Helvetica"
	editedPrefix  = "edited_"
	backgroundImg = "background"
)

// RebuildOptions controls how edited text is composited.
type RebuildOptions struct {
	// EraseOriginal paints an opaque white box over each run's overlay area
	// before drawing, hiding the original glyphs in the background raster.
	EraseOriginal bool
}

// EditedName is the download name for a rebuilt copy of name.
func EditedName(name string) string {
	if name == "" {
		name = "document.pdf"
	}
	return editedPrefix + name
}

// Rebuild writes a single-page PDF the size of the raster (one point per
// pixel) with the raster as background and every run drawn on top in
// Helvetica. Text outside ISO-8859-1 is replaced. On error no bytes are
// returned.
func Rebuild(page raster.Page, runs []TextRun, opts RebuildOptions) ([]byte, error) {
	if page.Image == nil || page.Width <= 0 || page.Height <= 0 {
		return nil, fmt.Errorf("rebuild: %w", ErrNoPage)
	}
	var bg bytes.Buffer
	if err := png.Encode(&bg, page.Image); err != nil {
		return nil, fmt.Errorf("encode background: %w", err)
	}

	w, h := float64(page.Width), float64(page.Height)
	pdf := fpdf.New("P", "pt", "", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

	imgOpts := fpdf.ImageOptions{ReadDpi: false, ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(backgroundImg, imgOpts, &bg)
	pdf.ImageOptions(backgroundImg, 0, 0, w, h, false, imgOpts, 0, "")

	pdf.SetFont(rebuildFont, "", minRebuildFontSize)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFillColor(255, 255, 255)
	enc := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder())

	for _, run := range runs {
		if opts.EraseOriginal {
			box := OverlayFor(run).Box
			pdf.Rect(box.Left, box.Top, box.Width, box.Height, "F")
		}
		text, err := enc.String(strings.ReplaceAll(run.Str, "\n", " "))
		if err != nil {
			return nil, fmt.Errorf("encode run %s: %w", run.ID, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pdf.SetFontSize(ClampFontSize(run.FontSize))
		// fpdf measures y from the top; CanvasToPDF is from the bottom.
		pdf.Text(run.X, h-CanvasToPDF(run.Y, run.FontSize, h), text)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("build pdf: %w", err)
	}
	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return out.Bytes(), nil
}
