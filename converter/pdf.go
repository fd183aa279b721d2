package converter

// pdf.go — PDF conversions: text layer via github.com/ledongthuc/pdf,
// first-page rasterization through the configured raster.Rasterizer, and
// pdfcpu optimization. Scanned (image-only) PDFs yield no text.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/tooldeck/tooldeck/raster"
)

// pdfPageSep is placed between the text of consecutive non-empty pages.
const pdfPageSep = "\n\n---\n\n"

// errNoText is returned for PDFs without an extractable text layer.
var errNoText = errors.New("no text layer found")

func pdfToText(ctx context.Context, in UploadedFile, _ Settings) (result, error) {
	text, err := extractPDFText(ctx, in.Data)
	if err != nil {
		return result{}, malformed(in.Name, err)
	}
	if text == "" {
		return result{}, malformed(in.Name, errNoText)
	}
	return result{data: []byte(text + "\n")}, nil
}

// extractPDFText returns the plain text of every page joined by pdfPageSep.
func extractPDFText(ctx context.Context, data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	numPages := r.NumPage()
	fonts := make(map[string]*pdf.Font)
	var parts []string

	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}

		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := p.Font(name)
				fonts[name] = &f
			}
		}

		text, pageErr := p.GetPlainText(fonts)
		if pageErr != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, pageErr)
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}

	return strings.Join(parts, pdfPageSep), nil
}

// pdfToImage renders page 1 at Settings.RasterDPI. Later pages are not
// rendered; the status note says so.
func (r *Registry) pdfToImage(enc imageEncoder) convertFn {
	return func(ctx context.Context, in UploadedFile, s Settings) (result, error) {
		page, err := r.raster.RenderPage(ctx, in.Data, 0, s.RasterDPI())
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result{}, ctxErr
			}
			return result{}, malformed(in.Name, err)
		}
		var buf bytes.Buffer
		if err := enc(&buf, page.Image, s); err != nil {
			return result{}, fmt.Errorf("encode page: %w", err)
		}
		res := result{data: buf.Bytes()}
		if page.PageCount > 1 {
			res.note = fmt.Sprintf("page 1 of %d", page.PageCount)
		}
		return res, nil
	}
}

// pdfOptimize rewrites the document through pdfcpu's optimizer, which
// drops duplicate objects and compresses streams.
func pdfOptimize(_ context.Context, in UploadedFile, _ Settings) (result, error) {
	out, err := raster.Optimize(in.Data)
	if err != nil {
		return result{}, malformed(in.Name, err)
	}
	res := result{data: out}
	if saved := len(in.Data) - len(out); saved > 0 {
		res.note = fmt.Sprintf("%d bytes smaller", saved)
	}
	return res, nil
}
