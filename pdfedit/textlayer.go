package pdfedit

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
)

// textItem is a segment of same-styled text on one baseline, in PDF space.
type textItem struct {
	Matrix Matrix
	Str    string
	Width  float64 // points; zero when the font reported no widths
}

// readTextLayer returns the text items of page 1. The parser panics on some
// malformed content streams, which is reported as an error.
func readTextLayer(data []byte) (items []textItem, err error) {
	defer func() {
		if p := recover(); p != nil {
			items, err = nil, fmt.Errorf("read text layer: %v", p)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	if r.NumPage() < 1 {
		return nil, ErrNoPage
	}
	p := r.Page(1)
	if p.V.IsNull() {
		return nil, ErrNoPage
	}
	return segment(p.Content().Text), nil
}

// segment merges consecutive glyphs into items. A glyph joins the current
// item when it shares font, size and baseline and starts within half an em
// of the item's end.
func segment(glyphs []pdf.Text) []textItem {
	var (
		items    []textItem
		cur      *pdf.Text
		end      float64 // x where the current item ends
		measured bool    // every glyph so far reported a width
		sb       strings.Builder
	)
	flush := func() {
		if cur == nil {
			return
		}
		if s := strings.TrimSpace(sb.String()); s != "" {
			item := textItem{
				Matrix: Matrix{cur.FontSize, 0, 0, cur.FontSize, cur.X, cur.Y},
				Str:    s,
			}
			if measured {
				item.Width = end - cur.X
			}
			items = append(items, item)
		}
		cur = nil
		sb.Reset()
	}

	for i := range glyphs {
		g := glyphs[i]
		if g.S == "" {
			continue
		}
		if cur == nil || !continues(*cur, end, g) {
			flush()
			if strings.TrimSpace(g.S) == "" {
				continue
			}
			c := g
			cur = &c
			measured = true
		}
		sb.WriteString(g.S)
		end = glyphEnd(g)
		measured = measured && g.W > 0
	}
	flush()
	return items
}

// glyphEnd is where the next glyph of the same word would start. Fonts
// without width tables do not advance the text position, so unmeasured
// glyphs end where they start.
func glyphEnd(g pdf.Text) float64 {
	if g.W > 0 {
		return g.X + g.W
	}
	return g.X
}

func continues(run pdf.Text, end float64, g pdf.Text) bool {
	size := run.FontSize
	if g.Font != run.Font || math.Abs(g.FontSize-size) > 0.01*math.Max(size, 1) {
		return false
	}
	if math.Abs(g.Y-run.Y) > 0.1*size {
		return false
	}
	gap := g.X - end
	return gap > -0.5*size && gap < 0.5*size
}
