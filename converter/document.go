package converter

// document.go — the block model produced by the DOCX and PPTX parsers and
// its Markdown, HTML and plain-text renderers.

import (
	"context"
	"errors"
	"fmt"
	"html"
	"path/filepath"
	"strings"
)

type blockKind int

const (
	paragraphBlock blockKind = iota
	headingBlock
	listItemBlock
	tableBlock
	ruleBlock // slide boundary
)

// span is a run of text with uniform formatting.
type span struct {
	text   string
	bold   bool
	italic bool
}

// block is one top-level element. level is the heading level (1–6) or the
// zero-based list nesting depth.
type block struct {
	kind  blockKind
	level int
	spans []span
	rows  [][]string
}

func (b block) plainText() string {
	var sb strings.Builder
	for _, s := range b.spans {
		sb.WriteString(s.text)
	}
	return sb.String()
}

type document struct {
	blocks []block
}

func (d *document) add(b block) {
	d.blocks = append(d.blocks, b)
}

var errNoDocumentText = errors.New("document has no text content")

func isPresentation(in UploadedFile) bool {
	return strings.Contains(in.subtype(), "presentationml") ||
		in.subtype() == "vnd.ms-powerpoint" ||
		strings.EqualFold(filepath.Ext(in.Name), ".pptx")
}

func decodeDocument(in UploadedFile) (*document, error) {
	var (
		doc *document
		err error
	)
	if isPresentation(in) {
		doc, err = parsePPTX(in.Data)
	} else {
		doc, err = parseDOCX(in.Data)
	}
	if err != nil {
		return nil, malformed(in.Name, err)
	}
	if len(doc.blocks) == 0 {
		return nil, malformed(in.Name, errNoDocumentText)
	}
	return doc, nil
}

type documentRenderer func(doc *document, title string) string

func documentTo(render documentRenderer) convertFn {
	return func(ctx context.Context, in UploadedFile, _ Settings) (result, error) {
		doc, err := decodeDocument(in)
		if err != nil {
			return result{}, err
		}
		if err := ctx.Err(); err != nil {
			return result{}, err
		}
		return result{data: []byte(render(doc, in.Name))}, nil
	}
}

// ---------------------------------------------------------------------------
// Markdown
// ---------------------------------------------------------------------------

func renderDocumentMarkdown(doc *document, _ string) string {
	var sb strings.Builder
	for i, b := range doc.blocks {
		switch b.kind {
		case headingBlock:
			sb.WriteString(strings.Repeat("#", min(max(b.level, 1), 6)) + " " + markdownSpans(b.spans) + "\n\n")
		case listItemBlock:
			sb.WriteString(strings.Repeat("  ", b.level) + "- " + markdownSpans(b.spans) + "\n")
			if i+1 == len(doc.blocks) || doc.blocks[i+1].kind != listItemBlock {
				sb.WriteByte('\n')
			}
		case tableBlock:
			sb.WriteString(renderMarkdownTable(b.rows) + "\n")
		case ruleBlock:
			sb.WriteString("---\n\n")
		default:
			sb.WriteString(markdownSpans(b.spans) + "\n\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func markdownSpans(spans []span) string {
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(applyInlineFormat(s.text, s.bold, s.italic))
	}
	return strings.TrimSpace(sb.String())
}

// applyInlineFormat wraps text in emphasis markers, keeping surrounding
// whitespace outside them so the Markdown stays valid.
func applyInlineFormat(text string, bold, italic bool) string {
	core := strings.TrimSpace(text)
	if core == "" || (!bold && !italic) {
		return text
	}
	lead := text[:strings.Index(text, core)]
	trail := text[len(lead)+len(core):]

	marker := "*"
	switch {
	case bold && italic:
		marker = "***"
	case bold:
		marker = "**"
	}
	return lead + marker + core + marker + trail
}

// ---------------------------------------------------------------------------
// HTML
// ---------------------------------------------------------------------------

func renderDocumentHTML(doc *document, title string) string {
	var sb strings.Builder
	inList := false
	for _, b := range doc.blocks {
		if inList && b.kind != listItemBlock {
			sb.WriteString("</ul>\n")
			inList = false
		}
		switch b.kind {
		case headingBlock:
			lvl := min(max(b.level, 1), 6)
			fmt.Fprintf(&sb, "<h%d>%s</h%d>\n", lvl, htmlSpans(b.spans), lvl)
		case listItemBlock:
			if !inList {
				sb.WriteString("<ul>\n")
				inList = true
			}
			if b.level > 0 {
				fmt.Fprintf(&sb, "<li style=\"margin-left: %dem\">%s</li>\n", 2*b.level, htmlSpans(b.spans))
			} else {
				sb.WriteString("<li>" + htmlSpans(b.spans) + "</li>\n")
			}
		case tableBlock:
			sb.WriteString(renderHTMLTable(b.rows))
		case ruleBlock:
			sb.WriteString("<hr>\n")
		default:
			sb.WriteString("<p>" + htmlSpans(b.spans) + "</p>\n")
		}
	}
	if inList {
		sb.WriteString("</ul>\n")
	}
	return string(htmlPage(title, sb.String()))
}

func htmlSpans(spans []span) string {
	var sb strings.Builder
	for _, s := range spans {
		text := strings.ReplaceAll(html.EscapeString(s.text), "\n", "<br>")
		switch {
		case s.bold && s.italic:
			text = "<strong><em>" + text + "</em></strong>"
		case s.bold:
			text = "<strong>" + text + "</strong>"
		case s.italic:
			text = "<em>" + text + "</em>"
		}
		sb.WriteString(text)
	}
	return sb.String()
}

// ---------------------------------------------------------------------------
// Plain text
// ---------------------------------------------------------------------------

func renderDocumentText(doc *document, _ string) string {
	var sb strings.Builder
	for _, b := range doc.blocks {
		switch b.kind {
		case listItemBlock:
			sb.WriteString(strings.Repeat("  ", b.level) + "- " + strings.TrimSpace(b.plainText()) + "\n")
		case tableBlock:
			for _, row := range b.rows {
				sb.WriteString(strings.Join(row, "\t") + "\n")
			}
			sb.WriteByte('\n')
		case ruleBlock:
			sb.WriteString("----------\n\n")
		default:
			sb.WriteString(strings.TrimSpace(b.plainText()) + "\n\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}
