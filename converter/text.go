package converter

// text.go — conversions for plain text, Markdown and HTML sources.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var whitespaceRunRE = regexp.MustCompile(`\s+`)

const (
	textPDFFont     = "Courier"
	textPDFFontSize = 10.0
	textPDFMargin   = 40.0
)

// textContent returns the source as UTF-8. Bytes that are not valid UTF-8
// are read as ISO-8859-1.
func textContent(in UploadedFile) (string, error) {
	data := bytes.TrimPrefix(in.Data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", malformed(in.Name, err)
	}
	return string(decoded), nil
}

func textLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func isHTMLSource(in UploadedFile) bool {
	return in.subtype() == "html" || in.subtype() == "xhtml+xml"
}

// textToCSV turns every whitespace run into a comma. Values are not quoted.
func textToCSV(_ context.Context, in UploadedFile, _ Settings) (result, error) {
	text, err := textContent(in)
	if err != nil {
		return result{}, err
	}
	lines := textLines(text)
	for i, line := range lines {
		lines[i] = whitespaceRunRE.ReplaceAllString(line, ",")
	}
	return result{data: []byte(strings.Join(lines, "\n") + "\n")}, nil
}

// textToJSON yields a JSON array with one string per line.
func textToJSON(_ context.Context, in UploadedFile, _ Settings) (result, error) {
	text, err := textContent(in)
	if err != nil {
		return result{}, err
	}
	data, err := json.MarshalIndent(textLines(text), "", "  ")
	if err != nil {
		return result{}, fmt.Errorf("encode json: %w", err)
	}
	return result{data: append(data, '\n')}, nil
}

// textToHTML passes HTML through and wraps other text line by line in
// escaped paragraphs.
func textToHTML(_ context.Context, in UploadedFile, _ Settings) (result, error) {
	text, err := textContent(in)
	if err != nil {
		return result{}, err
	}
	if isHTMLSource(in) {
		return result{data: []byte(text)}, nil
	}
	var body strings.Builder
	for _, line := range textLines(text) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		body.WriteString("<p>" + html.EscapeString(line) + "</p>\n")
	}
	return result{data: htmlPage(in.Name, body.String())}, nil
}

// textToMarkdown converts HTML sources with html-to-markdown; other text is
// already valid Markdown and passes through.
func (r *Registry) textToMarkdown(_ context.Context, in UploadedFile, _ Settings) (result, error) {
	text, err := textContent(in)
	if err != nil {
		return result{}, err
	}
	if !isHTMLSource(in) {
		return result{data: []byte(text)}, nil
	}
	md, err := r.htmlConverter.ConvertString(text)
	if err != nil {
		return result{}, malformed(in.Name, err)
	}
	return result{data: []byte(md + "\n")}, nil
}

// textToPDF lays the text out on A4 pages in a monospaced font. Runes
// outside ISO-8859-1 are replaced.
func textToPDF(ctx context.Context, in UploadedFile, _ Settings) (result, error) {
	text, err := textContent(in)
	if err != nil {
		return result{}, err
	}
	latin1, err := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder()).String(text)
	if err != nil {
		return result{}, malformed(in.Name, err)
	}
	latin1 = strings.ReplaceAll(latin1, "\t", "    ")

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(textPDFMargin, textPDFMargin, textPDFMargin)
	pdf.SetAutoPageBreak(true, textPDFMargin)
	pdf.SetFont(textPDFFont, "", textPDFFontSize)
	pdf.AddPage()

	lineHeight := textPDFFontSize * 1.2
	for _, line := range textLines(latin1) {
		if err := ctx.Err(); err != nil {
			return result{}, err
		}
		pdf.MultiCell(0, lineHeight, line, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return result{}, fmt.Errorf("write pdf: %w", err)
	}
	return result{data: buf.Bytes()}, nil
}
