package converter

// table.go — the tabular model shared by the spreadsheet and JSON families,
// plus the Markdown and HTML table renderers also used by documents.

import (
	"html"
	"strings"
)

const minColWidth = 3 // minimum separator width for a valid Markdown table (---)

// table is a header row plus data rows. Every data row has len(header) cells.
type table struct {
	header []string
	rows   [][]string
}

// newTable treats the first row as the header and pads or truncates the
// rest to its width. Fully empty trailing rows are dropped.
func newTable(rows [][]string) table {
	for len(rows) > 0 && isBlankRow(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 {
		return table{}
	}
	width := len(rows[0])
	t := table{header: padRow(rows[0], width)}
	for _, row := range rows[1:] {
		t.rows = append(t.rows, padRow(row, width))
	}
	return t
}

// all returns header and rows as one grid.
func (t table) all() [][]string {
	if t.header == nil {
		return nil
	}
	return append([][]string{t.header}, t.rows...)
}

func padRow(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// renderMarkdownTable converts a [][]string into a GitHub-Flavored Markdown
// table. The first row is treated as the header. Each column is padded to the
// width of its widest cell (minimum minColWidth).
func renderMarkdownTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	maxCols := 0
	for _, row := range rows {
		maxCols = max(maxCols, len(row))
	}
	if maxCols == 0 {
		return ""
	}

	widths := make([]int, maxCols)
	for i := range widths {
		widths[i] = minColWidth
	}
	for _, row := range rows {
		for i, raw := range row {
			widths[i] = max(widths[i], len(markdownCell(raw)))
		}
	}

	cell := func(row []string, col int) string {
		if col < len(row) {
			return markdownCell(row[col])
		}
		return ""
	}
	pad := func(s string, w int) string {
		if len(s) >= w {
			return s
		}
		return s + strings.Repeat(" ", w-len(s))
	}

	var sb strings.Builder

	sb.WriteString("|")
	for i := 0; i < maxCols; i++ {
		sb.WriteString(" " + pad(cell(rows[0], i), widths[i]) + " |")
	}
	sb.WriteByte('\n')

	sb.WriteString("|")
	for i := 0; i < maxCols; i++ {
		sb.WriteString(" " + strings.Repeat("-", widths[i]) + " |")
	}
	sb.WriteByte('\n')

	for _, row := range rows[1:] {
		sb.WriteString("|")
		for i := 0; i < maxCols; i++ {
			sb.WriteString(" " + pad(cell(row, i), widths[i]) + " |")
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}

// markdownCell escapes pipes and flattens line breaks so a value stays
// inside one table cell.
func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", "<br>")
	return strings.ReplaceAll(s, "\n", "<br>")
}

// renderHTMLTable renders rows as a <table>, first row in <thead>.
func renderHTMLTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("<table>\n<thead>\n<tr>")
	for _, c := range rows[0] {
		sb.WriteString("<th>" + html.EscapeString(c) + "</th>")
	}
	sb.WriteString("</tr>\n</thead>\n<tbody>\n")
	for _, row := range rows[1:] {
		sb.WriteString("<tr>")
		for _, c := range row {
			sb.WriteString("<td>" + html.EscapeString(c) + "</td>")
		}
		sb.WriteString("</tr>\n")
	}
	sb.WriteString("</tbody>\n</table>\n")
	return sb.String()
}

// htmlPage wraps body in a minimal standalone document.
func htmlPage(title, body string) []byte {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	sb.WriteString(html.EscapeString(title))
	sb.WriteString("</title>\n</head>\n<body>\n")
	sb.WriteString(body)
	sb.WriteString("</body>\n</html>\n")
	return []byte(sb.String())
}
