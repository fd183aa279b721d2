package converter

import (
	"path/filepath"
	"strings"
)

// Target is one selectable output format.
type Target struct {
	Format      string `json:"format"`
	Label       string `json:"label"`
	Description string `json:"description"`
	MediaType   string `json:"mediaType"`
	Ext         string `json:"ext"`
}

// Output media types.
const (
	mediaPNG  = "image/png"
	mediaJPEG = "image/jpeg"
	mediaGIF  = "image/gif"
	mediaBMP  = "image/bmp"
	mediaTIFF = "image/tiff"
	mediaPDF  = "application/pdf"
	mediaCSV  = "text/csv"
	mediaJSON = "application/json"
	mediaXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mediaHTML = "text/html"
	mediaMD   = "text/markdown"
	mediaTXT  = "text/plain"
)

var (
	targetPNG  = Target{"png", "PNG", "Lossless raster image", mediaPNG, "png"}
	targetJPG  = Target{"jpg", "JPG", "Compressed photo image, honours quality", mediaJPEG, "jpg"}
	targetGIF  = Target{"gif", "GIF", "256-colour raster image", mediaGIF, "gif"}
	targetBMP  = Target{"bmp", "BMP", "Uncompressed bitmap", mediaBMP, "bmp"}
	targetTIFF = Target{"tiff", "TIFF", "Deflate-compressed TIFF", mediaTIFF, "tiff"}
	targetPDF  = Target{"pdf", "PDF", "Portable document", mediaPDF, "pdf"}
	targetCSV  = Target{"csv", "CSV", "Comma-separated values", mediaCSV, "csv"}
	targetJSON = Target{"json", "JSON", "JSON document", mediaJSON, "json"}
	targetXLSX = Target{"xlsx", "XLSX", "Excel workbook (single sheet)", mediaXLSX, "xlsx"}
	targetHTML = Target{"html", "HTML", "Web page", mediaHTML, "html"}
	targetMD   = Target{"md", "Markdown", "Markdown text", mediaMD, "md"}
	targetTXT  = Target{"txt", "Text", "Plain text", mediaTXT, "txt"}
)

// targetTable is the single source for what the UI offers per category.
// Registry construction panics if any entry here lacks a converter.
var targetTable = map[Category][]Target{
	Image: {targetPNG, targetJPG, targetGIF, targetBMP, targetTIFF, targetPDF},
	PDF: {
		withDescription(targetPNG, "First page rendered as PNG"),
		withDescription(targetJPG, "First page rendered as JPG"),
		withDescription(targetTXT, "Text layer of every page"),
		withDescription(targetPDF, "Optimized copy of the document"),
	},
	Document:    {targetHTML, targetTXT, targetMD},
	Spreadsheet: {targetCSV, targetJSON, targetXLSX, targetHTML, targetMD},
	JSON:        {targetCSV, targetXLSX, targetHTML, targetMD},
	Text: {
		withDescription(targetCSV, "Whitespace-separated columns as CSV"),
		withDescription(targetJSON, "JSON array of lines"),
		targetHTML,
		targetMD,
		targetPDF,
	},
}

func withDescription(t Target, d string) Target {
	t.Description = d
	return t
}

// Targets returns the formats offered for category, in display order.
// Unknown yields none.
func Targets(c Category) []Target {
	src := targetTable[c]
	out := make([]Target, len(src))
	copy(out, src)
	return out
}

// LookupTarget finds format among the targets offered for c.
func LookupTarget(c Category, format string) (Target, bool) {
	format = normalizeFormat(format)
	for _, t := range targetTable[c] {
		if t.Format == format {
			return t, true
		}
	}
	return Target{}, false
}

// normalizeFormat accepts common aliases ("jpeg", ".PNG", "markdown").
func normalizeFormat(format string) string {
	f := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
	switch f {
	case "jpeg":
		return "jpg"
	case "tif":
		return "tiff"
	case "markdown":
		return "md"
	case "text":
		return "txt"
	case "htm":
		return "html"
	}
	return f
}

// OutputName builds the download name <basename>_converted.<ext>.
func OutputName(source string, t Target) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "file"
	}
	return base + "_converted." + t.Ext
}
