package converter

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Category is the coarse bucket a source file falls into. It selects which
// targets are offered and which converter family handles the file.
type Category string

const (
	Unknown     Category = "unknown"
	Image       Category = "image"
	PDF         Category = "pdf"
	Document    Category = "document"
	Spreadsheet Category = "spreadsheet"
	Text        Category = "text"
	JSON        Category = "json"
)

// Categories lists every convertible category in display order.
var Categories = []Category{Image, PDF, Document, Spreadsheet, Text, JSON}

const genericMediaType = "application/octet-stream"

// CategoryOf maps a declared media type to its category. It is total: a type
// nothing matches yields Unknown, which offers no targets.
func CategoryOf(mediaType string) Category {
	mt := normalizeMediaType(mediaType)
	switch {
	case mt == "":
		return Unknown
	case strings.HasPrefix(mt, "image/"):
		return Image
	case mt == "application/pdf":
		return PDF
	case strings.Contains(mt, "wordprocessingml"),
		mt == "application/msword",
		strings.Contains(mt, "presentationml"),
		mt == "application/vnd.ms-powerpoint":
		return Document
	case strings.Contains(mt, "spreadsheetml"),
		mt == "application/vnd.ms-excel",
		mt == "text/csv",
		mt == "application/csv":
		return Spreadsheet
	case mt == "application/json", strings.HasSuffix(mt, "+json"):
		return JSON
	case strings.HasPrefix(mt, "text/"):
		return Text
	}
	return Unknown
}

// extMediaTypes covers extensions the platform mime table often lacks.
var extMediaTypes = map[string]string{
	".csv":  "text/csv",
	".json": "application/json",
	".md":   "text/markdown",
	".txt":  "text/plain",
	".html": "text/html",
	".htm":  "text/html",
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// MediaTypeByName guesses a media type from a file name's extension.
func MediaTypeByName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ""
	}
	if mt, ok := extMediaTypes[ext]; ok {
		return mt
	}
	return normalizeMediaType(mime.TypeByExtension(ext))
}

// DetectMediaType sniffs data and falls back to the file name. Text that
// sniffs as plain text keeps a more specific extension type (csv, json,
// markdown) because content sniffing cannot tell them apart reliably.
func DetectMediaType(name string, data []byte) string {
	byName := MediaTypeByName(name)
	sniffed := normalizeMediaType(mimetype.Detect(data).String())

	switch {
	case sniffed == "" || sniffed == genericMediaType:
		if byName != "" {
			return byName
		}
		if len(data) > 0 {
			return normalizeMediaType(http.DetectContentType(data))
		}
		return genericMediaType
	case sniffed == "text/plain" && byName != "" && CategoryOf(byName) != Unknown:
		return byName
	case sniffed == "application/zip" && byName != "":
		// OOXML files without the usual first entry sniff as plain zip.
		return byName
	}
	return sniffed
}

func normalizeMediaType(mt string) string {
	mt = strings.TrimSpace(strings.ToLower(mt))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}
