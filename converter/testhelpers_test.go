package converter

// Shared test helpers for the converter package.

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"

	"github.com/tooldeck/tooldeck/config"
	"github.com/tooldeck/tooldeck/raster"
)

// ---- assertion helpers -----------------------------------------------------

func assertNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertErr(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
}

func assertContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("expected output to contain %q\ngot: %s", want, got)
	}
}

func assertNotContains(t *testing.T, got, unwanted string) {
	t.Helper()
	if strings.Contains(got, unwanted) {
		t.Errorf("expected output not to contain %q\ngot: %s", unwanted, got)
	}
}

func assertNotEmpty(t *testing.T, got string) {
	t.Helper()
	if strings.TrimSpace(got) == "" {
		t.Error("expected non-empty output, got empty string")
	}
}

// ---- registry --------------------------------------------------------------

// fakeRasterizer renders every page as a solid red w×h image.
type fakeRasterizer struct {
	w, h, pages int
	gotDPI      float64
}

func (f *fakeRasterizer) RenderPage(ctx context.Context, _ []byte, page int, dpi float64) (raster.Page, error) {
	if err := ctx.Err(); err != nil {
		return raster.Page{}, err
	}
	if page >= f.pages {
		return raster.Page{}, raster.ErrPageRange
	}
	f.gotDPI = dpi
	img := solidImage(f.w, f.h, color.RGBA{R: 255, A: 255})
	return raster.Page{Image: img, Width: f.w, Height: f.h, PageCount: f.pages}, nil
}

func newTestRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	return New(config.Default(), opts...)
}

func convert(t *testing.T, r *Registry, in UploadedFile, format string) Output {
	t.Helper()
	out, err := r.Convert(context.Background(), in, format, DefaultSettings())
	assertNoErr(t, err)
	return out
}

// ---- file factories --------------------------------------------------------

// writeTempFile writes content to a temp file with the given name and returns
// its path. The file is cleaned up automatically when the test ends.
func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writeTempFile: %v", err)
	}
	return path
}

func textFile(name, mediaType, content string) UploadedFile {
	return UploadedFile{Name: name, MediaType: mediaType, Data: []byte(content)}
}

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// makePNG encodes a solid w×h image.
func makePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, solidImage(w, h, c)); err != nil {
		t.Fatalf("makePNG: %v", err)
	}
	return buf.Bytes()
}

// makePDF builds an A4 document with one line of Helvetica text per page.
func makePDF(t *testing.T, pages ...string) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 14)
	for _, text := range pages {
		pdf.AddPage()
		pdf.Text(72, 100, text)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("makePDF: %v", err)
	}
	return buf.Bytes()
}

// makeZip builds an archive from name → content entries.
func makeZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("makeZip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("makeZip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("makeZip close: %v", err)
	}
	return buf.Bytes()
}

// makeDocx builds a minimal .docx containing the given OOXML body fragment.
func makeDocx(t *testing.T, bodyXML string) UploadedFile {
	t.Helper()
	const ns = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`
	doc := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document ` + ns + `><w:body>` + bodyXML + `</w:body></w:document>`
	return UploadedFile{
		Name:      "test.docx",
		MediaType: extMediaTypes[".docx"],
		Data:      makeZip(t, map[string]string{docxMainPart: doc}),
	}
}

type pptxTestSlide struct {
	titleXML string // runs inside the title placeholder paragraph
	bodyXML  string // contents of one body paragraph (pPr and runs)
}

// makePPTX builds a minimal .pptx with one slide file per entry.
func makePPTX(t *testing.T, slides []pptxTestSlide) UploadedFile {
	t.Helper()
	const ns = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
		`xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`

	entries := map[string]string{}
	for i, s := range slides {
		var sb strings.Builder
		sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?><p:sld ` + ns + `><p:cSld><p:spTree>`)
		if s.titleXML != "" {
			sb.WriteString(`<p:sp><p:nvSpPr><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr>` +
				`<p:txBody><a:p>` + s.titleXML + `</a:p></p:txBody></p:sp>`)
		}
		if s.bodyXML != "" {
			sb.WriteString(`<p:sp><p:nvSpPr><p:nvPr/></p:nvSpPr>` +
				`<p:txBody><a:p>` + s.bodyXML + `</a:p></p:txBody></p:sp>`)
		}
		sb.WriteString(`</p:spTree></p:cSld></p:sld>`)
		entries[fmt.Sprintf("ppt/slides/slide%d.xml", i+1)] = sb.String()
	}
	return UploadedFile{
		Name:      "test.pptx",
		MediaType: extMediaTypes[".pptx"],
		Data:      makeZip(t, entries),
	}
}

// makeXLSX builds a workbook with one sheet.
func makeXLSX(t *testing.T, sheet string, rows [][]string) UploadedFile {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet first so SetCellValue writes to the right name.
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			t.Fatalf("makeXLSX rename: %v", err)
		}
	}

	for r, row := range rows {
		for c, val := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				t.Fatalf("makeXLSX set %s: %v", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("makeXLSX write: %v", err)
	}
	return UploadedFile{Name: "test.xlsx", MediaType: mediaXLSX, Data: buf.Bytes()}
}

// readXLSX returns the rows of the first sheet of an encoded workbook.
func readXLSX(t *testing.T, data []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("readXLSX open: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetList()[0])
	if err != nil {
		t.Fatalf("readXLSX rows: %v", err)
	}
	return rows
}
