package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tooldeck/tooldeck/config"
	"github.com/tooldeck/tooldeck/converter"
	"github.com/tooldeck/tooldeck/pdfedit"
	"github.com/tooldeck/tooldeck/raster"
)

// a4Rasterizer renders a blank A4 page at the requested dpi.
type a4Rasterizer struct{}

func (a4Rasterizer) RenderPage(_ context.Context, _ []byte, _ int, dpi float64) (raster.Page, error) {
	scale := dpi / raster.PointsPerInch
	w, h := int(math.Round(595.28*scale)), int(math.Round(841.89*scale))
	return raster.Page{Image: image.NewRGBA(image.Rect(0, 0, w, h)), Width: w, Height: h, PageCount: 1}, nil
}

func newTestTools(t *testing.T, outputDir string) *mcpTools {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = outputDir
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := converter.New(cfg, converter.WithRasterizer(a4Rasterizer{}), converter.WithLogger(logger))
	return newMCPTools(reg, pdfedit.NewExtractor(a4Rasterizer{}), cfg, logger)
}

func call(t *testing.T, fn func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := fn(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T", res.Content[0])
	}
	return text.Text, res.IsError
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func makePDF(t *testing.T, text string) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 14)
	pdf.Text(72, 100, text)
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	return buf.Bytes()
}

func TestConvertFileTool_WritesNextToInput(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "people.csv", []byte("email,name\na@x.com,Alice\n"))
	tools := newTestTools(t, "")

	text, isErr := call(t, tools.convertFile, map[string]any{argPath: in, argTarget: "json"})
	if isErr {
		t.Fatalf("tool error: %s", text)
	}
	out := filepath.Join(dir, "people_converted.json")
	if !strings.Contains(text, out) {
		t.Errorf("result %q does not name %s", text, out)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var rows []map[string]string
	if err := json.Unmarshal(data, &rows); err != nil || rows[0]["name"] != "Alice" {
		t.Errorf("output = %s (%v)", data, err)
	}
}

func TestConvertFileTool_OutputDir(t *testing.T) {
	in := writeFile(t, t.TempDir(), "notes.txt", []byte("hello"))
	outDir := filepath.Join(t.TempDir(), "out")
	tools := newTestTools(t, outDir)

	if text, isErr := call(t, tools.convertFile, map[string]any{argPath: in, argTarget: "html"}); isErr {
		t.Fatalf("tool error: %s", text)
	}
	if _, err := os.Stat(filepath.Join(outDir, "notes_converted.html")); err != nil {
		t.Errorf("output missing: %v", err)
	}
}

func TestConvertFileTool_Errors(t *testing.T) {
	tools := newTestTools(t, "")
	if _, isErr := call(t, tools.convertFile, map[string]any{argPath: "/x.csv"}); !isErr {
		t.Error("missing target should be a tool error")
	}
	in := writeFile(t, t.TempDir(), "a.csv", []byte("a\n1\n"))
	text, isErr := call(t, tools.convertFile, map[string]any{argPath: in, argTarget: "png"})
	if !isErr || !strings.Contains(text, "unsupported conversion") {
		t.Errorf("result = %q, isErr = %v", text, isErr)
	}
}

func TestListTargetsTool(t *testing.T) {
	tools := newTestTools(t, "")
	text, isErr := call(t, tools.listTargets, map[string]any{argMediaType: "image/png"})
	if isErr || !strings.Contains(text, "- jpg:") {
		t.Errorf("result = %q", text)
	}
	text, _ = call(t, tools.listTargets, map[string]any{argMediaType: "application/zip"})
	if !strings.Contains(text, "cannot be converted") {
		t.Errorf("result = %q", text)
	}
	if _, isErr := call(t, tools.listTargets, map[string]any{}); !isErr {
		t.Error("no arguments should be a tool error")
	}
}

func TestPDFEditTools(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "letter.pdf", makePDF(t, "Hello World"))
	tools := newTestTools(t, "")

	text, isErr := call(t, tools.extractPDFText, map[string]any{argPath: in})
	if isErr {
		t.Fatalf("extract: %s", text)
	}
	var extracted struct {
		Session string            `json:"session"`
		Runs    []pdfedit.TextRun `json:"runs"`
	}
	if err := json.Unmarshal([]byte(text), &extracted); err != nil || len(extracted.Runs) == 0 {
		t.Fatalf("extract result %q: %v", text, err)
	}

	text, isErr = call(t, tools.editPDFText, map[string]any{
		argSession: extracted.Session, argRun: extracted.Runs[0].ID, argText: "Goodbye",
	})
	if isErr {
		t.Fatalf("edit: %s", text)
	}
	if _, isErr := call(t, tools.editPDFText, map[string]any{
		argSession: extracted.Session, argRun: "nope", argText: "x",
	}); !isErr {
		t.Error("unknown run should be a tool error")
	}

	text, isErr = call(t, tools.savePDF, map[string]any{argSession: extracted.Session, argEraseOriginal: true})
	if isErr {
		t.Fatalf("save: %s", text)
	}
	data, err := os.ReadFile(filepath.Join(dir, "edited_letter.pdf"))
	if err != nil || !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("edited pdf missing or invalid: %v", err)
	}

	if _, isErr := call(t, tools.savePDF, map[string]any{argSession: "missing"}); !isErr {
		t.Error("unknown session should be a tool error")
	}
}

func TestExtractPDFTextTool_ScaleLimit(t *testing.T) {
	in := writeFile(t, t.TempDir(), "big.pdf", makePDF(t, "Hello"))
	tools := newTestTools(t, "")
	text, isErr := call(t, tools.extractPDFText, map[string]any{argPath: in, argScale: 1000.0})
	if !isErr || !strings.Contains(text, "scale out of range") {
		t.Errorf("result = %q, isErr = %v", text, isErr)
	}
	if tools.sessions.Len() != 0 {
		t.Errorf("sessions = %d, want 0", tools.sessions.Len())
	}
}

func TestQRCodeTool(t *testing.T) {
	out := filepath.Join(t.TempDir(), "qr.png")
	tools := newTestTools(t, "")
	text, isErr := call(t, tools.generateQRCode, map[string]any{argText: "https://example.org", argOutput: out})
	if isErr {
		t.Fatalf("qr: %s", text)
	}
	data, err := os.ReadFile(out)
	if err != nil || !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Errorf("qr output missing or not PNG: %v", err)
	}
}

func TestWhatsAppLinkTool(t *testing.T) {
	tools := newTestTools(t, "")
	text, isErr := call(t, tools.whatsAppLink, map[string]any{argPhone: "+49 170 123", argMessage: "see you"})
	if isErr || text != "https://wa.me/49170123?text=see%20you" {
		t.Errorf("result = %q, isErr = %v", text, isErr)
	}
}

func TestNewLoggerLevels(t *testing.T) {
	ctx := context.Background()
	if !newLogger("json", "debug").Enabled(ctx, slog.LevelDebug) {
		t.Error("debug level not enabled")
	}
	if newLogger("", "").Enabled(ctx, slog.LevelDebug) {
		t.Error("default level should be info")
	}
	if newLogger("text", "error").Enabled(ctx, slog.LevelWarn) {
		t.Error("error level should hide warnings")
	}
}
