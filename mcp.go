package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tooldeck/tooldeck/config"
	"github.com/tooldeck/tooldeck/converter"
	"github.com/tooldeck/tooldeck/pdfedit"
	"github.com/tooldeck/tooldeck/raster"
	"github.com/tooldeck/tooldeck/tools"
	"github.com/tooldeck/tooldeck/workspace"
)

// Server identity constants.
const (
	serverName    = "tooldeck"
	serverVersion = "1.0.0"
)

// MCP tool parameter keys, shared by the schema definitions and argument
// extraction.
const (
	argPath          = "path"
	argTarget        = "target"
	argQuality       = "quality"
	argScale         = "scale"
	argMediaType     = "media_type"
	argSession       = "session"
	argRun           = "run"
	argText          = "text"
	argOutput        = "output"
	argEraseOriginal = "erase_original"
	argSize          = "size"
	argPhone         = "phone"
	argMessage       = "message"
)

// editSession is an open PDF editor session plus where its input came from.
type editSession struct {
	*pdfedit.Session
	dir string
}

// mcpTools holds the state shared by the MCP tool handlers.
type mcpTools struct {
	registry  *converter.Registry
	extractor *pdfedit.Extractor
	sessions  *workspace.Store[*editSession]
	defaults  converter.Settings
	outputDir string
	logger    *slog.Logger
}

func newMCPTools(reg *converter.Registry, ex *pdfedit.Extractor, cfg *config.Config, logger *slog.Logger) *mcpTools {
	return &mcpTools{
		registry:  reg,
		extractor: ex,
		sessions:  workspace.NewStore[*editSession](cfg.MaxSessions, cfg.SessionTTL),
		defaults:  converter.SettingsFromConfig(cfg.Defaults),
		outputDir: cfg.OutputDir,
		logger:    logger,
	}
}

func serveMCP(reg *converter.Registry, cfg *config.Config, logger *slog.Logger) error {
	s := server.NewMCPServer(serverName, serverVersion)
	registerTools(s, newMCPTools(reg, pdfedit.NewExtractor(raster.NewFitz()), cfg, logger))
	logger.Info("serving MCP over stdio")
	return server.ServeStdio(s)
}

// registerTools binds MCP tool definitions to their handlers.
func registerTools(s *server.MCPServer, t *mcpTools) {
	s.AddTool(
		mcp.NewTool("convert_file",
			mcp.WithDescription("Convert a file to another format. "+
				"Pass an absolute file path or an http:// / https:// URL and a target such as png, jpg, pdf, csv, json, xlsx, html, md or txt. "+
				"The result is written as <name>_converted.<ext> and its path is returned."),
			mcp.WithString(argPath, mcp.Required(), mcp.Description("Absolute file path or http/https URL")),
			mcp.WithString(argTarget, mcp.Required(), mcp.Description("Target format, e.g. json or png")),
			mcp.WithNumber(argQuality, mcp.Description("JPEG quality between 0 and 1 (default 0.92)")),
			mcp.WithNumber(argScale, mcp.Description("Image resize / PDF render factor (default 1)")),
		),
		t.convertFile,
	)

	s.AddTool(
		mcp.NewTool("list_targets",
			mcp.WithDescription("List the formats a file or media type can be converted to."),
			mcp.WithString(argPath, mcp.Description("File path or URL to inspect")),
			mcp.WithString(argMediaType, mcp.Description("Media type, used when no path is given")),
		),
		t.listTargets,
	)

	s.AddTool(
		mcp.NewTool("get_conversion_info",
			mcp.WithDescription("Return supported categories, targets and limits."),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText(t.registry.GetConversionInfo()), nil
		},
	)

	s.AddTool(
		mcp.NewTool("extract_pdf_text",
			mcp.WithDescription("Open the first page of a PDF for editing. Returns a session id and the positioned text runs."),
			mcp.WithString(argPath, mcp.Required(), mcp.Description("Absolute path or URL of the PDF")),
			mcp.WithNumber(argScale, mcp.Description("Render scale (default 1.3, at most 8)")),
		),
		t.extractPDFText,
	)

	s.AddTool(
		mcp.NewTool("edit_pdf_text",
			mcp.WithDescription("Replace the text of one run in an open PDF session."),
			mcp.WithString(argSession, mcp.Required(), mcp.Description("Session id from extract_pdf_text")),
			mcp.WithString(argRun, mcp.Required(), mcp.Description("Run id")),
			mcp.WithString(argText, mcp.Required(), mcp.Description("New text")),
		),
		t.editPDFText,
	)

	s.AddTool(
		mcp.NewTool("save_pdf",
			mcp.WithDescription("Rebuild the edited page as a single-page PDF and write it to disk."),
			mcp.WithString(argSession, mcp.Required(), mcp.Description("Session id from extract_pdf_text")),
			mcp.WithString(argOutput, mcp.Description("Output path (default edited_<name> next to the input)")),
			mcp.WithBoolean(argEraseOriginal, mcp.Description("Paint white over the original text before drawing the edit")),
		),
		t.savePDF,
	)

	s.AddTool(
		mcp.NewTool("generate_qr_code",
			mcp.WithDescription("Encode text as a QR code PNG and write it to disk."),
			mcp.WithString(argText, mcp.Required(), mcp.Description("Text or URL to encode")),
			mcp.WithNumber(argSize, mcp.Description("Image size in pixels (default 180)")),
			mcp.WithString(argOutput, mcp.Description("Output path (default qr_<id>.png in the output directory)")),
		),
		t.generateQRCode,
	)

	s.AddTool(
		mcp.NewTool("whatsapp_link",
			mcp.WithDescription("Build a wa.me click-to-chat link with a prefilled message."),
			mcp.WithString(argPhone, mcp.Required(), mcp.Description("Phone number in international format")),
			mcp.WithString(argMessage, mcp.Required(), mcp.Description("Message text")),
		),
		t.whatsAppLink,
	)
}

func argString(req mcp.CallToolRequest, name string) string {
	s, _ := req.Params.Arguments[name].(string)
	return strings.TrimSpace(s)
}

func argFloat(req mcp.CallToolRequest, name string) float64 {
	f, _ := req.Params.Arguments[name].(float64)
	return f
}

func argBool(req mcp.CallToolRequest, name string) bool {
	b, _ := req.Params.Arguments[name].(bool)
	return b
}

func isURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// inputDir is the directory of a local input, or "" for URLs.
func inputDir(input string) string {
	if isURL(input) {
		return ""
	}
	return filepath.Dir(strings.TrimPrefix(input, "file://"))
}

// outputPath places name in the configured output directory, or in dir
// (the input's directory), or in the working directory.
func (t *mcpTools) outputPath(dir, name string) string {
	switch {
	case t.outputDir != "":
		return filepath.Join(t.outputDir, name)
	case dir != "":
		return filepath.Join(dir, name)
	}
	return name
}

func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (t *mcpTools) convertFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, target := argString(req, argPath), argString(req, argTarget)
	if input == "" || target == "" {
		return mcp.NewToolResultError(argPath + " and " + argTarget + " are required"), nil
	}
	file, err := t.registry.Load(ctx, input)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	settings := t.defaults
	if q := argFloat(req, argQuality); q > 0 {
		settings.ImageQuality = q
	}
	if s := argFloat(req, argScale); s > 0 {
		settings.Scale = s
	}

	out, err := t.registry.Convert(ctx, file, target, settings)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path := t.outputPath(inputDir(input), out.Name)
	if err := writeOutput(path, out.Data); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t.logger.Info("conversion written", "input", input, "output", path)
	return mcp.NewToolResultText(fmt.Sprintf("%s\nWrote %d bytes to %s", out.Status, len(out.Data), path)), nil
}

func (t *mcpTools) listTargets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mt := argString(req, argMediaType)
	if p := argString(req, argPath); p != "" {
		file, err := t.registry.Load(ctx, p)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		mt = file.MediaType
	}
	if mt == "" {
		return mcp.NewToolResultError(argPath + " or " + argMediaType + " is required"), nil
	}
	c := converter.CategoryOf(mt)
	targets := converter.Targets(c)
	if len(targets) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("%s (%s) cannot be converted", mt, c)), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s) converts to:\n", mt, c)
	for _, tg := range targets {
		fmt.Fprintf(&sb, "- %s: %s\n", tg.Format, tg.Description)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (t *mcpTools) extractPDFText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input := argString(req, argPath)
	if input == "" {
		return mcp.NewToolResultError(argPath + " is required"), nil
	}
	file, err := t.registry.Load(ctx, input)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if file.Category() != converter.PDF {
		return mcp.NewToolResultError(fmt.Sprintf("%s is not a PDF", input)), nil
	}
	sess, err := pdfedit.Open(ctx, t.extractor, file.Name, file.Data, argFloat(req, argScale))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id := uuid.NewString()
	t.sessions.Put(id, &editSession{Session: sess, dir: inputDir(input)})

	snap := sess.Snapshot()
	body, err := json.MarshalIndent(struct {
		Session string            `json:"session"`
		Pages   int               `json:"pages"`
		Runs    []pdfedit.TextRun `json:"runs"`
	}{id, snap.Pages, sess.Runs()}, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(body)), nil
}

func (t *mcpTools) session(req mcp.CallToolRequest) (*editSession, *mcp.CallToolResult) {
	id := argString(req, argSession)
	sess, ok := t.sessions.Get(id)
	if !ok {
		return nil, mcp.NewToolResultError(fmt.Sprintf("unknown session %q", id))
	}
	return sess, nil
}

func (t *mcpTools) editPDFText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := t.session(req)
	if errResult != nil {
		return errResult, nil
	}
	text, _ := req.Params.Arguments[argText].(string)
	if err := sess.Edit(argString(req, argRun), text); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("ok"), nil
}

func (t *mcpTools) savePDF(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := t.session(req)
	if errResult != nil {
		return errResult, nil
	}
	data, err := sess.Save(pdfedit.RebuildOptions{EraseOriginal: argBool(req, argEraseOriginal)})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path := argString(req, argOutput)
	if path == "" {
		path = t.outputPath(sess.dir, sess.EditedName())
	}
	if err := writeOutput(path, data); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t.logger.Info("edited pdf written", "session", argString(req, argSession), "output", path)
	return mcp.NewToolResultText(fmt.Sprintf("Wrote %d bytes to %s", len(data), path)), nil
}

func (t *mcpTools) generateQRCode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	png, err := tools.QRCode(argString(req, argText), int(argFloat(req, argSize)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path := argString(req, argOutput)
	if path == "" {
		path = t.outputPath("", "qr_"+uuid.NewString()[:8]+".png")
	}
	if err := writeOutput(path, png); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Wrote QR code to %s", path)), nil
}

func (t *mcpTools) whatsAppLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, _ := req.Params.Arguments[argMessage].(string)
	link, err := tools.WhatsAppLink(argString(req, argPhone), message)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(link), nil
}
