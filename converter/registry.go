package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/tooldeck/tooldeck/config"
	"github.com/tooldeck/tooldeck/raster"
)

// convertFn is one per-format converter. It must not modify in.Data.
type convertFn func(ctx context.Context, in UploadedFile, s Settings) (result, error)

// result is a converter's payload plus an optional note appended to the
// user-facing status.
type result struct {
	data []byte
	note string
}

// Registry dispatches (category, target) pairs to converters.
type Registry struct {
	families      map[Category]map[string]convertFn
	raster        raster.Rasterizer
	htmlConverter *md.Converter
	maxFileBytes  int64
	logger        *slog.Logger
}

// Option customises a Registry.
type Option func(*Registry)

// WithRasterizer replaces the PDF page renderer.
func WithRasterizer(r raster.Rasterizer) Option {
	return func(reg *Registry) { reg.raster = r }
}

// WithLogger sets the logger used for conversion failures.
func WithLogger(l *slog.Logger) Option {
	return func(reg *Registry) { reg.logger = l }
}

// New creates a Registry bounded by cfg.MaxFileSizeBytes.
func New(cfg *config.Config, opts ...Option) *Registry {
	r := &Registry{
		raster:        raster.NewFitz(),
		htmlConverter: md.NewConverter("", true, nil),
		maxFileBytes:  cfg.MaxFileSizeBytes,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.families = r.buildFamilies()
	r.mustCoverTargets()
	return r
}

func (r *Registry) buildFamilies() map[Category]map[string]convertFn {
	return map[Category]map[string]convertFn{
		Image: {
			"png":  imageTo(encodePNG),
			"jpg":  imageTo(encodeJPEG),
			"gif":  imageTo(encodeGIF),
			"bmp":  imageTo(encodeBMP),
			"tiff": imageTo(encodeTIFF),
			"pdf":  imageToPDF,
		},
		PDF: {
			"png": r.pdfToImage(encodePNG),
			"jpg": r.pdfToImage(encodeJPEG),
			"txt": pdfToText,
			"pdf": pdfOptimize,
		},
		Document: {
			"html": documentTo(renderDocumentHTML),
			"txt":  documentTo(renderDocumentText),
			"md":   documentTo(renderDocumentMarkdown),
		},
		Spreadsheet: {
			"csv":  tableTo(decodeSpreadsheet, encodeCSV),
			"json": tableTo(decodeSpreadsheet, encodeJSONTable),
			"xlsx": tableTo(decodeSpreadsheet, encodeXLSX),
			"html": tableTo(decodeSpreadsheet, encodeHTMLTable),
			"md":   tableTo(decodeSpreadsheet, encodeMarkdownTable),
		},
		JSON: {
			"csv":  tableTo(decodeJSONTable, encodeCSV),
			"xlsx": tableTo(decodeJSONTable, encodeXLSX),
			"html": tableTo(decodeJSONTable, encodeHTMLTable),
			"md":   tableTo(decodeJSONTable, encodeMarkdownTable),
		},
		Text: {
			"csv":  textToCSV,
			"json": textToJSON,
			"html": textToHTML,
			"md":   r.textToMarkdown,
			"pdf":  textToPDF,
		},
	}
}

// mustCoverTargets panics when an offered target has no converter.
func (r *Registry) mustCoverTargets() {
	for c, targets := range targetTable {
		for _, t := range targets {
			if r.families[c][t.Format] == nil {
				panic(fmt.Sprintf("converter: target %s offered for %s has no converter", t.Format, c))
			}
		}
	}
}

// Supports reports whether the registry converts category c to format.
func (r *Registry) Supports(c Category, format string) bool {
	return r.families[c][normalizeFormat(format)] != nil
}

// Convert turns file into format. Failures wrap one of the package's error
// sentinels (or the context's error) and never carry partial output.
// A cancelled ctx returns immediately; the abandoned converter finishes in
// the background and its result is dropped.
func (r *Registry) Convert(ctx context.Context, file UploadedFile, format string, s Settings) (Output, error) {
	if file.Size() > r.maxFileBytes {
		return Output{}, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, file.Size(), r.maxFileBytes)
	}
	c := file.Category()
	if c == Unknown {
		return Output{}, fmt.Errorf("%w: %q cannot be converted", ErrUnknownFormat, file.MediaType)
	}
	target, ok := LookupTarget(c, format)
	fn := r.families[c][target.Format]
	if !ok || fn == nil {
		return Output{}, fmt.Errorf("%w: %s → %s", ErrUnsupportedConversion, c, normalizeFormat(format))
	}

	res, err := r.run(ctx, fn, file, s.Normalize())
	if err != nil {
		r.logger.Warn("conversion failed",
			"file", file.Name, "category", c, "target", target.Format, "error", err)
		return Output{}, err
	}

	status := fmt.Sprintf("Converted %s to %s", file.Name, strings.ToUpper(target.Format))
	if res.note != "" {
		status += " (" + res.note + ")"
	}
	return Output{
		Name:      OutputName(file.Name, target),
		MediaType: target.MediaType,
		Data:      res.data,
		Status:    status,
	}, nil
}

func (r *Registry) run(ctx context.Context, fn convertFn, file UploadedFile, s Settings) (result, error) {
	type outcome struct {
		res result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: malformed(file.Name, fmt.Errorf("decoder panic: %v", p))}
			}
		}()
		res, err := fn(ctx, file, s)
		done <- outcome{res, err}
	}()

	select {
	case <-ctx.Done():
		return result{}, ctx.Err()
	case o := <-done:
		if o.err != nil {
			return result{}, classify(file.Name, o.err)
		}
		if len(o.res.data) == 0 {
			return result{}, malformed(file.Name, errors.New("conversion produced no output"))
		}
		return o.res, nil
	}
}

// classify keeps taxonomy errors as they are and treats anything else as
// malformed input.
func classify(name string, err error) error {
	switch {
	case errors.Is(err, ErrMalformedInput),
		errors.Is(err, ErrUnsupportedConversion),
		errors.Is(err, ErrUnknownFormat),
		errors.Is(err, ErrTooLarge),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return malformed(name, err)
}

// GetConversionInfo returns a Markdown summary of categories, targets and limits.
func (r *Registry) GetConversionInfo() string {
	var sb strings.Builder
	sb.WriteString("# ToolDeck Conversion Info\n\n## Targets by category\n")
	for _, c := range Categories {
		formats := make([]string, 0, len(targetTable[c]))
		for _, t := range targetTable[c] {
			formats = append(formats, t.Format)
		}
		sort.Strings(formats)
		fmt.Fprintf(&sb, "- %s: %s\n", c, strings.Join(formats, ", "))
	}
	fmt.Fprintf(&sb, `
## Limits
- Max file size: %d MB
- PDF rasterization renders page 1 only`, r.maxFileBytes>>20)
	return sb.String()
}
