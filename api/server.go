// Package api serves the ToolDeck backend over HTTP: file conversion
// sessions, the PDF text editor, the email assistant and the small tools.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/tooldeck/tooldeck/config"
	"github.com/tooldeck/tooldeck/converter"
	"github.com/tooldeck/tooldeck/email"
	"github.com/tooldeck/tooldeck/pdfedit"
	"github.com/tooldeck/tooldeck/raster"
	"github.com/tooldeck/tooldeck/workspace"
)

// Service information
const (
	ServiceName    = "tooldeck"
	ServiceVersion = "1.0.0"
)

const (
	headerSessionID = "X-Session-ID"
	headerStatus    = "X-Conversion-Status"
	headerResultID  = "X-Result-ID"

	multipartMemory = 32 << 20
	formOverhead    = 1 << 20
	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

// Server holds the handlers' dependencies.
type Server struct {
	cfg         *config.Config
	registry    *converter.Registry
	workspaces  *workspace.Sessions
	pdfSessions *workspace.Store[*pdfedit.Session]
	extractor   *pdfedit.Extractor
	drafter     *email.Drafter
	mailer      *email.Mailer
	logger      *slog.Logger
	maxBody     int64
}

// Option customises a Server.
type Option func(*Server)

// WithExtractor replaces the PDF editor's page extractor.
func WithExtractor(ex *pdfedit.Extractor) Option {
	return func(s *Server) { s.extractor = ex }
}

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer wires the handlers to their backends.
func NewServer(cfg *config.Config, reg *converter.Registry, drafter *email.Drafter, mailer *email.Mailer, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		registry:  reg,
		drafter:   drafter,
		mailer:    mailer,
		extractor: pdfedit.NewExtractor(raster.NewFitz()),
		logger:    slog.Default(),
		maxBody:   max(cfg.MaxFileSizeBytes, (email.MaxAttachments+1)*cfg.MaxAttachmentBytes) + formOverhead,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.workspaces = workspace.NewSessions(reg, cfg, s.logger)
	s.pdfSessions = workspace.NewStore[*pdfedit.Session](cfg.MaxSessions, cfg.SessionTTL)
	s.pdfSessions.OnEvict(func(id string, _ *pdfedit.Session) {
		s.logger.Debug("pdf session evicted", "session", id)
	})
	return s
}

// Handler returns the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleBanner)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/convert/targets", s.handleTargets)
	mux.HandleFunc("GET /api/convert/info", s.handleConversionInfo)
	mux.HandleFunc("POST /api/convert", s.handleConvert)
	mux.HandleFunc("POST /api/convert/cancel", s.handleCancel)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/history/{id}", s.handleHistoryDownload)

	mux.HandleFunc("POST /api/pdf/sessions", s.handlePDFOpen)
	mux.HandleFunc("GET /api/pdf/sessions/{id}", s.handlePDFSnapshot)
	mux.HandleFunc("DELETE /api/pdf/sessions/{id}", s.handlePDFClose)
	mux.HandleFunc("GET /api/pdf/sessions/{id}/raster", s.handlePDFRaster)
	mux.HandleFunc("PATCH /api/pdf/sessions/{id}/runs/{runId}", s.handlePDFEditRun)
	mux.HandleFunc("POST /api/pdf/sessions/{id}/render", s.handlePDFRender)
	mux.HandleFunc("POST /api/pdf/sessions/{id}/save", s.handlePDFSave)

	mux.HandleFunc("POST /api/email/generate", s.handleEmailGenerate)
	mux.HandleFunc("POST /api/email/send", s.handleEmailSend)

	mux.HandleFunc("POST /api/qr", s.handleQR)
	mux.HandleFunc("POST /api/whatsapp/link", s.handleWhatsApp)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{s.cfg.FrontendURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", headerSessionID},
		ExposedHeaders:   []string{headerSessionID, headerStatus, headerResultID, "Content-Disposition"},
		AllowCredentials: true,
	})
	return c.Handler(s.logRequests(s.limitBody(mux)))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 300 * time.Second, // conversions and SMTP batches can be slow
		IdleTimeout:  120 * time.Second,
	}

	go s.sweep(ctx)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "port", s.cfg.Port, "frontend", s.cfg.FrontendURL)
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// sweep drops idle sessions until ctx is done.
func (s *Server) sweep(ctx context.Context) {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.workspaces.Sweep() + s.pdfSessions.Sweep(); n > 0 {
				s.logger.Debug("swept idle sessions", "count", n)
			}
		}
	}
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

func (s *Server) handleBanner(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BannerResponse{Message: "ToolDeck Backend API", Status: "running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": ServiceName,
		"version": ServiceVersion,
		"ai":      !s.drafter.Mock(),
		"smtp":    !s.mailer.Mock(),
	})
}
