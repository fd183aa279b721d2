package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/tooldeck/tooldeck/converter"
	"github.com/tooldeck/tooldeck/email"
	"github.com/tooldeck/tooldeck/pdfedit"
	"github.com/tooldeck/tooldeck/tools"
	"github.com/tooldeck/tooldeck/workspace"
)

var (
	errBadRequest = errors.New("bad request")
	errNotFound   = errors.New("not found")
)

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errNotFound, fmt.Sprintf(format, args...))
}

// statusFor maps a handler error to its HTTP status.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes), errors.Is(err, converter.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, workspace.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, errNotFound), errors.Is(err, pdfedit.ErrUnknownRun):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, converter.ErrUnsupportedConversion),
		errors.Is(err, converter.ErrUnknownFormat),
		errors.Is(err, converter.ErrMalformedInput),
		errors.Is(err, workspace.ErrNoFile),
		errors.Is(err, workspace.ErrNoTarget),
		errors.Is(err, pdfedit.ErrInvalidPDF),
		errors.Is(err, pdfedit.ErrNoPage),
		errors.Is(err, pdfedit.ErrScaleRange),
		errors.Is(err, email.ErrMissingFields),
		errors.Is(err, email.ErrNoRecipients),
		errors.Is(err, email.ErrInvalidAttachment),
		errors.Is(err, tools.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return 499 // client closed request
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fail writes err as an ErrorResponse. Client errors report the error
// itself; server errors report message with the cause as details.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	body := ErrorResponse{Error: message, Details: err.Error()}
	if status < http.StatusInternalServerError {
		body = ErrorResponse{Error: err.Error()}
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Error(message, "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, body)
}
