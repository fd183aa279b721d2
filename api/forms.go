package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/tooldeck/tooldeck/converter"
)

// parseForm accepts multipart and url-encoded bodies.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return badRequest("parse form: %v", err)
	}
	return nil
}

// formFile reads an uploaded file. ok is false when the field is absent.
func formFile(r *http.Request, field string) (f converter.UploadedFile, ok bool, err error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return converter.UploadedFile{}, false, nil
	}
	header := r.MultipartForm.File[field][0]
	src, err := header.Open()
	if err != nil {
		return converter.UploadedFile{}, false, fmt.Errorf("open %s: %w", field, err)
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return converter.UploadedFile{}, false, fmt.Errorf("read %s: %w", field, err)
	}
	return converter.NewUploadedFile(header.Filename, header.Header.Get("Content-Type"), data), true, nil
}

// formFloat parses an optional numeric field; missing yields def.
func formFloat(r *http.Request, field string, def float64) (float64, error) {
	v := r.FormValue(field)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, badRequest("%s must be a number", field)
	}
	return f, nil
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

// writeFile sends data as a download named name.
func writeFile(w http.ResponseWriter, name, mediaType string, data []byte) {
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
