package api

import (
	"bytes"
	"image/png"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/tooldeck/tooldeck/converter"
	"github.com/tooldeck/tooldeck/pdfedit"
)

func (s *Server) handlePDFOpen(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		s.fail(w, r, "Failed to parse form", err)
		return
	}
	file, ok, err := formFile(r, "file")
	if err != nil {
		s.fail(w, r, "Failed to read file", err)
		return
	}
	if !ok {
		s.fail(w, r, "Missing file", badRequest("file is required"))
		return
	}
	if file.Category() != converter.PDF {
		s.fail(w, r, "Not a PDF", badRequest("%s is %s, not a PDF", file.Name, file.MediaType))
		return
	}
	scale, err := formFloat(r, "scale", pdfedit.DefaultScale)
	if err != nil {
		s.fail(w, r, "Invalid scale", err)
		return
	}

	sess, err := pdfedit.Open(r.Context(), s.extractor, file.Name, file.Data, scale)
	if err != nil {
		s.fail(w, r, "Failed to open PDF", err)
		return
	}
	id := uuid.NewString()
	s.pdfSessions.Put(id, sess)
	writeJSON(w, http.StatusCreated, PDFSessionResponse{SessionID: id, Snapshot: sess.Snapshot()})
}

func (s *Server) pdfSession(r *http.Request) (string, *pdfedit.Session, error) {
	id := r.PathValue("id")
	sess, ok := s.pdfSessions.Get(id)
	if !ok {
		return id, nil, notFound("pdf session %s", id)
	}
	return id, sess, nil
}

func (s *Server) handlePDFSnapshot(w http.ResponseWriter, r *http.Request) {
	id, sess, err := s.pdfSession(r)
	if err != nil {
		s.fail(w, r, "Session not found", err)
		return
	}
	writeJSON(w, http.StatusOK, PDFSessionResponse{SessionID: id, Snapshot: sess.Snapshot()})
}

func (s *Server) handlePDFClose(w http.ResponseWriter, r *http.Request) {
	if !s.pdfSessions.Delete(r.PathValue("id")) {
		s.fail(w, r, "Session not found", notFound("pdf session %s", r.PathValue("id")))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePDFRaster(w http.ResponseWriter, r *http.Request) {
	_, sess, err := s.pdfSession(r)
	if err != nil {
		s.fail(w, r, "Session not found", err)
		return
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, sess.Raster().Image); err != nil {
		s.fail(w, r, "Failed to encode page", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

func (s *Server) handlePDFEditRun(w http.ResponseWriter, r *http.Request) {
	_, sess, err := s.pdfSession(r)
	if err != nil {
		s.fail(w, r, "Session not found", err)
		return
	}
	var req EditRunRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, "Invalid request", err)
		return
	}
	if req.Str == nil {
		s.fail(w, r, "Invalid request", badRequest("str is required"))
		return
	}
	runID := r.PathValue("runId")
	if err := sess.Edit(runID, *req.Str); err != nil {
		s.fail(w, r, "Failed to edit text", err)
		return
	}
	ov, err := sess.Overlay(runID)
	if err != nil {
		s.fail(w, r, "Failed to edit text", err)
		return
	}
	writeJSON(w, http.StatusOK, EditRunResponse{ID: runID, Str: *req.Str, Overlay: ov})
}

func (s *Server) handlePDFRender(w http.ResponseWriter, r *http.Request) {
	id, sess, err := s.pdfSession(r)
	if err != nil {
		s.fail(w, r, "Session not found", err)
		return
	}
	var req RenderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, "Invalid request", err)
		return
	}
	if err := sess.Render(r.Context(), req.Scale); err != nil {
		s.fail(w, r, "Failed to render page", err)
		return
	}
	writeJSON(w, http.StatusOK, PDFSessionResponse{SessionID: id, Snapshot: sess.Snapshot()})
}

func (s *Server) handlePDFSave(w http.ResponseWriter, r *http.Request) {
	_, sess, err := s.pdfSession(r)
	if err != nil {
		s.fail(w, r, "Session not found", err)
		return
	}
	var opts pdfedit.RebuildOptions
	if v := r.URL.Query().Get("eraseOriginal"); v != "" {
		if opts.EraseOriginal, err = strconv.ParseBool(v); err != nil {
			s.fail(w, r, "Invalid request", badRequest("eraseOriginal must be a boolean"))
			return
		}
	}
	data, err := sess.Save(opts)
	if err != nil {
		s.fail(w, r, "Failed to save PDF", err)
		return
	}
	writeFile(w, sess.EditedName(), "application/pdf", data)
}
