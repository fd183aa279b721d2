package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tooldeck/tooldeck/converter"
	"github.com/tooldeck/tooldeck/workspace"
)

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	mt := r.URL.Query().Get("mediaType")
	if mt == "" {
		mt = converter.MediaTypeByName(r.URL.Query().Get("name"))
	}
	c := converter.CategoryOf(mt)
	writeJSON(w, http.StatusOK, TargetsResponse{MediaType: mt, Category: c, Targets: converter.Targets(c)})
}

func (s *Server) handleConversionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(s.registry.GetConversionInfo()))
}

// handleConvert runs one conversion in the caller's workspace session and
// streams the output back as a download.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
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

	id, ctl := s.workspaces.Open(r.Header.Get(headerSessionID))
	w.Header().Set(headerSessionID, id)

	settings, err := formSettings(r, ctl.State().Settings)
	if err != nil {
		s.fail(w, r, "Invalid settings", err)
		return
	}
	res, err := ctl.Submit(r.Context(), file, r.FormValue("target"), settings)
	if err != nil {
		s.fail(w, r, "Failed to convert file", err)
		return
	}
	w.Header().Set(headerStatus, res.Output.Status)
	w.Header().Set(headerResultID, res.ID.String())
	writeFile(w, res.Output.Name, res.Output.MediaType, res.Output.Data)
}

// formSettings overlays the optional quality, scale, compression and dpi
// fields on base.
func formSettings(r *http.Request, base converter.Settings) (converter.Settings, error) {
	var err error
	if base.ImageQuality, err = formFloat(r, "quality", base.ImageQuality); err != nil {
		return base, err
	}
	if base.Scale, err = formFloat(r, "scale", base.Scale); err != nil {
		return base, err
	}
	if base.DPI, err = formFloat(r, "dpi", base.DPI); err != nil {
		return base, err
	}
	level, err := formFloat(r, "compression", float64(base.CompressionLevel))
	if err != nil {
		return base, err
	}
	base.CompressionLevel = int(level)
	return base, nil
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctl, err := s.lookupWorkspace(r)
	if err != nil {
		s.fail(w, r, "Failed to cancel", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": ctl.Cancel()})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	ctl, err := s.lookupWorkspace(r)
	if err != nil {
		s.fail(w, r, "Failed to read state", err)
		return
	}
	writeJSON(w, http.StatusOK, ctl.State())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctl, err := s.lookupWorkspace(r)
	if err != nil {
		s.fail(w, r, "Failed to read history", err)
		return
	}
	results := ctl.History().List()
	items := make([]HistoryItem, len(results))
	for i, res := range results {
		items[i] = historyItem(res)
	}
	writeJSON(w, http.StatusOK, HistoryResponse{SessionID: r.Header.Get(headerSessionID), Results: items})
}

func (s *Server) handleHistoryDownload(w http.ResponseWriter, r *http.Request) {
	ctl, err := s.lookupWorkspace(r)
	if err != nil {
		s.fail(w, r, "Failed to read history", err)
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, "Invalid result id", badRequest("invalid result id %q", r.PathValue("id")))
		return
	}
	res, ok := ctl.History().Get(id)
	if !ok {
		s.fail(w, r, "Result not found", notFound("result %s", id))
		return
	}
	w.Header().Set(headerStatus, res.Output.Status)
	writeFile(w, res.Output.Name, res.Output.MediaType, res.Output.Data)
}

func (s *Server) lookupWorkspace(r *http.Request) (*workspace.Controller, error) {
	id := r.Header.Get(headerSessionID)
	if id == "" {
		return nil, badRequest("%s header is required", headerSessionID)
	}
	ctl, ok := s.workspaces.Lookup(id)
	if !ok {
		return nil, notFound("session %s", id)
	}
	return ctl, nil
}
