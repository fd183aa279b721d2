package api

import (
	"net/http"
	"strconv"

	"github.com/tooldeck/tooldeck/tools"
)

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	var req QRRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, "Invalid request", err)
		return
	}
	img, err := tools.QRCode(req.Text, req.Size)
	if err != nil {
		s.fail(w, r, "Failed to generate QR code", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	_, _ = w.Write(img)
}

func (s *Server) handleWhatsApp(w http.ResponseWriter, r *http.Request) {
	var req WhatsAppRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, "Invalid request", err)
		return
	}
	if req.Delay < 0 {
		s.fail(w, r, "Invalid request", badRequest("delay must not be negative"))
		return
	}
	link, err := tools.WhatsAppLink(req.Phone, req.Message)
	if err != nil {
		s.fail(w, r, "Failed to build link", err)
		return
	}
	writeJSON(w, http.StatusOK, WhatsAppResponse{Success: true, URL: link, DelaySeconds: req.Delay})
}
