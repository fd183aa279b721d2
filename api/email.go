package api

import (
	"fmt"
	"net/http"

	"github.com/tooldeck/tooldeck/email"
)

func (s *Server) handleEmailGenerate(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		s.fail(w, r, "Failed to parse form", err)
		return
	}
	req := email.DraftRequest{Context: r.FormValue("context")}
	img, ok, err := formFile(r, "eventImage")
	if err != nil {
		s.fail(w, r, "Failed to read image", err)
		return
	}
	if ok {
		req.Image = &email.Image{Data: img.Data, MediaType: img.MediaType}
	}

	draft, err := s.drafter.Draft(r.Context(), req)
	if err != nil {
		s.fail(w, r, "Failed to generate email", err)
		return
	}
	writeJSON(w, http.StatusOK, DraftResponse{Success: true, Subject: draft.Subject, Body: draft.Body, Mock: draft.Mock})
}

func (s *Server) handleEmailSend(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		s.fail(w, r, "Failed to parse form", err)
		return
	}
	req := email.SendRequest{
		SenderEmail:    r.FormValue("senderEmail"),
		SenderName:     r.FormValue("senderName"),
		Subject:        r.FormValue("subject"),
		Body:           r.FormValue("body"),
		Mode:           r.FormValue("sendMode"),
		RecipientEmail: r.FormValue("recipientEmail"),
	}
	csv, ok, err := formFile(r, "csvFile")
	if err != nil {
		s.fail(w, r, "Failed to read CSV", err)
		return
	}
	if ok {
		req.RecipientsCSV = csv.Data
	}
	for i := range email.MaxAttachments {
		f, ok, err := formFile(r, fmt.Sprintf("attachment%d", i))
		if err != nil {
			s.fail(w, r, "Failed to read attachment", err)
			return
		}
		if ok {
			req.Attachments = append(req.Attachments, email.Attachment{Name: f.Name, Data: f.Data})
		}
	}

	report, err := s.mailer.Send(r.Context(), req)
	if err != nil {
		s.fail(w, r, "Failed to send email", err)
		return
	}
	writeJSON(w, http.StatusOK, SendResponse{
		Success:      true,
		Message:      report.Message,
		SuccessCount: report.SuccessCount,
		FailCount:    report.FailCount,
		Mock:         report.Mock,
	})
}
