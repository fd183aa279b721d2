package api

import (
	"time"

	"github.com/tooldeck/tooldeck/converter"
	"github.com/tooldeck/tooldeck/pdfedit"
	"github.com/tooldeck/tooldeck/workspace"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// BannerResponse answers GET /.
type BannerResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// TargetsResponse lists what a media type can be converted to.
type TargetsResponse struct {
	MediaType string             `json:"mediaType"`
	Category  converter.Category `json:"category"`
	Targets   []converter.Target `json:"targets"`
}

// HistoryItem describes one finished conversion without its payload.
type HistoryItem struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Name      string    `json:"name"`
	MediaType string    `json:"mediaType"`
	Size      int       `json:"size"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func historyItem(r workspace.Result) HistoryItem {
	return HistoryItem{
		ID:        r.ID.String(),
		Source:    r.Source,
		Target:    r.Target,
		Name:      r.Output.Name,
		MediaType: r.Output.MediaType,
		Size:      len(r.Output.Data),
		Status:    r.Output.Status,
		CreatedAt: r.CreatedAt,
	}
}

// HistoryResponse lists a session's results, most recent first.
type HistoryResponse struct {
	SessionID string        `json:"sessionId"`
	Results   []HistoryItem `json:"results"`
}

// PDFSessionResponse is an editor session with its runs and overlays.
type PDFSessionResponse struct {
	SessionID string `json:"sessionId"`
	pdfedit.Snapshot
}

// EditRunRequest replaces a run's text.
type EditRunRequest struct {
	Str *string `json:"str"`
}

// EditRunResponse echoes the edited run.
type EditRunResponse struct {
	ID      string          `json:"id"`
	Str     string          `json:"str"`
	Overlay pdfedit.Overlay `json:"overlay"`
}

// RenderRequest re-extracts the page at a new scale.
type RenderRequest struct {
	Scale float64 `json:"scale"`
}

// DraftResponse answers POST /api/email/generate.
type DraftResponse struct {
	Success bool   `json:"success"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Mock    bool   `json:"mock,omitempty"`
}

// SendResponse answers POST /api/email/send.
type SendResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	SuccessCount int    `json:"successCount"`
	FailCount    int    `json:"failCount"`
	Mock         bool   `json:"mock,omitempty"`
}

// QRRequest asks for a QR code image.
type QRRequest struct {
	Text string `json:"text"`
	Size int    `json:"size"`
}

// WhatsAppRequest asks for a click-to-chat link.
type WhatsAppRequest struct {
	Phone   string  `json:"phone"`
	Message string  `json:"message"`
	Delay   float64 `json:"delay"`
}

// WhatsAppResponse carries the link and the delay the client should wait
// before opening it.
type WhatsAppResponse struct {
	Success      bool    `json:"success"`
	URL          string  `json:"url"`
	DelaySeconds float64 `json:"delaySeconds"`
}
