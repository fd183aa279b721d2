package email

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/tooldeck/tooldeck/config"
)

// Send modes.
const (
	ModeSingle = "single"
	ModeBulk   = "bulk"
)

// Attachment is a file carried by every message of a send.
type Attachment struct {
	Name string
	Data []byte
}

// SendRequest is one send operation. Bulk mode reads recipients from
// RecipientsCSV; single mode uses RecipientEmail.
type SendRequest struct {
	SenderEmail    string
	SenderName     string
	Subject        string
	Body           string
	Mode           string
	RecipientEmail string
	RecipientsCSV  []byte
	Attachments    []Attachment
}

// SendReport summarises a send.
type SendReport struct {
	Message      string `json:"message"`
	SuccessCount int    `json:"successCount"`
	FailCount    int    `json:"failCount"`
	Mock         bool   `json:"mock,omitempty"`
}

// Dialer opens an SMTP connection. *gomail.Dialer satisfies it.
type Dialer interface {
	Dial() (gomail.SendCloser, error)
}

// Mailer sends messages one recipient at a time. With no Dialer it reports
// what would have been sent.
type Mailer struct {
	dialer        Dialer
	maxAttachment int64
	logger        *slog.Logger
}

// NewMailer creates a Mailer. A nil dialer selects mock mode.
func NewMailer(d Dialer, maxAttachment int64, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{dialer: d, maxAttachment: maxAttachment, logger: logger}
}

// NewMailerFromConfig dials cfg's SMTP server when credentials are set.
func NewMailerFromConfig(cfg *config.Config, logger *slog.Logger) *Mailer {
	var d Dialer
	if cfg.HasSMTP() {
		d = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailUser, cfg.EmailPass)
	}
	return NewMailer(d, cfg.MaxAttachmentBytes, logger)
}

// Mock reports whether sends are simulated.
func (m *Mailer) Mock() bool { return m.dialer == nil }

// Send validates req, resolves its recipients and delivers one message per
// recipient in order. A failed recipient is logged and counted; the rest
// are still attempted. Cancelling ctx stops before the next recipient.
func (m *Mailer) Send(ctx context.Context, req SendRequest) (SendReport, error) {
	recipients, err := m.validate(req)
	if err != nil {
		return SendReport{}, err
	}

	if m.dialer == nil {
		m.logger.Warn("email credentials not configured, mock send", "recipients", len(recipients))
		target := "multiple recipients"
		if req.Mode == ModeSingle {
			target = recipients[0].Email
		}
		return SendReport{
			Message:      "Mock: Email would be sent to " + target,
			SuccessCount: len(recipients),
			Mock:         true,
		}, nil
	}

	conn, err := m.dialer.Dial()
	if err != nil {
		return SendReport{}, fmt.Errorf("connect smtp: %w", err)
	}
	defer conn.Close()

	var report SendReport
	for _, rcpt := range recipients {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		msg := newMessage(req, rcpt)
		if err := gomail.Send(conn, msg); err != nil {
			m.logger.Error("send email failed", "to", rcpt.Email, "error", err)
			report.FailCount++
			continue
		}
		report.SuccessCount++
	}
	report.Message = fmt.Sprintf("Successfully sent %d email(s)", report.SuccessCount)
	if report.FailCount > 0 {
		report.Message += fmt.Sprintf(", %d failed", report.FailCount)
	}
	return report, nil
}

func (m *Mailer) validate(req SendRequest) ([]Recipient, error) {
	if strings.TrimSpace(req.SenderEmail) == "" || strings.TrimSpace(req.SenderName) == "" ||
		strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Body) == "" {
		return nil, ErrMissingFields
	}
	if len(req.Attachments) > MaxAttachments {
		return nil, fmt.Errorf("%w: at most %d files", ErrInvalidAttachment, MaxAttachments)
	}
	for _, a := range req.Attachments {
		if m.maxAttachment > 0 && int64(len(a.Data)) > m.maxAttachment {
			return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalidAttachment, a.Name, m.maxAttachment)
		}
	}

	switch req.Mode {
	case ModeSingle:
		email := strings.TrimSpace(req.RecipientEmail)
		if email == "" {
			return nil, fmt.Errorf("%w: recipient email required", ErrMissingFields)
		}
		return []Recipient{{Email: email}}, nil
	case ModeBulk:
		if len(req.RecipientsCSV) == 0 {
			return nil, fmt.Errorf("%w: CSV file required for bulk send", ErrMissingFields)
		}
		return ParseRecipients(req.RecipientsCSV)
	}
	return nil, fmt.Errorf("%w: send mode must be %q or %q, got %q", ErrMissingFields, ModeSingle, ModeBulk, req.Mode)
}

func newMessage(req SendRequest, rcpt Recipient) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", req.SenderEmail, req.SenderName)
	if rcpt.Name != "" {
		msg.SetAddressHeader("To", rcpt.Email, rcpt.Name)
	} else {
		msg.SetHeader("To", rcpt.Email)
	}
	msg.SetHeader("Subject", req.Subject)
	msg.SetBody("text/plain", req.Body)
	msg.AddAlternative("text/html", BodyHTML(req.Body))
	for _, a := range req.Attachments {
		data := a.Data
		msg.Attach(a.Name, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}))
	}
	return msg
}

// BodyHTML escapes body and turns its line breaks into <br>.
func BodyHTML(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	return strings.ReplaceAll(html.EscapeString(body), "\n", "<br>")
}
