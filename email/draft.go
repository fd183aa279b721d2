package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Image is an optional picture of the event passed to the model.
type Image struct {
	Data      []byte
	MediaType string
}

// DraftRequest describes the email to write. Context, Image or both must
// be present.
type DraftRequest struct {
	Context string
	Image   *Image
}

// Draft is a generated subject and body.
type Draft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Mock    bool   `json:"mock,omitempty"`
}

// Model produces free text from a prompt and an optional image.
type Model interface {
	Generate(ctx context.Context, prompt string, image *Image) (string, error)
}

// Drafter writes event emails. With no Model it returns the template draft.
type Drafter struct {
	model    Model
	maxImage int64
	logger   *slog.Logger
}

// NewDrafter creates a Drafter. A nil model selects the mock template.
// Event images above maxImage bytes are refused; zero means no limit.
func NewDrafter(model Model, maxImage int64, logger *slog.Logger) *Drafter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Drafter{model: model, maxImage: maxImage, logger: logger}
}

// Mock reports whether drafts come from the template.
func (d *Drafter) Mock() bool { return d.model == nil }

// Draft generates an email for req.
func (d *Drafter) Draft(ctx context.Context, req DraftRequest) (Draft, error) {
	req.Context = strings.TrimSpace(req.Context)
	if req.Image != nil && len(req.Image.Data) == 0 {
		req.Image = nil
	}
	if req.Context == "" && req.Image == nil {
		return Draft{}, fmt.Errorf("%w: provide context or image", ErrMissingFields)
	}
	if req.Image != nil {
		if err := d.checkImage(req.Image); err != nil {
			return Draft{}, err
		}
	}

	if d.model == nil {
		d.logger.Warn("no AI API key configured, using mock draft")
		return mockDraft(req.Context), nil
	}
	reply, err := d.model.Generate(ctx, draftPrompt(req.Context), req.Image)
	if err != nil {
		return Draft{}, fmt.Errorf("generate email: %w", err)
	}
	return parseDraft(reply)
}

// checkImage enforces the size limit and that the content is a picture.
// The sniffed type replaces a missing or non-image declared type.
func (d *Drafter) checkImage(img *Image) error {
	if d.maxImage > 0 && int64(len(img.Data)) > d.maxImage {
		return fmt.Errorf("%w: event image is %d bytes (max %d)", ErrInvalidAttachment, len(img.Data), d.maxImage)
	}
	sniffed := mimetype.Detect(img.Data).String()
	if !strings.HasPrefix(sniffed, "image/") {
		return fmt.Errorf("%w: event image is %s, not an image", ErrInvalidAttachment, sniffed)
	}
	if !strings.HasPrefix(img.MediaType, "image/") {
		img.MediaType = sniffed
	}
	return nil
}

func draftPrompt(eventContext string) string {
	return `You are a professional email writer for events and organizations. Generate a complete, professional email with the following:

Context: ` + eventContext + `

Requirements:
1. Create an engaging subject line (max 50 characters)
2. Write a well-structured email body with:
   - Professional greeting
   - Clear introduction
   - Main content with key details
   - Call-to-action
   - Professional closing
3. Use appropriate tone (formal/casual based on context)
4. Keep it concise but informative
5. Include placeholders for specific details like dates, links, etc.

Return ONLY a JSON object with this exact structure:
{
  "subject": "your subject line here",
  "body": "your complete email body here"
}`
}

var jsonObject = regexp.MustCompile(`\{[\s\S]*\}`)

// parseDraft pulls the first-to-last brace span out of reply.
func parseDraft(reply string) (Draft, error) {
	raw := jsonObject.FindString(reply)
	if raw == "" {
		return Draft{}, ErrInvalidAIResponse
	}
	var d Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return Draft{}, fmt.Errorf("%w: %v", ErrInvalidAIResponse, err)
	}
	d.Mock = false
	return d, nil
}

const mockSubjectMax = 50

func mockDraft(eventContext string) Draft {
	subject := "Your Event Invitation"
	detail := "Join us for an amazing experience that you won't want to miss."
	if eventContext != "" {
		first, _, _ := strings.Cut(eventContext, ".")
		subject = truncateRunes(first, mockSubjectMax)
		detail = eventContext
	}
	return Draft{
		Subject: subject,
		Body: `Dear Team,

We are excited to invite you to our upcoming event!

` + detail + `

Event Details:
- Date: [Please add date]
- Time: [Please add time]
- Venue: [Please add venue]
- Registration: [Please add link]

We look forward to seeing you there!

Best regards,
The Event Team`,
		Mock: true,
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
