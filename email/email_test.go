package email

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"gopkg.in/gomail.v2"

	"github.com/tooldeck/tooldeck/config"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func assertNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertErrIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}

func assertContains(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("expected output to contain %q\nfull output:\n%s", substr, s)
	}
}

type fakeModel struct {
	reply     string
	err       error
	gotPrompt string
	gotImage  *Image
}

func (f *fakeModel) Generate(_ context.Context, prompt string, image *Image) (string, error) {
	f.gotPrompt, f.gotImage = prompt, image
	return f.reply, f.err
}

type sentMail struct {
	from string
	to   []string
	raw  string
}

// fakeSMTP is a Dialer whose connection records messages and fails for
// the addresses in failFor.
type fakeSMTP struct {
	failFor map[string]bool
	sent    []sentMail
	closed  bool
	dialErr error
}

func (f *fakeSMTP) Dial() (gomail.SendCloser, error) {
	if f.dialErr != nil {
		return nil, f.dialErr
	}
	return f, nil
}

func (f *fakeSMTP) Send(from string, to []string, msg io.WriterTo) error {
	if f.failFor[to[0]] {
		return errors.New("mailbox unavailable")
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return err
	}
	f.sent = append(f.sent, sentMail{from: from, to: to, raw: buf.String()})
	return nil
}

func (f *fakeSMTP) Close() error {
	f.closed = true
	return nil
}

func baseRequest() SendRequest {
	return SendRequest{
		SenderEmail: "events@example.com",
		SenderName:  "Events Team",
		Subject:     "Launch party",
		Body:        "Hello\nSee you there",
		Mode:        ModeSingle,
	}
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

const threeRecipients = "email,name\na@x.com,Alice\nb@x.com,Bob\nc@x.com,\n"

// ── drafting ──────────────────────────────────────────────────────────────────

func TestDraft_RequiresContextOrImage(t *testing.T) {
	d := NewDrafter(nil, 0, nil)
	_, err := d.Draft(context.Background(), DraftRequest{Context: "   "})
	assertErrIs(t, err, ErrMissingFields)
}

func TestDraft_MockSubjectIsFirstSentence(t *testing.T) {
	d := NewDrafter(nil, 0, nil)
	got, err := d.Draft(context.Background(), DraftRequest{Context: "Annual tech meetup. Food provided."})
	assertNoErr(t, err)
	if !got.Mock || got.Subject != "Annual tech meetup" {
		t.Errorf("draft = %+v", got)
	}
	assertContains(t, got.Body, "Annual tech meetup. Food provided.")
	assertContains(t, got.Body, "Event Details:")
}

func TestDraft_MockSubjectTruncated(t *testing.T) {
	d := NewDrafter(nil, 0, nil)
	got, err := d.Draft(context.Background(), DraftRequest{Context: strings.Repeat("é", 80)})
	assertNoErr(t, err)
	if n := len([]rune(got.Subject)); n != 50 {
		t.Errorf("subject runes = %d, want 50", n)
	}
}

func TestDraft_MockImageOnly(t *testing.T) {
	d := NewDrafter(nil, 0, nil)
	got, err := d.Draft(context.Background(), DraftRequest{Image: &Image{Data: pngHeader}})
	assertNoErr(t, err)
	if got.Subject != "Your Event Invitation" {
		t.Errorf("Subject = %q", got.Subject)
	}
	assertContains(t, got.Body, "amazing experience")
}

func TestDraft_ParsesModelJSON(t *testing.T) {
	m := &fakeModel{reply: "Sure!\n```json\n{\"subject\": \"Join us\", \"body\": \"Dear all,\\nCome.\"}\n```"}
	d := NewDrafter(m, 0, nil)
	got, err := d.Draft(context.Background(), DraftRequest{Context: "Hackathon"})
	assertNoErr(t, err)
	if got.Mock || got.Subject != "Join us" || got.Body != "Dear all,\nCome." {
		t.Errorf("draft = %+v", got)
	}
	assertContains(t, m.gotPrompt, "Context: Hackathon")
}

func TestDraft_SniffsImageType(t *testing.T) {
	m := &fakeModel{reply: `{"subject":"s","body":"b"}`}
	d := NewDrafter(m, 0, nil)
	_, err := d.Draft(context.Background(), DraftRequest{Image: &Image{Data: pngHeader, MediaType: "application/octet-stream"}})
	assertNoErr(t, err)
	if m.gotImage == nil || m.gotImage.MediaType != "image/png" {
		t.Errorf("image = %+v", m.gotImage)
	}
}

func TestDraft_RejectsOversizedImage(t *testing.T) {
	m := &fakeModel{reply: `{"subject":"s","body":"b"}`}
	d := NewDrafter(m, 10, nil)
	_, err := d.Draft(context.Background(), DraftRequest{Image: &Image{Data: append(append([]byte(nil), pngHeader...), make([]byte, 64)...)}})
	assertErrIs(t, err, ErrInvalidAttachment)
	if m.gotPrompt != "" {
		t.Error("model called for an oversized image")
	}
}

func TestDraft_RejectsNonImage(t *testing.T) {
	d := NewDrafter(nil, 0, nil)
	_, err := d.Draft(context.Background(), DraftRequest{
		Context: "Meetup",
		Image:   &Image{Data: []byte("%PDF-1.4\n"), MediaType: "image/png"},
	})
	assertErrIs(t, err, ErrInvalidAttachment)
}

func TestDraft_InvalidModelReply(t *testing.T) {
	d := NewDrafter(&fakeModel{reply: "I cannot help with that."}, 0, nil)
	_, err := d.Draft(context.Background(), DraftRequest{Context: "x"})
	assertErrIs(t, err, ErrInvalidAIResponse)

	d = NewDrafter(&fakeModel{reply: "{not json}"}, 0, nil)
	_, err = d.Draft(context.Background(), DraftRequest{Context: "x"})
	assertErrIs(t, err, ErrInvalidAIResponse)
}

func TestDraft_ModelError(t *testing.T) {
	boom := errors.New("quota exceeded")
	d := NewDrafter(&fakeModel{err: boom}, 0, nil)
	_, err := d.Draft(context.Background(), DraftRequest{Context: "x"})
	assertErrIs(t, err, boom)
}

func TestResponseText_JoinsTextParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text("{\"a\":"), genai.Text("1}")}},
	}}}
	if got := responseText(resp); got != `{"a":1}` {
		t.Errorf("responseText = %q", got)
	}
	if got := responseText(&genai.GenerateContentResponse{}); got != "" {
		t.Errorf("empty response text = %q", got)
	}
}

func TestNewDrafterFromConfig_MockWithoutKey(t *testing.T) {
	d, closeFn, err := NewDrafterFromConfig(context.Background(), config.Default(), nil)
	assertNoErr(t, err)
	defer closeFn()
	if !d.Mock() {
		t.Error("drafter without a key must be mock")
	}
}

// ── recipients ────────────────────────────────────────────────────────────────

func TestParseRecipients(t *testing.T) {
	got, err := ParseRecipients([]byte("\xef\xbb\xbfName, Email\nAlice,a@x.com\n,\nBob,b@x.com\n"))
	assertNoErr(t, err)
	if len(got) != 2 || got[0] != (Recipient{"a@x.com", "Alice"}) || got[1] != (Recipient{"b@x.com", "Bob"}) {
		t.Errorf("recipients = %+v", got)
	}
}

func TestParseRecipients_NeedsEmailColumn(t *testing.T) {
	_, err := ParseRecipients([]byte("address\na@x.com\n"))
	assertErrIs(t, err, ErrMissingFields)
}

func TestParseRecipients_Empty(t *testing.T) {
	_, err := ParseRecipients([]byte("email,name\n"))
	assertErrIs(t, err, ErrNoRecipients)
	_, err = ParseRecipients(nil)
	assertErrIs(t, err, ErrNoRecipients)
}

// ── sending ───────────────────────────────────────────────────────────────────

func TestSend_Validation(t *testing.T) {
	m := NewMailer(nil, 10, nil)
	cases := map[string]func(*SendRequest){
		"no sender":    func(r *SendRequest) { r.SenderEmail = "" },
		"no name":      func(r *SendRequest) { r.SenderName = "" },
		"no subject":   func(r *SendRequest) { r.Subject = "" },
		"no body":      func(r *SendRequest) { r.Body = " " },
		"no recipient": func(r *SendRequest) { r.RecipientEmail = "" },
		"bulk no csv":  func(r *SendRequest) { r.Mode = ModeBulk },
		"no mode":      func(r *SendRequest) { r.Mode = "" },
		"unknown mode": func(r *SendRequest) { r.Mode = "blk" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := baseRequest()
			req.RecipientEmail = "to@x.com"
			mutate(&req)
			_, err := m.Send(context.Background(), req)
			assertErrIs(t, err, ErrMissingFields)
		})
	}
}

func TestSend_AttachmentLimits(t *testing.T) {
	m := NewMailer(nil, 4, nil)
	req := baseRequest()
	req.RecipientEmail = "to@x.com"

	req.Attachments = []Attachment{{Name: "big.bin", Data: []byte("12345")}}
	_, err := m.Send(context.Background(), req)
	assertErrIs(t, err, ErrInvalidAttachment)

	req.Attachments = make([]Attachment, MaxAttachments+1)
	_, err = m.Send(context.Background(), req)
	assertErrIs(t, err, ErrInvalidAttachment)
}

func TestSend_MockSingle(t *testing.T) {
	req := baseRequest()
	req.RecipientEmail = "to@x.com"
	rep, err := NewMailer(nil, 0, nil).Send(context.Background(), req)
	assertNoErr(t, err)
	if !rep.Mock || rep.SuccessCount != 1 || rep.FailCount != 0 {
		t.Errorf("report = %+v", rep)
	}
	assertContains(t, rep.Message, "to@x.com")
}

func TestSend_MockBulkCountsRows(t *testing.T) {
	req := baseRequest()
	req.Mode = ModeBulk
	req.RecipientsCSV = []byte(threeRecipients)
	rep, err := NewMailerFromConfig(config.Default(), nil).Send(context.Background(), req)
	assertNoErr(t, err)
	if !rep.Mock || rep.SuccessCount != 3 || rep.FailCount != 0 {
		t.Errorf("report = %+v", rep)
	}
}

func TestSend_BulkContinuesOnError(t *testing.T) {
	smtp := &fakeSMTP{failFor: map[string]bool{"b@x.com": true}}
	req := baseRequest()
	req.Mode = ModeBulk
	req.RecipientsCSV = []byte(threeRecipients)

	rep, err := NewMailer(smtp, 0, nil).Send(context.Background(), req)
	assertNoErr(t, err)
	if rep.SuccessCount != 2 || rep.FailCount != 1 {
		t.Errorf("report = %+v", rep)
	}
	if rep.Message != "Successfully sent 2 email(s), 1 failed" {
		t.Errorf("Message = %q", rep.Message)
	}
	if len(smtp.sent) != 2 || smtp.sent[0].to[0] != "a@x.com" || smtp.sent[1].to[0] != "c@x.com" {
		t.Errorf("sent = %+v", smtp.sent)
	}
	if !smtp.closed {
		t.Error("connection not closed")
	}
}

func TestSend_MessageContent(t *testing.T) {
	smtp := &fakeSMTP{}
	req := baseRequest()
	req.RecipientEmail = "to@x.com"
	req.Attachments = []Attachment{{Name: "agenda.txt", Data: []byte("9am start")}}

	rep, err := NewMailer(smtp, 0, nil).Send(context.Background(), req)
	assertNoErr(t, err)
	if rep.SuccessCount != 1 || len(smtp.sent) != 1 {
		t.Fatalf("report = %+v", rep)
	}
	got := smtp.sent[0]
	if got.from != "events@example.com" {
		t.Errorf("from = %q", got.from)
	}
	assertContains(t, got.raw, `From: "Events Team" <events@example.com>`)
	assertContains(t, got.raw, "Subject: Launch party")
	assertContains(t, got.raw, "Content-Type: text/html")
	assertContains(t, got.raw, "Hello<br>See you there")
	assertContains(t, got.raw, `filename="agenda.txt"`)
}

func TestSend_DialError(t *testing.T) {
	req := baseRequest()
	req.RecipientEmail = "to@x.com"
	_, err := NewMailer(&fakeSMTP{dialErr: errors.New("refused")}, 0, nil).Send(context.Background(), req)
	if err == nil {
		t.Fatal("expected dial error")
	}
}

func TestSend_StopsWhenCancelled(t *testing.T) {
	smtp := &fakeSMTP{}
	req := baseRequest()
	req.Mode = ModeBulk
	req.RecipientsCSV = []byte(threeRecipients)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMailer(smtp, 0, nil).Send(ctx, req)
	assertErrIs(t, err, context.Canceled)
	if len(smtp.sent) != 0 {
		t.Errorf("sent %d messages after cancel", len(smtp.sent))
	}
}

func TestBodyHTML_EscapesBeforeBreaks(t *testing.T) {
	got := BodyHTML("a < b\r\n<script>")
	if got != "a &lt; b<br>&lt;script&gt;" {
		t.Errorf("BodyHTML = %q", got)
	}
}
