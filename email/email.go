// Package email drafts event emails with a generative model and sends them
// to one recipient or a CSV list over SMTP. Without credentials both halves
// fall back to mock responses so the front end stays usable.
package email

import "errors"

var (
	// ErrMissingFields is returned when a request lacks a required field.
	ErrMissingFields = errors.New("missing required fields")

	// ErrNoRecipients is returned when a bulk CSV yields no addresses.
	ErrNoRecipients = errors.New("no recipients")

	// ErrInvalidAttachment is returned for too many or oversized attachments.
	ErrInvalidAttachment = errors.New("invalid attachment")

	// ErrInvalidAIResponse is returned when the model reply holds no
	// usable JSON object.
	ErrInvalidAIResponse = errors.New("invalid AI response format")
)

// MaxAttachments is the number of files one send may carry.
const MaxAttachments = 5
