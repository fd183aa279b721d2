// Package tools holds the small stateless utilities: QR code images and
// WhatsApp click-to-chat links.
package tools

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/skip2/go-qrcode"
)

// ErrInvalidInput is returned for empty or out-of-range arguments.
var ErrInvalidInput = errors.New("invalid input")

const (
	DefaultQRSize = 180
	maxQRSize     = 2048
)

// QRCode encodes text as a size×size PNG with medium error recovery.
// A size of zero means DefaultQRSize. Content too long for the requested
// size yields a larger image.
func QRCode(text string, size int) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is empty", ErrInvalidInput)
	}
	if size == 0 {
		size = DefaultQRSize
	}
	if size < 0 || size > maxQRSize {
		return nil, fmt.Errorf("%w: size %d outside 1..%d", ErrInvalidInput, size, maxQRSize)
	}
	png, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}

// WhatsAppLink builds a wa.me link that opens a chat with phone prefilled
// with message. Everything but digits is dropped from phone.
func WhatsAppLink(phone, message string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	if digits == "" {
		return "", fmt.Errorf("%w: phone number has no digits", ErrInvalidInput)
	}
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("%w: message is empty", ErrInvalidInput)
	}
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + digits + "?text=" + text, nil
}
