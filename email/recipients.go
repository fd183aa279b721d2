package email

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Recipient is one addressee of a send.
type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// ParseRecipients reads a CSV with a header row containing an "email"
// column and an optional "name" column. Rows with an empty email are
// skipped.
func ParseRecipients(data []byte) ([]Recipient, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoRecipients
	}
	if err != nil {
		return nil, fmt.Errorf("read recipients csv: %w", err)
	}
	emailCol, nameCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "email":
			emailCol = i
		case "name":
			nameCol = i
		}
	}
	if emailCol < 0 {
		return nil, fmt.Errorf("%w: CSV needs an email column", ErrMissingFields)
	}

	var out []Recipient
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read recipients csv: %w", err)
		}
		email := cell(rec, emailCol)
		if email == "" {
			continue
		}
		out = append(out, Recipient{Email: email, Name: cell(rec, nameCol)})
	}
	if len(out) == 0 {
		return nil, ErrNoRecipients
	}
	return out, nil
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
