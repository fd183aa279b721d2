package tools

import (
	"bytes"
	"errors"
	"image/png"
	"testing"
)

func TestQRCode_DefaultSize(t *testing.T) {
	data, err := QRCode("https://example.org", 0)
	if err != nil {
		t.Fatalf("QRCode: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != DefaultQRSize || b.Dy() != DefaultQRSize {
		t.Errorf("size = %v, want %dx%d", b.Size(), DefaultQRSize, DefaultQRSize)
	}
}

func TestQRCode_CustomSize(t *testing.T) {
	data, err := QRCode("hello", 256)
	if err != nil {
		t.Fatalf("QRCode: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 256 {
		t.Errorf("width = %d, want 256", cfg.Width)
	}
}

func TestQRCode_InvalidInput(t *testing.T) {
	for _, tc := range []struct {
		text string
		size int
	}{
		{"", 180},
		{"  ", 180},
		{"x", -1},
		{"x", maxQRSize + 1},
	} {
		if _, err := QRCode(tc.text, tc.size); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("QRCode(%q, %d) error = %v, want ErrInvalidInput", tc.text, tc.size, err)
		}
	}
}

func TestWhatsAppLink(t *testing.T) {
	got, err := WhatsAppLink("+1 (555) 010-9999", "Hi there & welcome!")
	if err != nil {
		t.Fatalf("WhatsAppLink: %v", err)
	}
	want := "https://wa.me/15550109999?text=Hi%20there%20%26%20welcome%21"
	if got != want {
		t.Errorf("link = %q\nwant   %q", got, want)
	}
}

func TestWhatsAppLink_PlusInMessage(t *testing.T) {
	got, err := WhatsAppLink("44 20", "1+1")
	if err != nil {
		t.Fatalf("WhatsAppLink: %v", err)
	}
	if got != "https://wa.me/4420?text=1%2B1" {
		t.Errorf("link = %q", got)
	}
}

func TestWhatsAppLink_Invalid(t *testing.T) {
	if _, err := WhatsAppLink("call me", "hi"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("no digits: error = %v", err)
	}
	if _, err := WhatsAppLink("123", " "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty message: error = %v", err)
	}
}
