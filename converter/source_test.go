package converter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tooldeck/tooldeck/config"
)

func TestLoad_LocalPath(t *testing.T) {
	path := writeTempFile(t, "data.csv", "A,B\n1,2\n")
	f, err := newTestRegistry(t).Load(context.Background(), path)
	assertNoErr(t, err)
	if f.Name != "data.csv" || f.Category() != Spreadsheet {
		t.Errorf("got %q (%s)", f.Name, f.Category())
	}
}

func TestLoad_FileScheme(t *testing.T) {
	path := writeTempFile(t, "notes.txt", "hi")
	f, err := newTestRegistry(t).Load(context.Background(), "file://"+path)
	assertNoErr(t, err)
	if string(f.Data) != "hi" {
		t.Errorf("data = %q", f.Data)
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := newTestRegistry(t).Load(context.Background(), "/nonexistent/file.txt")
	assertErr(t, err)
}

func TestLoad_UnsupportedScheme(t *testing.T) {
	_, err := newTestRegistry(t).Load(context.Background(), "ftp://example.com/a.txt")
	assertErr(t, err)
	assertContains(t, err.Error(), "unsupported URI scheme")
}

func TestLoad_TooLarge(t *testing.T) {
	cfg := config.Default()
	cfg.MaxFileSizeBytes = 4
	path := writeTempFile(t, "big.txt", strings.Repeat("x", 5))
	_, err := New(cfg).Load(context.Background(), path)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
}

func TestLoad_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<h1>Remote</h1>"))
	}))
	defer srv.Close()

	r := newTestRegistry(t)
	f, err := r.Load(context.Background(), srv.URL+"/page.html")
	assertNoErr(t, err)
	if f.MediaType != "text/html" {
		t.Errorf("MediaType = %q", f.MediaType)
	}
	out := convert(t, r, f, "md")
	assertContains(t, string(out.Data), "# Remote")
}

func TestLoad_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	_, err := newTestRegistry(t).Load(context.Background(), srv.URL+"/missing")
	assertErr(t, err)
	assertContains(t, err.Error(), "HTTP 404")
}
