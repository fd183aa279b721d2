package converter

// source.go — loading an UploadedFile from a local path or URI.

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
)

// Load reads a source by path or URI. Supported schemes: none (local path),
// file://, http://, https://. Sources above the registry's size limit fail
// with ErrTooLarge before being read in full.
func (r *Registry) Load(ctx context.Context, ref string) (UploadedFile, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return UploadedFile{}, fmt.Errorf("invalid URI: %s", ref)
	}

	switch u.Scheme {
	case "":
		return r.loadFile(ref)
	case "file":
		return r.loadFile(u.Path)
	case "http", "https":
		return r.loadURL(ctx, u)
	default:
		if filepath.VolumeName(ref) != "" {
			return r.loadFile(ref)
		}
		return UploadedFile{}, fmt.Errorf("unsupported URI scheme: %q (expected file, http, or https)", u.Scheme)
	}
}

func (r *Registry) loadFile(p string) (UploadedFile, error) {
	info, err := os.Stat(p)
	if err != nil {
		return UploadedFile{}, fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() {
		return UploadedFile{}, fmt.Errorf("%s is a directory", p)
	}
	if info.Size() > r.maxFileBytes {
		return UploadedFile{}, fmt.Errorf("%w: %s is %d bytes (max %d)", ErrTooLarge, p, info.Size(), r.maxFileBytes)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return UploadedFile{}, fmt.Errorf("read %s: %w", p, err)
	}
	return NewUploadedFile(filepath.Base(p), "", data), nil
}

func (r *Registry) loadURL(ctx context.Context, u *url.URL) (UploadedFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return UploadedFile{}, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return UploadedFile{}, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return UploadedFile{}, fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, u)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxFileBytes+1))
	if err != nil {
		return UploadedFile{}, fmt.Errorf("read response: %w", err)
	}
	if int64(len(data)) > r.maxFileBytes {
		return UploadedFile{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, u, r.maxFileBytes)
	}

	name := path.Base(u.Path)
	if name == "/" || name == "." {
		name = u.Host
	}
	return NewUploadedFile(name, resp.Header.Get("Content-Type"), data), nil
}
