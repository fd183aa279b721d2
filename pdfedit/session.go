package pdfedit

import (
	"context"
	"fmt"
	"sync"

	"github.com/tooldeck/tooldeck/raster"
)

// Session is one document open in the editor. It is safe for concurrent use.
type Session struct {
	extractor *Extractor
	name      string
	source    []byte

	mu   sync.Mutex
	page Page
}

// RunView pairs a run with its on-screen overlay.
type RunView struct {
	TextRun
	Overlay Overlay `json:"overlay"`
}

// Snapshot is a read-only view of a Session.
type Snapshot struct {
	Name   string    `json:"name"`
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Pages  int       `json:"pages"`
	Scale  float64   `json:"scale"`
	Runs   []RunView `json:"runs"`
}

// Open extracts the first page of data and starts a session on it.
func Open(ctx context.Context, ex *Extractor, name string, data []byte, scale float64) (*Session, error) {
	page, err := ex.ExtractFirstPage(ctx, data, scale)
	if err != nil {
		return nil, err
	}
	return &Session{extractor: ex, name: name, source: data, page: page}, nil
}

// Name is the uploaded file name.
func (s *Session) Name() string { return s.name }

// EditedName is the download name of the rebuilt document.
func (s *Session) EditedName() string { return EditedName(s.name) }

// Edit replaces the text of run id. Geometry is unchanged.
func (s *Session) Edit(id, str string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.page.Runs {
		if s.page.Runs[i].ID == id {
			s.page.Runs[i].Str = str
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownRun, id)
}

// Render re-extracts the page at scale, replacing the raster and all runs.
// Pending edits are discarded.
func (s *Session) Render(ctx context.Context, scale float64) error {
	page, err := s.extractor.ExtractFirstPage(ctx, s.source, scale)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.page = page
	s.mu.Unlock()
	return nil
}

// Runs returns a copy of the current runs.
func (s *Session) Runs() []TextRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TextRun(nil), s.page.Runs...)
}

// Raster returns the current page raster.
func (s *Session) Raster() raster.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page.Raster
}

// Overlay returns the on-screen placement of run id.
func (s *Session) Overlay(id string) (Overlay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.page.Runs {
		if r.ID == id {
			return OverlayFor(r), nil
		}
	}
	return Overlay{}, fmt.Errorf("%w: %s", ErrUnknownRun, id)
}

// Snapshot returns the session state with overlays computed.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	views := make([]RunView, len(s.page.Runs))
	for i, r := range s.page.Runs {
		views[i] = RunView{TextRun: r, Overlay: OverlayFor(r)}
	}
	return Snapshot{
		Name:   s.name,
		Width:  s.page.Raster.Width,
		Height: s.page.Raster.Height,
		Pages:  s.page.Raster.PageCount,
		Scale:  s.page.Scale,
		Runs:   views,
	}
}

// Save rebuilds the document from the current raster and runs.
func (s *Session) Save(opts RebuildOptions) ([]byte, error) {
	s.mu.Lock()
	page, runs := s.page.Raster, append([]TextRun(nil), s.page.Runs...)
	s.mu.Unlock()
	return Rebuild(page, runs, opts)
}
