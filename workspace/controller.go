// Package workspace holds the per-session conversion state: the selected
// file, target and settings, the phase of the current conversion and the
// history of finished ones.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tooldeck/tooldeck/converter"
)

var (
	// ErrBusy is returned when a command arrives while a conversion runs.
	ErrBusy = errors.New("a conversion is already in progress")

	// ErrNoFile is returned by Convert before any file was selected.
	ErrNoFile = errors.New("no file selected")

	// ErrNoTarget is returned by Convert before a target was chosen.
	ErrNoTarget = errors.New("no target format selected")
)

// Phase is where a controller is in its conversion lifecycle.
type Phase string

const (
	Idle    Phase = "idle"
	Running Phase = "running"
	Done    Phase = "done"
	Failed  Phase = "failed"
)

// Converter is the dispatch the controller drives. *converter.Registry
// satisfies it.
type Converter interface {
	Convert(ctx context.Context, file converter.UploadedFile, format string, s converter.Settings) (converter.Output, error)
}

// State is an immutable snapshot of a controller.
type State struct {
	FileName  string             `json:"fileName,omitempty"`
	MediaType string             `json:"mediaType,omitempty"`
	Category  converter.Category `json:"category"`
	Targets   []converter.Target `json:"targets"`
	Target    string             `json:"target,omitempty"`
	Settings  converter.Settings `json:"settings"`
	Phase     Phase              `json:"phase"`
	Status    string             `json:"status,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// Controller serialises commands for one session. At most one conversion
// is in flight.
type Controller struct {
	conv    Converter
	history *History
	logger  *slog.Logger

	mu       sync.Mutex
	file     *converter.UploadedFile
	target   string
	settings converter.Settings
	phase    Phase
	status   string
	err      error
	cancel   context.CancelFunc
}

// NewController creates an idle controller. A nil logger means slog.Default.
func NewController(conv Converter, history *History, defaults converter.Settings, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		conv:     conv,
		history:  history,
		logger:   logger,
		settings: defaults.Normalize(),
		phase:    Idle,
	}
}

// History returns the controller's result history.
func (c *Controller) History() *History { return c.history }

// SelectFile makes f the conversion source. The previous output status is
// cleared; the target is kept only when the new file's category offers it.
func (c *Controller) SelectFile(f converter.UploadedFile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == Running {
		return ErrBusy
	}
	c.file = &f
	if _, ok := converter.LookupTarget(f.Category(), c.target); !ok {
		c.target = ""
	}
	c.reset()
	return nil
}

// SetTarget selects the output format. It must be offered for the current
// file's category when a file is selected.
func (c *Controller) SetTarget(format string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == Running {
		return ErrBusy
	}
	if c.file != nil {
		t, ok := converter.LookupTarget(c.file.Category(), format)
		if !ok {
			return fmt.Errorf("%w: %s → %s", converter.ErrUnsupportedConversion, c.file.Category(), format)
		}
		format = t.Format
	}
	c.target = format
	return nil
}

// UpdateSettings replaces the conversion knobs, clamped into range.
func (c *Controller) UpdateSettings(s converter.Settings) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == Running {
		return ErrBusy
	}
	c.settings = s.Normalize()
	return nil
}

// Convert runs the selected conversion and records it in history. The file,
// target and settings are captured when the call starts.
func (c *Controller) Convert(ctx context.Context) (Result, error) {
	c.mu.Lock()
	switch {
	case c.phase == Running:
		c.mu.Unlock()
		return Result{}, ErrBusy
	case c.file == nil:
		c.mu.Unlock()
		return Result{}, ErrNoFile
	case c.target == "":
		c.mu.Unlock()
		return Result{}, ErrNoTarget
	}
	return c.run(ctx)
}

// Submit applies settings, selects f and format and starts the conversion
// in one step, so concurrent submissions on a session cannot mix their
// inputs. The selection is kept when the target is rejected.
func (c *Controller) Submit(ctx context.Context, f converter.UploadedFile, format string, s converter.Settings) (Result, error) {
	c.mu.Lock()
	if c.phase == Running {
		c.mu.Unlock()
		return Result{}, ErrBusy
	}
	c.settings = s.Normalize()
	c.file = &f
	c.target = ""
	c.reset()
	if format == "" {
		c.mu.Unlock()
		return Result{}, ErrNoTarget
	}
	t, ok := converter.LookupTarget(f.Category(), format)
	if !ok {
		c.mu.Unlock()
		return Result{}, fmt.Errorf("%w: %s → %s", converter.ErrUnsupportedConversion, f.Category(), format)
	}
	c.target = t.Format
	return c.run(ctx)
}

// run is entered with c.mu held and releases it while converting.
func (c *Controller) run(ctx context.Context) (Result, error) {
	file, target, settings := *c.file, c.target, c.settings
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.phase = Running
	c.status = "Converting..."
	c.err = nil
	c.mu.Unlock()
	defer cancel()

	out, err := c.conv.Convert(ctx, file, target, settings)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancel = nil
	if err != nil {
		c.phase = Failed
		c.err = err
		c.status = "Conversion failed: " + err.Error()
		c.logger.Info("conversion failed", "file", file.Name, "target", target, "error", err)
		return Result{}, err
	}
	c.phase = Done
	c.status = out.Status
	return c.history.Add(file.Name, target, out), nil
}

// Cancel aborts the in-flight conversion. It reports whether one was running.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel == nil {
		return false
	}
	c.cancel()
	return true
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State{
		Category: converter.Unknown,
		Targets:  []converter.Target{},
		Target:   c.target,
		Settings: c.settings,
		Phase:    c.phase,
		Status:   c.status,
	}
	if c.file != nil {
		st.FileName = c.file.Name
		st.MediaType = c.file.MediaType
		st.Category = c.file.Category()
		st.Targets = converter.Targets(st.Category)
	}
	if c.err != nil {
		st.Error = c.err.Error()
	}
	return st
}

func (c *Controller) reset() {
	c.phase = Idle
	c.status = ""
	c.err = nil
}
