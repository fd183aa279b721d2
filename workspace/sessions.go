package workspace

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/tooldeck/tooldeck/config"
	"github.com/tooldeck/tooldeck/converter"
)

// Sessions hands out one Controller per client session id.
type Sessions struct {
	store        *Store[*Controller]
	conv         Converter
	defaults     converter.Settings
	historyLimit int
	logger       *slog.Logger
}

// NewSessions bounds the number of live sessions and their idle lifetime
// by cfg.MaxSessions and cfg.SessionTTL.
func NewSessions(conv Converter, cfg *config.Config, logger *slog.Logger) *Sessions {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sessions{
		store:        NewStore[*Controller](cfg.MaxSessions, cfg.SessionTTL),
		conv:         conv,
		defaults:     converter.SettingsFromConfig(cfg.Defaults),
		historyLimit: cfg.HistoryLimit,
		logger:       logger,
	}
	s.store.OnEvict(func(id string, c *Controller) {
		c.Cancel()
		logger.Debug("workspace session evicted", "session", id)
	})
	return s
}

// Open returns the controller for id, creating it when id is empty or
// unknown. The returned id is the one the client must send next time.
func (s *Sessions) Open(id string) (string, *Controller) {
	if id == "" {
		id = uuid.NewString()
	}
	c, _ := s.store.GetOrCreate(id, func() (*Controller, error) {
		return NewController(s.conv, NewHistory(s.historyLimit), s.defaults, s.logger), nil
	})
	return id, c
}

// Lookup returns an existing controller.
func (s *Sessions) Lookup(id string) (*Controller, bool) {
	return s.store.Get(id)
}

// Sweep drops idle sessions.
func (s *Sessions) Sweep() int {
	return s.store.Sweep()
}
