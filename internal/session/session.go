// Package session holds the state that lives for one analysis session:
// the memoized fetches and the citation registry.
package session

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ppiankov/foretell/internal/cache"
	"github.com/ppiankov/foretell/internal/citation"
	"github.com/ppiankov/foretell/internal/logging"
)

// Session is owned by one caller. Concurrent sessions never share state.
type Session struct {
	ID        string
	Citations *citation.Registry
	Memo      *cache.Memo
	Started   time.Time

	logger *log.Logger
}

// New creates a session over store. A nil store disables caching.
func New(store cache.Cache, ttl time.Duration, logger *log.Logger) *Session {
	logger = logging.OrDiscard(logger)
	id := uuid.New().String()
	return &Session{
		ID:        id,
		Citations: citation.NewRegistry(),
		Memo:      cache.NewMemo(store, ttl, logger.With("session", id[:8])),
		Started:   time.Now(),
		logger:    logger,
	}
}

// Reset clears the cache and restarts citation numbering at web:1
func (s *Session) Reset() error {
	s.Citations.Reset()
	if err := s.Memo.Clear(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	s.Started = time.Now()
	s.logger.Debug("session reset", "id", s.ID)
	return nil
}
