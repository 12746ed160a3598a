package cache

import (
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ppiankov/foretell/internal/logging"
)

// Memo memoizes fetches in a Cache with a freshness window measured from
// the last successful fetch. A nil store disables caching.
type Memo struct {
	store  Cache
	ttl    time.Duration
	logger *log.Logger
	now    func() time.Time
}

type memoEntry struct {
	StoredAt time.Time       `json:"stored_at"`
	Value    json.RawMessage `json:"value"`
}

// NewMemo creates a memoizer over store. A non-positive ttl uses DefaultTTL.
func NewMemo(store Cache, ttl time.Duration, logger *log.Logger) *Memo {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memo{
		store:  store,
		ttl:    ttl,
		logger: logging.OrDiscard(logger),
		now:    time.Now,
	}
}

// TTL returns the freshness window
func (m *Memo) TTL() time.Duration {
	return m.ttl
}

// Clear drops every memoized value
func (m *Memo) Clear() error {
	if m.store == nil {
		return nil
	}
	return m.store.Clear()
}

func (m *Memo) lookup(key string) (json.RawMessage, bool) {
	if m.store == nil {
		return nil, false
	}
	raw, ok := m.store.Get(key)
	if !ok {
		return nil, false
	}
	var e memoEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		m.logger.Debug("discarding unreadable cache entry", "key", key, "err", err)
		return nil, false
	}
	if m.now().Sub(e.StoredAt) >= m.ttl {
		return nil, false
	}
	return e.Value, true
}

func (m *Memo) put(key string, value json.RawMessage) {
	if m.store == nil {
		return
	}
	raw, err := json.Marshal(memoEntry{StoredAt: m.now(), Value: value})
	if err != nil {
		m.logger.Warn("cache encode failed", "key", key, "err", err)
		return
	}
	if err := m.store.Set(key, raw, m.ttl); err != nil {
		m.logger.Warn("cache write failed", "key", key, "err", err)
	}
}

// GetOrFetch returns the fresh value cached under key, or calls fetch and
// caches its result. A failing fetch is logged and never cached; the zero
// value and false are returned so the next call retries.
func GetOrFetch[T any](m *Memo, key string, fetch func() (T, error)) (T, bool) {
	var zero T

	if raw, ok := m.lookup(key); ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, true
		}
		m.logger.Debug("cached value has unexpected shape", "key", key)
	}

	v, err := fetch()
	if err != nil {
		m.logger.Warn("fetch failed", "key", key, "err", err)
		return zero, false
	}

	raw, err := json.Marshal(v)
	if err != nil {
		m.logger.Warn("cache encode failed", "key", key, "err", err)
		return v, true
	}
	m.put(key, raw)
	return v, true
}
