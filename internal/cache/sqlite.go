package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteCache persists entries in a single table keyed by cache key,
// so a session's cache can outlive the process
type SQLiteCache struct {
	db  *sql.DB
	ttl time.Duration
	mu  sync.RWMutex
	now func() time.Time
}

// OpenSQLite opens (or creates) the cache database at path. ":memory:"
// gives a private in-memory database.
func OpenSQLite(path string, ttl time.Duration) (*SQLiteCache, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	// each in-memory connection would see its own database
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping cache database: %w", err)
	}

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS cache_entries (
		key        TEXT PRIMARY KEY,
		data       BLOB NOT NULL,
		expires_at INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache table: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SQLiteCache{db: db, ttl: ttl, now: time.Now}, nil
}

// Get retrieves a value that has not expired. Expired rows are removed.
func (c *SQLiteCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	var data []byte
	var expiresAt int64
	err := c.db.QueryRow(`SELECT data, expires_at FROM cache_entries WHERE key = ?`, key).Scan(&data, &expiresAt)
	c.mu.RUnlock()
	if err != nil {
		return nil, false
	}

	if c.now().UnixNano() > expiresAt {
		_ = c.Delete(key)
		return nil, false
	}
	return data, true
}

// Set stores value, replacing any existing entry for key
func (c *SQLiteCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}
	expiresAt := c.now().Add(ttl).UnixNano()

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.db.Exec(`INSERT OR REPLACE INTO cache_entries (key, data, expires_at) VALUES (?, ?, ?)`, key, value, expiresAt)
	if err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}

// Delete removes a value
func (c *SQLiteCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// Clear removes all values
func (c *SQLiteCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.db.Exec(`DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Len counts stored rows, expired or not
func (c *SQLiteCache) Len() (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM cache_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	return n, nil
}

// Close closes the database
func (c *SQLiteCache) Close() error {
	if c.db == nil {
		return errors.New("cache already closed")
	}
	err := c.db.Close()
	c.db = nil
	return err
}
