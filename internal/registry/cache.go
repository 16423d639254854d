package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// Cache is a SQLite-backed cache for fetched repository files, so repeated
// expansions in one session don't refetch the same class and module YAML.
// Use ":memory:" as the path in tests.
type Cache struct {
	db     *sql.DB
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

const cacheSchema = `CREATE TABLE IF NOT EXISTS fetch_cache (
	url        TEXT PRIMARY KEY,
	body       BLOB NOT NULL,
	fetched_at TEXT NOT NULL
)`

// OpenCache opens (or creates) the cache database at dbPath. Entries older
// than ttl are treated as misses.
func OpenCache(dbPath string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", dbPath, err)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache table: %w", err)
	}
	return &Cache{
		db:     db,
		ttl:    ttl,
		logger: logger.With("component", "cache"),
		now:    time.Now,
	}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached body for url if present and fresh.
func (c *Cache) Get(ctx context.Context, url string) ([]byte, bool) {
	var body []byte
	var fetchedAt string
	err := c.db.QueryRowContext(ctx,
		`SELECT body, fetched_at FROM fetch_cache WHERE url = ?`, url,
	).Scan(&body, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("cache read failed", "url", url, "err", err)
		return nil, false
	}

	t, err := time.Parse(time.RFC3339, fetchedAt)
	if err != nil || c.now().Sub(t) > c.ttl {
		return nil, false
	}
	return body, true
}

// Put stores a fetched body.
func (c *Cache) Put(ctx context.Context, url string, body []byte) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO fetch_cache (url, body, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		url, body, c.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	return nil
}
