package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// Schema for the namespace and entry tables. Applied by OpenSQLite.
const Schema = `
CREATE TABLE IF NOT EXISTS namespaces (
	name TEXT PRIMARY KEY,
	prefix TEXT NOT NULL,
	version TEXT NOT NULL,
	role TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS entries (
	namespace TEXT NOT NULL REFERENCES namespaces(name) ON DELETE CASCADE,
	url TEXT NOT NULL,
	status INTEGER NOT NULL,
	headers TEXT NOT NULL,
	body BLOB,
	captured_at INTEGER NOT NULL,
	PRIMARY KEY (namespace, url)
);
CREATE INDEX IF NOT EXISTS idx_namespaces_version ON namespaces(prefix, version);
`

// SQLite is a persistent store backed by a SQLite database.
type SQLite struct {
	db     *sql.DB
	closed atomic.Bool
}

type sqliteConfig struct {
	busyTimeout int
	synchronous string
	mkdirAll    bool
}

// SQLiteOption customises OpenSQLite behaviour.
type SQLiteOption func(*sqliteConfig)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) SQLiteOption {
	return func(c *sqliteConfig) { c.busyTimeout = ms }
}

// WithSynchronous sets PRAGMA synchronous. Default: "NORMAL".
func WithSynchronous(mode string) SQLiteOption {
	return func(c *sqliteConfig) { c.synchronous = mode }
}

// WithMkdirAll creates parent directories of the database path before opening.
func WithMkdirAll() SQLiteOption {
	return func(c *sqliteConfig) { c.mkdirAll = true }
}

// OpenSQLite opens (creating if needed) a SQLite-backed store with WAL
// journaling and the schema applied.
func OpenSQLite(path string, opts ...SQLiteOption) (*SQLite, error) {
	cfg := sqliteConfig{busyTimeout: 10_000, synchronous: "NORMAL"}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.mkdirAll {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout),
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA synchronous = %s", cfg.synchronous),
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database. Operations after Close return
// ErrClosed.
func (s *SQLite) Close() error {
	s.closed.Store(true)
	return s.db.Close()
}

// DB exposes the underlying handle for health checks.
func (s *SQLite) DB() *sql.DB { return s.db }

// Namespaces lists every decodable namespace key present.
func (s *SQLite) Namespaces(ctx context.Context) ([]Key, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM namespaces ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("store: list namespaces: %w", err)
	}
	defer rows.Close()

	var keys []Key
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("store: scan namespace: %w", err)
		}
		key, err := ParseKey(name)
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// EnsureNamespace creates the namespace row if absent.
func (s *SQLite) EnsureNamespace(ctx context.Context, key Key) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := key.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO namespaces (name, prefix, version, role, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO NOTHING`,
		key.Encode(), key.Prefix, key.Version, string(key.Role), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("store: ensure namespace %s: %w", key, err)
	}
	return nil
}

// DeleteNamespace removes the namespace and, via cascade, its entries.
// Idempotent.
func (s *SQLite) DeleteNamespace(ctx context.Context, key Key) error {
	if s.closed.Load() {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM namespaces WHERE name = ?`, key.Encode())
	if err != nil {
		return fmt.Errorf("store: delete namespace %s: %w", key, err)
	}
	return nil
}

// Get retrieves an entry. Returns (nil, false) on miss or scan failure;
// a corrupt row is treated as a miss, not an error.
func (s *SQLite) Get(ctx context.Context, key Key, url string) (*Entry, bool) {
	if s.closed.Load() {
		return nil, false
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT status, headers, body, captured_at
		FROM entries WHERE namespace = ? AND url = ?`,
		key.Encode(), url)

	var (
		status     int
		rawHeaders string
		body       []byte
		capturedAt int64
	)
	if err := row.Scan(&status, &rawHeaders, &body, &capturedAt); err != nil {
		return nil, false
	}

	header := make(http.Header)
	if err := json.Unmarshal([]byte(rawHeaders), &header); err != nil {
		return nil, false
	}

	return &Entry{
		URL:        url,
		Status:     status,
		Header:     header,
		Body:       body,
		CapturedAt: time.Unix(capturedAt, 0).UTC(),
	}, true
}

// Put stores an entry, replacing any previous snapshot for the URL.
func (s *SQLite) Put(ctx context.Context, key Key, entry *Entry) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if entry == nil || entry.URL == "" {
		return ErrInvalidEntry
	}

	rawHeaders, err := json.Marshal(entry.Header)
	if err != nil {
		return fmt.Errorf("store: encode headers: %w", err)
	}

	capturedAt := entry.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (namespace, url, status, headers, body, captured_at)
		SELECT name, ?, ?, ?, ?, ? FROM namespaces WHERE name = ?
		ON CONFLICT(namespace, url) DO UPDATE SET
			status = excluded.status,
			headers = excluded.headers,
			body = excluded.body,
			captured_at = excluded.captured_at`,
		entry.URL, entry.Status, string(rawHeaders), entry.Body,
		capturedAt.Unix(), key.Encode())
	if err != nil {
		return fmt.Errorf("store: put %s: %w", entry.URL, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoNamespace
	}
	return nil
}

// Ensure SQLite implements Store
var _ Store = (*SQLite)(nil)
