// Package storage owns the embedded database connection shared by all
// host features (usage accounting, rate limiting, the credential vault).
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Config holds storage configuration.
type Config struct {
	// Path is the database file path (default: .ghostwriter/ghostwriter.db)
	Path string
}

// SQLite wraps the single embedded database file used by the host process.
type SQLite struct {
	db   *sql.DB
	path string
}

// Open creates the SQLite connection, enabling WAL mode for concurrent reads
// while writing. The initial ping is retried with exponential backoff so a
// stale lock left behind by a crashed previous instance does not fail startup.
func Open(cfg Config) (*SQLite, error) {
	if cfg.Path == "" {
		cfg.Path = filepath.Join(".ghostwriter", "ghostwriter.db")
	}

	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	dsn := fmt.Sprintf("%s?_journal=WAL&_busy_timeout=5000&_synchronous=NORMAL", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite only allows one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = 5 * time.Second
	if err := backoff.Retry(db.Ping, bo); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLite{db: db, path: cfg.Path}, nil
}

// DB returns the shared connection. Feature stores create their own tables
// on top of it at startup.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.path
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
