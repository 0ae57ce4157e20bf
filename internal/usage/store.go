package usage

import (
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// Schema for the three collections. Bootstrap is idempotent and runs once at
// host startup; re-running against an existing database is safe.
const schema = `
CREATE TABLE IF NOT EXISTS api_calls (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
	provider TEXT NOT NULL,
	endpoint TEXT NOT NULL DEFAULT '',
	input_tokens INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	total_tokens INTEGER NOT NULL DEFAULT 0,
	cost_usd REAL NOT NULL DEFAULT 0,
	response_time_ms INTEGER NOT NULL DEFAULT 0,
	success INTEGER NOT NULL DEFAULT 1,
	error_message TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_api_calls_timestamp ON api_calls(timestamp);
CREATE INDEX IF NOT EXISTS idx_api_calls_provider ON api_calls(provider);

CREATE TABLE IF NOT EXISTS daily_usage (
	usage_date TEXT NOT NULL,
	provider TEXT NOT NULL,
	total_calls INTEGER NOT NULL DEFAULT 0,
	total_tokens INTEGER NOT NULL DEFAULT 0,
	total_cost_usd REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (usage_date, provider)
);

CREATE TABLE IF NOT EXISTS rate_limits (
	provider TEXT NOT NULL,
	minute_start TEXT NOT NULL,
	request_count INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (provider, minute_start)
);
`

// Store provides the usage-accounting and rate-limiting operations over the
// shared embedded database. The connection is injected at construction and
// owned by the storage layer; Store never closes it.
type Store struct {
	db     *sql.DB
	limits LimitSource
	cfg    Config

	// now is wall-clock time, injectable for bucket-boundary tests.
	now func() time.Time

	stopSweep chan struct{}
	closeOnce sync.Once
}

// NewStore bootstraps the schema and starts the retention sweep.
// The caller must call Close during host shutdown.
func NewStore(db *sql.DB, limits LimitSource, cfg Config) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if limits == nil {
		return nil, fmt.Errorf("rate limit source is required")
	}
	if cfg.RateRetention == 0 {
		cfg.RateRetention = DefaultConfig().RateRetention
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = DefaultConfig().SweepInterval
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create usage tables: %w", err)
	}

	s := &Store{
		db:        db,
		limits:    limits,
		cfg:       cfg,
		now:       time.Now,
		stopSweep: make(chan struct{}),
	}

	// A negative interval disables the sweep entirely.
	if cfg.SweepInterval > 0 {
		go s.runSweep()
	}

	return s, nil
}

// Close stops the retention sweep. Safe to call multiple times.
// The database connection itself is managed by the storage layer.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopSweep)
	})
	return nil
}

// minuteBucket returns the start of the current minute in UTC.
func (s *Store) minuteBucket() time.Time {
	return s.now().UTC().Truncate(time.Minute)
}

// localDate returns the current calendar day in local time, the key used by
// daily aggregates.
func (s *Store) localDate() string {
	return s.now().Format("2006-01-02")
}
