// Package usage implements the local usage-accounting and rate-limiting
// store: an append-only call-event log, per-day per-provider aggregates,
// and minute-bucketed rate counters over the shared embedded database.
package usage

import "time"

// Timeframe selects the date lower-bound for reporting queries.
type Timeframe string

const (
	TimeframeToday Timeframe = "today"
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
)

// CallParams describes one attempted provider call to be recorded.
type CallParams struct {
	// Provider is the external service tag, e.g. "openai" or "claude".
	Provider string
	// Endpoint is the provider endpoint that was called, e.g. "chat".
	Endpoint string

	InputTokens  int
	OutputTokens int
	CostUSD      float64
	// ResponseTimeMS is the observed call latency in milliseconds.
	ResponseTimeMS int

	Success      bool
	ErrorMessage string
}

// RateLimitStatus is the result of consulting the advisory rate gate.
type RateLimitStatus struct {
	Provider     string    `json:"provider"`
	Allowed      bool      `json:"allowed"`
	CurrentCount int       `json:"currentCount"`
	Limit        int       `json:"limit"`
	ResetTime    time.Time `json:"resetTime"`
}

// ProviderStats is one row of the usage report, summed over daily aggregates.
type ProviderStats struct {
	Provider     string  `json:"provider"`
	TotalCalls   int64   `json:"total_calls"`
	TotalTokens  int64   `json:"total_tokens"`
	TotalCostUSD float64 `json:"total_cost_usd"`
}

// LimitSource resolves the per-minute request ceiling for a provider.
// Limits are configuration, not code: they change as providers change
// their terms, so the store never hard-codes them.
type LimitSource interface {
	Limit(provider string) int
}

// Config holds retention settings for the store's background sweep.
type Config struct {
	// RateRetention is how long stale minute buckets are kept before the
	// sweep deletes them. Past buckets never influence the current count;
	// this only bounds table growth.
	RateRetention time.Duration

	// SweepInterval is how often the retention sweep runs.
	// A negative value disables the sweep.
	SweepInterval time.Duration

	// RetentionDays is how long call events are kept (0 = forever).
	RetentionDays int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		RateRetention: time.Hour,
		SweepInterval: 10 * time.Minute,
		RetentionDays: 0,
	}
}
