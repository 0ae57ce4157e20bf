// Package pricing holds the provider pricing and rate-limit tables.
// Both are configuration, not code: they are loaded from the config file
// and swapped atomically on reload, so new providers and models never
// require a rebuild.
package pricing

import (
	"log/slog"
	"sync"
)

// DefaultRequestsPerMinute is the advisory per-provider ceiling used when a
// provider has no explicit override.
const DefaultRequestsPerMinute = 60

// ModelPrice is the USD price per 1k tokens for one model.
type ModelPrice struct {
	InputPer1K  float64 `mapstructure:"input_per_1k" yaml:"input_per_1k"`
	OutputPer1K float64 `mapstructure:"output_per_1k" yaml:"output_per_1k"`
}

// Table maps provider -> model -> price.
type Table map[string]map[string]ModelPrice

// RateLimits holds per-minute request ceilings keyed by provider.
type RateLimits struct {
	Default   int            `mapstructure:"default" yaml:"default"`
	Providers map[string]int `mapstructure:"providers" yaml:"providers,omitempty"`
}

// Store wraps the tables with thread-safe access and hot-reload updates.
type Store struct {
	mu     sync.RWMutex
	table  Table
	limits RateLimits
}

// NewStore creates a Store seeded with the given tables. Zero values fall
// back to the built-in defaults.
func NewStore(table Table, limits RateLimits) *Store {
	s := &Store{}
	s.Update(table, limits)
	return s
}

// Update atomically replaces both tables. Called on config reload.
func (s *Store) Update(table Table, limits RateLimits) {
	if table == nil {
		table = DefaultTable()
	}
	if limits.Default <= 0 {
		limits.Default = DefaultRequestsPerMinute
	}

	s.mu.Lock()
	s.table = table
	s.limits = limits
	s.mu.Unlock()
}

// Cost computes the USD cost of one call. Unknown providers or models price
// at zero with a logged warning, matching the tolerant accounting posture:
// a missing price must never block the call from being recorded.
func (s *Store) Cost(provider, model string, inputTokens, outputTokens int) float64 {
	s.mu.RLock()
	models, ok := s.table[provider]
	var price ModelPrice
	if ok {
		price, ok = models[model]
	}
	s.mu.RUnlock()

	if !ok {
		slog.Warn("no pricing for model", "provider", provider, "model", model)
		return 0
	}

	return float64(inputTokens)/1000*price.InputPer1K + float64(outputTokens)/1000*price.OutputPer1K
}

// Limit implements usage.LimitSource.
func (s *Store) Limit(provider string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n, ok := s.limits.Providers[provider]; ok {
		return n
	}
	return s.limits.Default
}

// DefaultTable returns the built-in pricing table, used until a config file
// provides one.
func DefaultTable() Table {
	return Table{
		"openai": {
			"gpt-4":         {InputPer1K: 0.03, OutputPer1K: 0.06},
			"gpt-3.5-turbo": {InputPer1K: 0.001, OutputPer1K: 0.002},
		},
		"claude": {
			"claude-3-opus":   {InputPer1K: 0.015, OutputPer1K: 0.075},
			"claude-3-sonnet": {InputPer1K: 0.003, OutputPer1K: 0.015},
			"claude-3-haiku":  {InputPer1K: 0.00025, OutputPer1K: 0.00125},
		},
		"gemini": {
			"gemini-pro": {InputPer1K: 0.0005, OutputPer1K: 0.0015},
		},
		"grok": {
			"grok-beta": {InputPer1K: 0.005, OutputPer1K: 0.015},
		},
	}
}
