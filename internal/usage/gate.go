package usage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"ghostwriterd/internal/core"
)

// CheckRateLimit reports the advisory state of the gate for the current
// minute bucket. It is a pure read and does not reserve a slot: two callers
// can both observe "allowed" before either increments. Callers that need the
// check and the increment to be one step should use ReserveSlot.
func (s *Store) CheckRateLimit(ctx context.Context, provider string) (RateLimitStatus, error) {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return RateLimitStatus{}, core.NewValidationError("provider is required")
	}

	bucket := s.minuteBucket()
	limit := s.limits.Limit(provider)

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT request_count FROM rate_limits WHERE provider = ? AND minute_start = ?`,
		provider, bucket.Format(time.RFC3339),
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		count = 0
	} else if err != nil {
		return RateLimitStatus{}, core.NewStoreUnavailableError("failed to read rate counter", err)
	}

	return RateLimitStatus{
		Provider:     provider,
		Allowed:      count < limit,
		CurrentCount: count,
		Limit:        limit,
		ResetTime:    bucket.Add(time.Minute),
	}, nil
}

// IncrementRateLimit adds one attempted call to the current minute bucket,
// creating the counter row at 1 if absent. It must be called once per
// attempt regardless of outcome, immediately before the external call.
func (s *Store) IncrementRateLimit(ctx context.Context, provider string) error {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return core.NewValidationError("provider is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rate_limits (provider, minute_start, request_count)
		VALUES (?, ?, 1)
		ON CONFLICT(provider, minute_start) DO UPDATE SET
			request_count = request_count + 1`,
		provider, s.minuteBucket().Format(time.RFC3339),
	)
	if err != nil {
		return core.NewStoreUnavailableError("failed to increment rate counter", err)
	}
	return nil
}

// ReserveSlot atomically checks the gate and claims a slot in the current
// minute bucket. The conditional upsert increments only while the counter is
// below the provider's limit, closing the check-then-act gap of the two-call
// protocol. The returned status reflects the counter after the attempt:
// Allowed reports whether this caller got the slot.
func (s *Store) ReserveSlot(ctx context.Context, provider string) (RateLimitStatus, error) {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return RateLimitStatus{}, core.NewValidationError("provider is required")
	}

	bucket := s.minuteBucket()
	limit := s.limits.Limit(provider)
	status := RateLimitStatus{
		Provider:  provider,
		Limit:     limit,
		ResetTime: bucket.Add(time.Minute),
	}

	if limit <= 0 {
		return status, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RateLimitStatus{}, core.NewStoreUnavailableError("usage store unavailable", err)
	}
	defer tx.Rollback() //nolint:errcheck

	key := bucket.Format(time.RFC3339)

	res, err := tx.ExecContext(ctx, `
		INSERT INTO rate_limits (provider, minute_start, request_count)
		VALUES (?, ?, 1)
		ON CONFLICT(provider, minute_start) DO UPDATE SET
			request_count = request_count + 1
		WHERE request_count < ?`,
		provider, key, limit,
	)
	if err != nil {
		return RateLimitStatus{}, core.NewStoreUnavailableError("failed to reserve rate slot", err)
	}

	granted, err := res.RowsAffected()
	if err != nil {
		return RateLimitStatus{}, core.NewStoreUnavailableError("failed to reserve rate slot", err)
	}

	if err := tx.QueryRowContext(ctx,
		`SELECT request_count FROM rate_limits WHERE provider = ? AND minute_start = ?`,
		provider, key,
	).Scan(&status.CurrentCount); err != nil {
		return RateLimitStatus{}, core.NewStoreUnavailableError("failed to read rate counter", err)
	}

	if err := tx.Commit(); err != nil {
		return RateLimitStatus{}, core.NewStoreUnavailableError("failed to commit rate reservation", err)
	}

	status.Allowed = granted == 1
	return status, nil
}
