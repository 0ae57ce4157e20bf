package usage

import (
	"context"
	"strings"
	"time"

	"ghostwriterd/internal/core"
)

// RecordCall appends one immutable call event and applies its contribution
// (+1 call, +total tokens, +cost) to the matching daily aggregate. Both
// writes happen in a single transaction: either the event and the aggregate
// move together or neither does, so the aggregate can never under-count
// relative to the log. Returns the generated event id.
func (s *Store) RecordCall(ctx context.Context, p CallParams) (int64, error) {
	if err := validateCallParams(p); err != nil {
		return 0, err
	}

	totalTokens := p.InputTokens + p.OutputTokens
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, core.NewStoreUnavailableError("usage store unavailable", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `
		INSERT INTO api_calls (timestamp, provider, endpoint, input_tokens, output_tokens,
			total_tokens, cost_usd, response_time_ms, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		now.UTC().Format(time.RFC3339Nano),
		p.Provider,
		p.Endpoint,
		p.InputTokens,
		p.OutputTokens,
		totalTokens,
		p.CostUSD,
		p.ResponseTimeMS,
		boolToInt(p.Success),
		p.ErrorMessage,
	)
	if err != nil {
		return 0, core.NewStoreUnavailableError("failed to record call event", err)
	}

	callID, err := res.LastInsertId()
	if err != nil {
		return 0, core.NewStoreUnavailableError("failed to read call event id", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO daily_usage (usage_date, provider, total_calls, total_tokens, total_cost_usd)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(usage_date, provider) DO UPDATE SET
			total_calls = total_calls + 1,
			total_tokens = total_tokens + excluded.total_tokens,
			total_cost_usd = total_cost_usd + excluded.total_cost_usd`,
		s.localDate(), p.Provider, totalTokens, p.CostUSD,
	)
	if err != nil {
		return 0, core.NewStoreUnavailableError("failed to update daily aggregate", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, core.NewStoreUnavailableError("failed to commit call record", err)
	}

	return callID, nil
}

func validateCallParams(p CallParams) error {
	if strings.TrimSpace(p.Provider) == "" {
		return core.NewValidationError("provider is required")
	}
	if p.InputTokens < 0 || p.OutputTokens < 0 {
		return core.NewValidationError("token counts must be non-negative")
	}
	if p.CostUSD < 0 {
		return core.NewValidationError("cost must be non-negative")
	}
	if p.ResponseTimeMS < 0 {
		return core.NewValidationError("response time must be non-negative")
	}
	if p.Success && p.ErrorMessage != "" {
		return core.NewValidationError("error message is only valid for failed calls")
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
