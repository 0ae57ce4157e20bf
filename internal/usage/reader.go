package usage

import (
	"context"
	"fmt"
	"strings"

	"ghostwriterd/internal/core"
)

// GetUsageStats sums daily aggregates with a date at or after the timeframe's
// lower bound, grouped by provider, optionally filtered to one provider.
// Providers with no activity in range are absent from the result, not
// returned as zero rows. Pure read, no side effects.
func (s *Store) GetUsageStats(ctx context.Context, timeframe Timeframe, provider string) ([]ProviderStats, error) {
	since, err := s.lowerBound(timeframe)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT provider, SUM(total_calls), SUM(total_tokens), SUM(total_cost_usd)
		FROM daily_usage
		WHERE usage_date >= ?`
	args := []any{since}

	if provider = strings.TrimSpace(provider); provider != "" {
		query += " AND provider = ?"
		args = append(args, provider)
	}
	query += " GROUP BY provider ORDER BY provider"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.NewStoreUnavailableError("failed to query usage stats", err)
	}
	defer rows.Close()

	stats := make([]ProviderStats, 0)
	for rows.Next() {
		var st ProviderStats
		if err := rows.Scan(&st.Provider, &st.TotalCalls, &st.TotalTokens, &st.TotalCostUSD); err != nil {
			return nil, core.NewStoreUnavailableError("failed to scan usage stats row", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStoreUnavailableError("error iterating usage stats rows", err)
	}

	return stats, nil
}

// lowerBound resolves a timeframe to its inclusive date lower bound in local
// calendar days: today, today-7d, or today-30d.
func (s *Store) lowerBound(timeframe Timeframe) (string, error) {
	now := s.now()
	switch timeframe {
	case TimeframeToday, "":
		return now.Format("2006-01-02"), nil
	case TimeframeWeek:
		return now.AddDate(0, 0, -7).Format("2006-01-02"), nil
	case TimeframeMonth:
		return now.AddDate(0, 0, -30).Format("2006-01-02"), nil
	default:
		return "", core.NewValidationError(fmt.Sprintf("unknown timeframe %q (valid: today, week, month)", timeframe))
	}
}
