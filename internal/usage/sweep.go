package usage

import (
	"log/slog"
	"time"
)

// runSweep deletes stale rate buckets and expired call events periodically
// until the store is closed. An initial sweep runs at startup so counters
// left behind by a previous session are cleared promptly.
func (s *Store) runSweep() {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopSweep:
			return
		}
	}
}

func (s *Store) sweep() {
	cutoff := s.now().UTC().Add(-s.cfg.RateRetention).Format(time.RFC3339)
	res, err := s.db.Exec(`DELETE FROM rate_limits WHERE minute_start < ?`, cutoff)
	if err != nil {
		slog.Error("failed to sweep stale rate buckets", "error", err)
	} else if n, err := res.RowsAffected(); err == nil && n > 0 {
		slog.Debug("swept stale rate buckets", "deleted", n)
	}

	if s.cfg.RetentionDays <= 0 {
		return
	}

	eventCutoff := s.now().AddDate(0, 0, -s.cfg.RetentionDays).UTC().Format(time.RFC3339Nano)
	res, err = s.db.Exec(`DELETE FROM api_calls WHERE timestamp < ?`, eventCutoff)
	if err != nil {
		slog.Error("failed to sweep expired call events", "error", err)
	} else if n, err := res.RowsAffected(); err == nil && n > 0 {
		slog.Info("swept expired call events", "deleted", n)
	}
}
