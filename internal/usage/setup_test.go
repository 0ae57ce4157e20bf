package usage

import (
	"path/filepath"
	"testing"
	"time"

	"ghostwriterd/internal/storage"
)

// staticLimits implements LimitSource for tests.
type staticLimits struct {
	def       int
	providers map[string]int
}

func (l staticLimits) Limit(provider string) int {
	if n, ok := l.providers[provider]; ok {
		return n
	}
	return l.def
}

func newTestStore(t *testing.T, limits LimitSource) *Store {
	t.Helper()

	st, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "usage.db")})
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	if limits == nil {
		limits = staticLimits{def: 60}
	}

	s, err := NewStore(st.DB(), limits, Config{SweepInterval: -1})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

// fixClock pins the store's wall clock to a settable instant.
func fixClock(s *Store, at time.Time) *time.Time {
	current := at
	s.now = func() time.Time { return current }
	return &current
}
