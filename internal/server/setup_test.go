package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"ghostwriterd/internal/assistant"
	"ghostwriterd/internal/pricing"
	"ghostwriterd/internal/project"
	"ghostwriterd/internal/storage"
	"ghostwriterd/internal/usage"
	"ghostwriterd/internal/vault"
)

// newTestServer builds the full bridge over a throwaway database. The
// "limited" provider gets a ceiling of 1 request per minute so gate
// denials are easy to provoke.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	st, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "bridge.db")})
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	prices := pricing.NewStore(nil, pricing.RateLimits{
		Default:   60,
		Providers: map[string]int{"limited": 1},
	})

	store, err := usage.NewStore(st.DB(), prices, usage.Config{SweepInterval: -1})
	if err != nil {
		t.Fatalf("new usage store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	keys, err := vault.NewKeyStore(st.DB(), vault.NewPassphraseSealer([]byte("test-passphrase")))
	if err != nil {
		t.Fatalf("new key store: %v", err)
	}

	library := project.NewLibrary(t.TempDir())
	gen := assistant.NewGenerator(-1) // no think-delay in tests

	return New(NewHandler(store, library, keys, gen, prices), &Config{})
}

// postJSON drives one bridge operation and decodes the envelope.
func postJSON(t *testing.T, srv *Server, path string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	} else {
		buf.WriteString("{}")
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec.Code, resp
}
