package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"ghostwriterd/config"
	"ghostwriterd/internal/pricing"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		Storage: config.StorageConfig{Path: filepath.Join(dir, "app.db")},
		Library: config.LibraryConfig{Root: filepath.Join(dir, "novels")},
		Usage:   config.UsageConfig{RateRetentionMinutes: 60, SweepIntervalMinutes: 10},
		Server:  config.ServerConfig{Host: "127.0.0.1", Port: "0"},
		Vault:   config.VaultConfig{PassphraseEnv: "GHOSTWRITERD_TEST_NO_SUCH_VAR"},
		Assistant: config.AssistantConfig{
			ThinkDelayMS: -1,
		},
		RateLimits: pricing.RateLimits{Default: 60},
	}

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := a.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
	})
	return a
}

func TestAppServesBridge(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/bridge/check-rate-limit",
		strings.NewReader(`{"provider":"openai"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"allowed":true`) {
		t.Errorf("body = %s, want allowed:true", rec.Body.String())
	}
}

func TestAppShutdownIdempotent(t *testing.T) {
	a := newTestApp(t)

	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("first Shutdown() error = %v", err)
	}
	if err := a.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}

func TestAppUpdatePricing(t *testing.T) {
	a := newTestApp(t)

	a.UpdatePricing(pricing.Table{
		"openai": {"gpt-4": {InputPer1K: 1, OutputPer1K: 2}},
	}, pricing.RateLimits{Default: 5})

	if got := a.prices.Cost("openai", "gpt-4", 1000, 1000); got != 3 {
		t.Errorf("Cost after update = %v, want 3", got)
	}
	if got := a.prices.Limit("openai"); got != 5 {
		t.Errorf("Limit after update = %v, want 5", got)
	}
}

func TestAppAddr(t *testing.T) {
	a := newTestApp(t)
	if got := a.Addr(); got != "127.0.0.1:0" {
		t.Errorf("Addr() = %q, want %q", got, "127.0.0.1:0")
	}
}
