package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghostwriter.yaml")
	content := `
server:
  port: "9100"
usage:
  retention_days: 30
rate_limits:
  default: 120
  providers:
    openai: 20
pricing:
  openai:
    gpt-4:
      input_per_1k: 0.05
      output_per_1k: 0.10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "9100" {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "9100")
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want default %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Usage.RetentionDays != 30 {
		t.Errorf("Usage.RetentionDays = %d, want 30", cfg.Usage.RetentionDays)
	}
	if cfg.RateLimits.Default != 120 {
		t.Errorf("RateLimits.Default = %d, want 120", cfg.RateLimits.Default)
	}
	if got := cfg.RateLimits.Providers["openai"]; got != 20 {
		t.Errorf("RateLimits.Providers[openai] = %d, want 20", got)
	}
	if got := cfg.Pricing["openai"]["gpt-4"].InputPer1K; got != 0.05 {
		t.Errorf("Pricing[openai][gpt-4].InputPer1K = %v, want 0.05", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghostwriter.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "8787" {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "8787")
	}
	if cfg.Storage.Path == "" {
		t.Error("Storage.Path defaulted to empty")
	}
	if cfg.Usage.RateRetentionMinutes != 60 {
		t.Errorf("Usage.RateRetentionMinutes = %d, want 60", cfg.Usage.RateRetentionMinutes)
	}
	if cfg.Usage.SweepIntervalMinutes != 10 {
		t.Errorf("Usage.SweepIntervalMinutes = %d, want 10", cfg.Usage.SweepIntervalMinutes)
	}
	if cfg.Vault.PassphraseEnv != "GHOSTWRITER_VAULT_PASSPHRASE" {
		t.Errorf("Vault.PassphraseEnv = %q", cfg.Vault.PassphraseEnv)
	}
	if cfg.RateLimits.Default != 60 {
		t.Errorf("RateLimits.Default = %d, want 60", cfg.RateLimits.Default)
	}
	if len(cfg.Pricing) == 0 {
		t.Error("Pricing defaulted to empty table")
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should default to false")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() with missing explicit file should fail")
	}
}

func TestStoreOnChange(t *testing.T) {
	store := &Store{}
	cfg := &Config{}
	applyDefaults(cfg)
	store.set(cfg)

	var got *Config
	store.OnChange(func(c *Config) { got = c })
	store.notify()

	if got == nil {
		t.Fatal("OnChange callback not invoked")
	}
	if got.Server.Port != "8787" {
		t.Errorf("callback saw Port = %q, want %q", got.Server.Port, "8787")
	}

	// Get hands out copies; mutating one must not touch the store.
	got.Server.Port = "9999"
	if store.Get().Server.Port != "8787" {
		t.Error("callback copy aliased the stored config")
	}
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghostwriter.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() after WriteDefault error = %v", err)
	}
	if cfg.Server.Port != "8787" {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "8787")
	}
	if len(cfg.Pricing) == 0 {
		t.Error("written config lost the pricing table")
	}

	if err := WriteDefault(path); err == nil {
		t.Error("WriteDefault() should refuse to overwrite an existing file")
	}
}
