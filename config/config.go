// Package config provides configuration management for the host process.
// Values come from an optional ghostwriter.yaml plus GHOSTWRITER_* environment
// variables; pricing and rate-limit tables hot-reload on file change.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"ghostwriterd/internal/pricing"
)

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Library   LibraryConfig   `mapstructure:"library" yaml:"library"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Usage     UsageConfig     `mapstructure:"usage" yaml:"usage"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Vault     VaultConfig     `mapstructure:"vault" yaml:"vault"`
	Assistant AssistantConfig `mapstructure:"assistant" yaml:"assistant"`

	RateLimits pricing.RateLimits `mapstructure:"rate_limits" yaml:"rate_limits"`
	Pricing    pricing.Table      `mapstructure:"pricing" yaml:"pricing"`
}

// ServerConfig holds bridge server configuration. The bridge binds loopback
// only; the UI process is the sole intended client.
type ServerConfig struct {
	Host          string `mapstructure:"host" yaml:"host"`
	Port          string `mapstructure:"port" yaml:"port"`
	BodySizeLimit int64  `mapstructure:"body_size_limit" yaml:"body_size_limit"`
}

// StorageConfig holds embedded database configuration.
type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LibraryConfig holds the default location for novel projects.
type LibraryConfig struct {
	Root string `mapstructure:"root" yaml:"root"`
}

// LoggingConfig holds log level and file rotation settings. An empty Dir
// logs to stdout only.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Dir        string `mapstructure:"dir" yaml:"dir"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// UsageConfig holds retention settings for the usage store.
type UsageConfig struct {
	// RetentionDays bounds the call-event log (0 = keep forever).
	RetentionDays int `mapstructure:"retention_days" yaml:"retention_days"`
	// RateRetentionMinutes is how long stale minute buckets are kept.
	RateRetentionMinutes int `mapstructure:"rate_retention_minutes" yaml:"rate_retention_minutes"`
	// SweepIntervalMinutes is how often the retention sweep runs.
	SweepIntervalMinutes int `mapstructure:"sweep_interval_minutes" yaml:"sweep_interval_minutes"`
}

// MetricsConfig controls the Prometheus endpoint on the bridge.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
}

// VaultConfig holds credential vault settings.
type VaultConfig struct {
	// PassphraseEnv names the environment variable holding the vault
	// passphrase. When unset and stdin is a terminal, the host prompts.
	PassphraseEnv string `mapstructure:"passphrase_env" yaml:"passphrase_env"`
}

// AssistantConfig holds the simulated assistant's settings.
type AssistantConfig struct {
	ThinkDelayMS int `mapstructure:"think_delay_ms" yaml:"think_delay_ms"`
}

// Store wraps the loaded configuration with thread-safe access and
// hot-reload updates.
type Store struct {
	mu       sync.RWMutex
	cfg      *Config
	onChange func(*Config)
}

// Get returns a copy of the current configuration.
func (s *Store) Get() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cfg == nil {
		return nil
	}
	cpy := *s.cfg
	return &cpy
}

func (s *Store) set(cfg *Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// OnChange registers a callback invoked after each successful hot reload.
// Registration may happen after LoadAndWatch returns; reloads that fire
// before it see no callback.
func (s *Store) OnChange(fn func(*Config)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn(s.Get())
	}
}

// Load reads configuration once without watching for changes.
func Load(path string) (*Config, error) {
	store, err := LoadAndWatch(path)
	if err != nil {
		return nil, err
	}
	return store.Get(), nil
}

// LoadAndWatch loads the configuration and, when a config file is present,
// watches it for on-disk changes. Reload failures keep the last good
// configuration; successful reloads fire the Store's OnChange callback.
func LoadAndWatch(path string) (*Store, error) {
	// .env is optional and never fails the load
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ghostwriter")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".ghostwriter"))
		}
	}

	v.SetEnvPrefix("GHOSTWRITER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	haveFile := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			haveFile = false // defaults + env only
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	store := &Store{}
	if err := refresh(v, store); err != nil {
		return nil, err
	}

	if haveFile {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			if err := refresh(v, store); err != nil {
				slog.Error("config reload failed, keeping previous", "file", e.Name, "error", err)
				return
			}
			slog.Info("config reloaded", "file", e.Name)
			store.notify()
		})
	}

	return store, nil
}

func refresh(v *viper.Viper, store *Store) error {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	applyDefaults(&cfg)
	store.set(&cfg)
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8787"
	}
	if cfg.Server.BodySizeLimit <= 0 {
		cfg.Server.BodySizeLimit = 4 << 20 // chapters cap at 1M chars
	}

	home, homeErr := os.UserHomeDir()
	if cfg.Storage.Path == "" {
		if homeErr == nil {
			cfg.Storage.Path = filepath.Join(home, ".ghostwriter", "ghostwriter.db")
		} else {
			cfg.Storage.Path = filepath.Join(".ghostwriter", "ghostwriter.db")
		}
	}
	if cfg.Library.Root == "" {
		if homeErr == nil {
			cfg.Library.Root = filepath.Join(home, "Documents", "GhostWriter Novels")
		} else {
			cfg.Library.Root = "GhostWriter Novels"
		}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.MaxSizeMB <= 0 {
		cfg.Logging.MaxSizeMB = 20
	}
	if cfg.Logging.MaxBackups <= 0 {
		cfg.Logging.MaxBackups = 3
	}
	if cfg.Logging.MaxAgeDays <= 0 {
		cfg.Logging.MaxAgeDays = 14
	}

	if cfg.Usage.RateRetentionMinutes <= 0 {
		cfg.Usage.RateRetentionMinutes = 60
	}
	if cfg.Usage.SweepIntervalMinutes <= 0 {
		cfg.Usage.SweepIntervalMinutes = 10
	}

	if cfg.Metrics.Endpoint == "" {
		cfg.Metrics.Endpoint = "/metrics"
	}
	if cfg.Vault.PassphraseEnv == "" {
		cfg.Vault.PassphraseEnv = "GHOSTWRITER_VAULT_PASSPHRASE"
	}
	if cfg.Assistant.ThinkDelayMS <= 0 {
		cfg.Assistant.ThinkDelayMS = 1500
	}

	if cfg.RateLimits.Default <= 0 {
		cfg.RateLimits.Default = pricing.DefaultRequestsPerMinute
	}
	if cfg.Pricing == nil {
		cfg.Pricing = pricing.DefaultTable()
	}
}
