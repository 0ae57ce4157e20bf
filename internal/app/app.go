// Package app wires the host's subsystems together and manages their
// lifecycle: open everything at startup, close in reverse order at shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ghostwriterd/config"
	"ghostwriterd/internal/assistant"
	"ghostwriterd/internal/pricing"
	"ghostwriterd/internal/project"
	"ghostwriterd/internal/server"
	"ghostwriterd/internal/storage"
	"ghostwriterd/internal/usage"
	"ghostwriterd/internal/vault"
)

// App holds the host process's wired subsystems.
type App struct {
	config *config.Config
	store  *storage.SQLite
	prices *pricing.Store
	usage  *usage.Store
	server *server.Server

	shutdownMu sync.Mutex
	shutdown   bool
}

// New creates an App with all dependencies initialized. The caller must
// call Shutdown to release resources.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	app := &App{config: cfg}

	store, err := storage.Open(storage.Config{Path: cfg.Storage.Path})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	app.store = store

	app.prices = pricing.NewStore(cfg.Pricing, cfg.RateLimits)

	usageStore, err := usage.NewStore(store.DB(), app.prices, usage.Config{
		RateRetention: time.Duration(cfg.Usage.RateRetentionMinutes) * time.Minute,
		SweepInterval: time.Duration(cfg.Usage.SweepIntervalMinutes) * time.Minute,
		RetentionDays: cfg.Usage.RetentionDays,
	})
	if err != nil {
		closeErr := store.Close()
		if closeErr != nil {
			return nil, fmt.Errorf("failed to initialize usage store: %w (also: store close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize usage store: %w", err)
	}
	app.usage = usageStore

	passphrase, err := vault.ResolvePassphrase(cfg.Vault.PassphraseEnv)
	if err != nil {
		return nil, app.failInit("failed to resolve vault passphrase", err)
	}
	sealer := vault.NewPassphraseSealer(passphrase)
	if !sealer.Available() {
		slog.Warn("credential vault sealed operations disabled: no passphrase available",
			"env", cfg.Vault.PassphraseEnv)
	}
	keys, err := vault.NewKeyStore(store.DB(), sealer)
	if err != nil {
		return nil, app.failInit("failed to initialize key store", err)
	}

	library := project.NewLibrary(cfg.Library.Root)
	gen := assistant.NewGenerator(time.Duration(cfg.Assistant.ThinkDelayMS) * time.Millisecond)

	handler := server.NewHandler(usageStore, library, keys, gen, app.prices)
	app.server = server.New(handler, &server.Config{
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsEndpoint: cfg.Metrics.Endpoint,
		BodySizeLimit:   cfg.Server.BodySizeLimit,
	})

	return app, nil
}

// UpdatePricing swaps in a freshly reloaded pricing table and limit set.
func (a *App) UpdatePricing(table pricing.Table, limits pricing.RateLimits) {
	a.prices.Update(table, limits)
}

// Addr returns the loopback address the bridge should listen on.
func (a *App) Addr() string {
	return a.config.Server.Host + ":" + a.config.Server.Port
}

// Start runs the bridge server until Shutdown.
func (a *App) Start() error {
	return a.server.Start(a.Addr())
}

// Shutdown stops the bridge and closes the stores. Safe to call once.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	defer a.shutdownMu.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true

	var firstErr error
	if err := a.server.Shutdown(ctx); err != nil {
		firstErr = fmt.Errorf("server shutdown: %w", err)
	}
	if err := a.usage.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("usage store close: %w", err)
	}
	if err := a.store.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("store close: %w", err)
	}
	return firstErr
}

func (a *App) failInit(msg string, err error) error {
	if a.usage != nil {
		if closeErr := a.usage.Close(); closeErr != nil {
			slog.Warn("cleanup after failed init", "error", closeErr)
		}
	}
	if a.store != nil {
		if closeErr := a.store.Close(); closeErr != nil {
			slog.Warn("cleanup after failed init", "error", closeErr)
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
