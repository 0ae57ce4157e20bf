// Package main is the entry point for the GhostWriter host process.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ghostwriterd/config"
	"ghostwriterd/internal/app"
	"ghostwriterd/internal/logging"
	"ghostwriterd/internal/version"
)

func main() {
	versionFlag := flag.Bool("version", false, "Print version information")
	configPath := flag.String("config", "", "Path to config file (default: ghostwriter.yaml in . or ~/.ghostwriter)")
	initConfig := flag.String("init-config", "", "Write a default config file to the given path and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	if *initConfig != "" {
		if err := config.WriteDefault(*initConfig); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("wrote", *initConfig)
		os.Exit(0)
	}

	// Bootstrap logger so config loading has somewhere to report; replaced
	// once the logging config is known.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	store, err := config.LoadAndWatch(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := store.Get()

	if _, err := logging.Setup(logging.Options{
		Level:      cfg.Logging.Level,
		Dir:        cfg.Logging.Dir,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}); err != nil {
		slog.Error("failed to set up logging", "error", err)
		os.Exit(1)
	}

	slog.Info("starting ghostwriterd",
		"version", version.Version,
		"commit", version.Commit,
		"build_date", version.Date,
	)

	host, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	// Pricing and rate-limit edits take effect without a restart.
	store.OnChange(func(cfg *config.Config) {
		host.UpdatePricing(cfg.Pricing, cfg.RateLimits)
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := host.Shutdown(ctx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("bridge listening", "address", host.Addr(), "store", cfg.Storage.Path)
	if err := host.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("stopped")
}
