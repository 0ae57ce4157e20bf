package server

import (
	"context"
	"log/slog"
	"net/http"
	"path"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wraps the Echo server behind the bridge contract.
type Server struct {
	echo    *echo.Echo
	handler *Handler
}

// Config holds server configuration options
type Config struct {
	MetricsEnabled  bool   // Whether to expose Prometheus metrics endpoint
	MetricsEndpoint string // HTTP path for metrics endpoint (default: /metrics)
	BodySizeLimit   int64  // Max request body size in bytes (default: 4MB)
}

const defaultBodySizeLimit = 4 << 20

// New creates the bridge HTTP server. The caller binds it to loopback; the
// UI process is the only intended client.
func New(handler *Handler, cfg *Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware stack (order matters)
	e.Use(middleware.RequestID())
	e.Use(requestLogger())
	e.Use(middleware.Recover())

	bodySizeLimit := int64(defaultBodySizeLimit)
	if cfg != nil && cfg.BodySizeLimit > 0 {
		bodySizeLimit = cfg.BodySizeLimit
	}
	e.Use(middleware.BodyLimit(strconv.FormatInt(bodySizeLimit, 10)))

	// Public routes
	e.GET("/health", handler.Health)
	if cfg != nil && cfg.MetricsEnabled {
		metricsPath := "/metrics"
		if cfg.MetricsEndpoint != "" {
			// Normalize path to prevent traversal attacks
			metricsPath = path.Clean(cfg.MetricsEndpoint)
		}
		e.GET(metricsPath, echo.WrapHandler(promhttp.Handler()))
	}

	// Bridge routes, one per UI-facing operation
	b := e.Group("/bridge", opMetrics())

	b.POST("/track-api-call", handler.TrackAPICall)
	b.POST("/get-usage-stats", handler.GetUsageStats)
	b.POST("/check-rate-limit", handler.CheckRateLimit)
	b.POST("/increment-rate-limit", handler.IncrementRateLimit)
	b.POST("/reserve-rate-slot", handler.ReserveRateSlot)

	b.POST("/create-novel", handler.CreateNovel)
	b.POST("/save-chapter", handler.SaveChapter)
	b.POST("/load-chapter", handler.LoadChapter)
	b.POST("/load-novel-metadata", handler.LoadNovelMetadata)
	b.POST("/list-novels", handler.ListNovels)

	b.POST("/store-api-key", handler.StoreAPIKey)
	b.POST("/retrieve-api-key", handler.RetrieveAPIKey)
	b.POST("/list-api-keys", handler.ListAPIKeys)
	b.POST("/delete-api-key", handler.DeleteAPIKey)
	b.POST("/check-encryption-available", handler.CheckEncryptionAvailable)

	b.POST("/suggest", handler.Suggest)

	return &Server{
		echo:    e,
		handler: handler,
	}
}

// Start starts the HTTP server on the given address
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP implements the http.Handler interface, allowing Server to be used with httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
				slog.Warn("bridge request", attrs...)
				return nil
			}
			slog.Debug("bridge request", attrs...)
			return nil
		},
	})
}
