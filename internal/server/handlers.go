// Package server exposes the host's bridge contract to the UI process as a
// loopback HTTP/JSON server. Every operation answers with a {success, ...}
// envelope; failures carry {success: false, error} so the UI never has to
// parse a transport error page.
package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"ghostwriterd/internal/assistant"
	"ghostwriterd/internal/core"
	"ghostwriterd/internal/pricing"
	"ghostwriterd/internal/project"
	"ghostwriterd/internal/usage"
	"ghostwriterd/internal/vault"
)

// Handler holds the bridge handlers and their collaborators.
type Handler struct {
	usage     *usage.Store
	library   *project.Library
	keys      *vault.KeyStore
	assistant *assistant.Generator
	prices    *pricing.Store
}

// NewHandler creates a handler over the host's subsystems.
func NewHandler(store *usage.Store, library *project.Library, keys *vault.KeyStore, gen *assistant.Generator, prices *pricing.Store) *Handler {
	return &Handler{
		usage:     store,
		library:   library,
		keys:      keys,
		assistant: gen,
		prices:    prices,
	}
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// trackAPICallRequest mirrors the UI's trackApiCall payload. Cost may be
// supplied by the UI or derived here from the pricing table when a model
// is named.
type trackAPICallRequest struct {
	Provider       string  `json:"provider"`
	Endpoint       string  `json:"endpoint"`
	Model          string  `json:"model"`
	InputTokens    int     `json:"inputTokens"`
	OutputTokens   int     `json:"outputTokens"`
	CostUSD        float64 `json:"costUsd"`
	ResponseTimeMS int     `json:"responseTimeMs"`
	Success        *bool   `json:"success"`
	ErrorMessage   string  `json:"errorMessage"`
}

// TrackAPICall handles POST /bridge/track-api-call
func (h *Handler) TrackAPICall(c echo.Context) error {
	var req trackAPICallRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body: "+err.Error()))
	}

	cost := req.CostUSD
	if cost == 0 && req.Model != "" {
		cost = h.prices.Cost(req.Provider, req.Model, req.InputTokens, req.OutputTokens)
	}

	// Absent success flag means the call went through, matching the
	// original bridge's optional field.
	succeeded := req.Success == nil || *req.Success

	id, err := h.usage.RecordCall(c.Request().Context(), usage.CallParams{
		Provider:       req.Provider,
		Endpoint:       req.Endpoint,
		InputTokens:    req.InputTokens,
		OutputTokens:   req.OutputTokens,
		CostUSD:        cost,
		ResponseTimeMS: req.ResponseTimeMS,
		Success:        succeeded,
		ErrorMessage:   req.ErrorMessage,
	})
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"callId":  id,
	})
}

type usageStatsRequest struct {
	Timeframe string `json:"timeframe"`
	Provider  string `json:"provider"`
}

// GetUsageStats handles POST /bridge/get-usage-stats
func (h *Handler) GetUsageStats(c echo.Context) error {
	var req usageStatsRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body: "+err.Error()))
	}
	if req.Timeframe == "" {
		req.Timeframe = string(usage.TimeframeToday)
	}

	stats, err := h.usage.GetUsageStats(c.Request().Context(), usage.Timeframe(req.Timeframe), req.Provider)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"stats":   stats,
	})
}

type providerRequest struct {
	Provider string `json:"provider"`
}

// CheckRateLimit handles POST /bridge/check-rate-limit
func (h *Handler) CheckRateLimit(c echo.Context) error {
	var req providerRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body: "+err.Error()))
	}

	status, err := h.usage.CheckRateLimit(c.Request().Context(), req.Provider)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, gateResponse(status))
}

// IncrementRateLimit handles POST /bridge/increment-rate-limit
func (h *Handler) IncrementRateLimit(c echo.Context) error {
	var req providerRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body: "+err.Error()))
	}

	if err := h.usage.IncrementRateLimit(c.Request().Context(), req.Provider); err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// ReserveRateSlot handles POST /bridge/reserve-rate-slot, the atomic
// check-and-increment variant of the two-call protocol.
func (h *Handler) ReserveRateSlot(c echo.Context) error {
	var req providerRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body: "+err.Error()))
	}

	status, err := h.usage.ReserveSlot(c.Request().Context(), req.Provider)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, gateResponse(status))
}

func gateResponse(status usage.RateLimitStatus) map[string]any {
	return map[string]any{
		"success":      true,
		"allowed":      status.Allowed,
		"currentCount": status.CurrentCount,
		"limit":        status.Limit,
		"resetTime":    status.ResetTime,
	}
}

// handleError converts host errors into the uniform failure envelope. The
// HTTP status follows the error kind but the body shape never changes.
func handleError(c echo.Context, err error) error {
	var hostErr *core.HostError
	if errors.As(err, &hostErr) {
		return c.JSON(hostErr.HTTPStatusCode(), map[string]any{
			"success": false,
			"error":   hostErr.Message,
		})
	}

	return c.JSON(http.StatusInternalServerError, map[string]any{
		"success": false,
		"error":   "an unexpected error occurred",
	})
}
