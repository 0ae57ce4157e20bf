package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"ghostwriterd/internal/assistant"
	"ghostwriterd/internal/core"
	"ghostwriterd/internal/usage"
)

const (
	defaultSuggestProvider = "openai"
	defaultSuggestModel    = "gpt-4"
	suggestEndpoint        = "suggest"
)

type suggestRequest struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Suggest handles POST /bridge/suggest. The simulated call still walks the
// full accounting path: reserve a rate slot, generate, record the call, so
// the usage ledger reflects assistant activity exactly as it would a real
// provider call.
func (h *Handler) Suggest(c echo.Context) error {
	var req suggestRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body: "+err.Error()))
	}
	if req.Provider == "" {
		req.Provider = defaultSuggestProvider
	}
	if req.Model == "" {
		req.Model = defaultSuggestModel
	}

	ctx := c.Request().Context()

	// Blank text never reaches the gate; the original panel bails before
	// spending a slot on nothing.
	if strings.TrimSpace(req.Text) != "" {
		slot, err := h.usage.ReserveSlot(ctx, req.Provider)
		if err != nil {
			return handleError(c, err)
		}
		if !slot.Allowed {
			return c.JSON(http.StatusTooManyRequests, map[string]any{
				"success":   false,
				"error":     "rate limit exceeded for provider " + req.Provider,
				"resetTime": slot.ResetTime,
			})
		}
	}

	start := time.Now()
	result, err := h.assistant.Suggest(ctx, req.Text)
	if err != nil {
		return handleError(c, err)
	}

	if len(result.Suggestions) > 0 {
		outputTokens := suggestionTokens(result)
		if _, err := h.usage.RecordCall(ctx, usage.CallParams{
			Provider:       req.Provider,
			Endpoint:       suggestEndpoint,
			InputTokens:    result.EstimatedTokens,
			OutputTokens:   outputTokens,
			CostUSD:        h.prices.Cost(req.Provider, req.Model, result.EstimatedTokens, outputTokens),
			ResponseTimeMS: int(time.Since(start).Milliseconds()),
			Success:        true,
		}); err != nil {
			return handleError(c, err)
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":         true,
		"suggestions":     result.Suggestions,
		"estimatedTokens": result.EstimatedTokens,
	})
}

// suggestionTokens approximates the output side of the simulated call from
// the suggestion text lengths.
func suggestionTokens(result *assistant.Result) int {
	tokens := 0
	for _, s := range result.Suggestions {
		tokens += len(s.Text)/4 + len(s.Preview)/4
	}
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}
