package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"ghostwriterd/internal/core"
)

type storeKeyRequest struct {
	Provider string `json:"provider"`
	KeyName  string `json:"keyName"`
	KeyValue string `json:"keyValue"`
}

// StoreAPIKey handles POST /bridge/store-api-key
func (h *Handler) StoreAPIKey(c echo.Context) error {
	var req storeKeyRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body: "+err.Error()))
	}

	id, err := h.keys.StoreKey(c.Request().Context(), req.Provider, req.KeyName, req.KeyValue)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"id":      id,
	})
}

type keyIDRequest struct {
	KeyID string `json:"keyId"`
}

// RetrieveAPIKey handles POST /bridge/retrieve-api-key. The response
// flattens the key fields the way the original bridge did.
func (h *Handler) RetrieveAPIKey(c echo.Context) error {
	var req keyIDRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body: "+err.Error()))
	}

	key, err := h.keys.RetrieveKey(c.Request().Context(), req.KeyID)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"provider":  key.Provider,
		"keyName":   key.KeyName,
		"keyValue":  key.Value,
		"createdAt": key.CreatedAt,
	})
}

// ListAPIKeys handles POST /bridge/list-api-keys. Metadata only; sealed
// values never leave the store here.
func (h *Handler) ListAPIKeys(c echo.Context) error {
	keys, err := h.keys.ListKeys(c.Request().Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"keys":    keys,
	})
}

// DeleteAPIKey handles POST /bridge/delete-api-key
func (h *Handler) DeleteAPIKey(c echo.Context) error {
	var req keyIDRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("invalid request body: "+err.Error()))
	}

	if err := h.keys.DeleteKey(c.Request().Context(), req.KeyID); err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// CheckEncryptionAvailable handles POST /bridge/check-encryption-available
func (h *Handler) CheckEncryptionAvailable(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"available": h.keys.Available(),
	})
}
