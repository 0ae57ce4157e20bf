package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every failure, whatever the cause, must come back as
// {success:false, error:"..."} so the UI never parses a transport error page.
func TestFailureEnvelopeShape(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name           string
		path           string
		body           string
		expectedStatus int
	}{
		{
			name:           "malformed json",
			path:           "/bridge/track-api-call",
			body:           `{"provider": "openai",`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "validation failure",
			path:           "/bridge/track-api-call",
			body:           `{"provider":"openai","inputTokens":-5}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown timeframe",
			path:           "/bridge/get-usage-stats",
			body:           `{"timeframe":"yesterday"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing vault key",
			path:           "/bridge/retrieve-api-key",
			body:           `{"keyId":"no-such-id"}`,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "novel name too long",
			path:           "/bridge/create-novel",
			body:           `{"name":"` + strings.Repeat("x", 101) + `"}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), "body: %s", rec.Body.String())
			assert.Equal(t, false, resp["success"])
			msg, ok := resp["error"].(string)
			require.True(t, ok, "error field missing: %s", rec.Body.String())
			assert.NotEmpty(t, msg)
		})
	}
}
