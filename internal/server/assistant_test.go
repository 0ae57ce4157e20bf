package server

import (
	"net/http"
	"testing"
)

func TestSuggestReturnsCannedSet(t *testing.T) {
	srv := newTestServer(t)

	code, resp := postJSON(t, srv, "/bridge/suggest", map[string]any{
		"text": "The harbor lights flickered as she stepped off the boat.",
	})
	if code != http.StatusOK || resp["success"] != true {
		t.Fatalf("status = %d, body = %v", code, resp)
	}
	suggestions := resp["suggestions"].([]any)
	if len(suggestions) != 3 {
		t.Fatalf("suggestions = %d, want 3", len(suggestions))
	}
	first := suggestions[0].(map[string]any)
	if first["type"] != "continuation" {
		t.Errorf("first suggestion type = %v, want continuation", first["type"])
	}
	if resp["estimatedTokens"].(float64) <= 0 {
		t.Errorf("estimatedTokens = %v, want positive", resp["estimatedTokens"])
	}
}

func TestSuggestRecordsUsage(t *testing.T) {
	srv := newTestServer(t)

	_, resp := postJSON(t, srv, "/bridge/suggest", map[string]any{
		"text": "A sentence worth suggesting about.",
	})
	if resp["success"] != true {
		t.Fatalf("suggest failed: %v", resp)
	}

	_, resp = postJSON(t, srv, "/bridge/get-usage-stats", map[string]any{"timeframe": "today"})
	stats := resp["stats"].([]any)
	if len(stats) != 1 {
		t.Fatalf("stats = %v, want the suggest call recorded", resp["stats"])
	}
	row := stats[0].(map[string]any)
	if row["provider"] != "openai" {
		t.Errorf("provider = %v, want openai", row["provider"])
	}
	if row["total_calls"].(float64) != 1 {
		t.Errorf("total_calls = %v, want 1", row["total_calls"])
	}
}

func TestSuggestBlankTextSkipsGateAndLedger(t *testing.T) {
	srv := newTestServer(t)

	code, resp := postJSON(t, srv, "/bridge/suggest", map[string]any{"text": "   "})
	if code != http.StatusOK || resp["success"] != true {
		t.Fatalf("status = %d, body = %v", code, resp)
	}
	if len(resp["suggestions"].([]any)) != 0 {
		t.Errorf("suggestions = %v, want none for blank text", resp["suggestions"])
	}

	_, resp = postJSON(t, srv, "/bridge/get-usage-stats", map[string]any{"timeframe": "today"})
	if len(resp["stats"].([]any)) != 0 {
		t.Errorf("stats = %v, want empty ledger after blank suggest", resp["stats"])
	}

	_, resp = postJSON(t, srv, "/bridge/check-rate-limit", map[string]any{"provider": "openai"})
	if resp["currentCount"].(float64) != 0 {
		t.Errorf("currentCount = %v, want 0 (blank text spends no slot)", resp["currentCount"])
	}
}

func TestSuggestRateLimited(t *testing.T) {
	srv := newTestServer(t)

	code, resp := postJSON(t, srv, "/bridge/suggest", map[string]any{
		"text":     "First request takes the only slot.",
		"provider": "limited",
	})
	if code != http.StatusOK || resp["success"] != true {
		t.Fatalf("first suggest: status = %d, body = %v", code, resp)
	}

	code, resp = postJSON(t, srv, "/bridge/suggest", map[string]any{
		"text":     "Second request should be turned away.",
		"provider": "limited",
	})
	if code != http.StatusTooManyRequests {
		t.Fatalf("second suggest status = %d, want 429", code)
	}
	if resp["success"] != false {
		t.Errorf("success = %v, want false", resp["success"])
	}
	if msg, _ := resp["error"].(string); msg == "" {
		t.Error("rate-limit denial missing error message")
	}
}
