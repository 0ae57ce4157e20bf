package core

import (
	"errors"
	"net/http"
	"testing"
)

func TestHostErrorStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *HostError
		want int
	}{
		{"validation", NewValidationError("provider is required"), http.StatusBadRequest},
		{"not found", NewNotFoundError("key not found"), http.StatusNotFound},
		{"store unavailable", NewStoreUnavailableError("store closed", nil), http.StatusServiceUnavailable},
		{"internal", NewInternalError("boom", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.HTTPStatusCode(); got != tt.want {
				t.Errorf("HTTPStatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHostErrorUnwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := NewStoreUnavailableError("write failed", inner)

	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to find the wrapped error")
	}

	var hostErr *HostError
	if !errors.As(error(err), &hostErr) {
		t.Fatal("expected errors.As to match *HostError")
	}
	if hostErr.Kind != ErrorKindStoreUnavailable {
		t.Errorf("kind = %q, want %q", hostErr.Kind, ErrorKindStoreUnavailable)
	}
}
