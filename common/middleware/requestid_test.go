package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		existing string
	}{
		{name: "generates new request ID when not present"},
		{name: "propagates existing request ID", existing: "sim-conn-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured string
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured = RequestIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("GET", "http://example.com/socket/websocket", nil)
			if tt.existing != "" {
				req.Header.Set(HeaderRequestID, tt.existing)
			}
			w := httptest.NewRecorder()

			RequestID(handler).ServeHTTP(w, req)

			header := w.Header().Get(HeaderRequestID)
			if header == "" {
				t.Fatal("expected X-Request-ID header in response")
			}
			if header != captured {
				t.Errorf("response header %q doesn't match context %q", header, captured)
			}

			if tt.existing != "" {
				if captured != tt.existing {
					t.Errorf("expected request ID %q, got %q", tt.existing, captured)
				}
				return
			}
			id, err := uuid.Parse(captured)
			if err != nil {
				t.Fatalf("expected valid UUID, got %q: %v", captured, err)
			}
			if id.Version() != 7 {
				t.Errorf("expected a version 7 UUID, got version %d", id.Version())
			}
		})
	}
}

func TestRequestID_UniqueIDs(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := RequestID(handler)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		w := httptest.NewRecorder()
		mw.ServeHTTP(w, httptest.NewRequest("GET", "http://example.com/", nil))

		id := w.Header().Get(HeaderRequestID)
		if seen[id] {
			t.Errorf("duplicate request ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestRequestIDFromContext(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}

	ctx := ContextWithRequestID(context.Background(), "req-456")
	if got := RequestIDFromContext(ctx); got != "req-456" {
		t.Errorf("expected %q, got %q", "req-456", got)
	}
}
