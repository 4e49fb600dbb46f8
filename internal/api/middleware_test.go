package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware_AllowsWithinLimit(t *testing.T) {
	handler := RateLimitMiddleware(5)(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}
}

func TestRateLimitMiddleware_BlocksOverLimit(t *testing.T) {
	handler := RateLimitMiddleware(3)(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	// Same host on a new port is still the same client.
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:5001"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got == "" || got == "0" {
		t.Errorf("expected a positive Retry-After, got %q", got)
	}
}

func TestRateLimiterWindowAndSweep(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	if ok, _ := rl.allow("a", start); !ok {
		t.Fatal("first request refused")
	}
	if ok, _ := rl.allow("a", start.Add(20*time.Second)); !ok {
		t.Fatal("second request refused")
	}
	ok, wait := rl.allow("a", start.Add(30*time.Second))
	if ok {
		t.Fatal("third request inside the window allowed")
	}
	if wait != 30*time.Second {
		t.Errorf("expected 30s until the oldest request expires, got %v", wait)
	}
	if ok, _ := rl.allow("a", start.Add(61*time.Second)); !ok {
		t.Error("request after the oldest expired was refused")
	}

	rl.allow("b", start.Add(62*time.Second))
	if n := rl.clients(); n != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", n)
	}
	// Both clients go idle for a full window and are swept.
	rl.allow("c", start.Add(10*time.Minute))
	if n := rl.clients(); n != 1 {
		t.Errorf("expected idle clients swept, %d tracked", n)
	}
}

func TestRateLimitMiddleware_KeysByClient(t *testing.T) {
	handler := RateLimitMiddleware(2)(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("second client should not be rate-limited, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("first client should be rate-limited, got %d", w.Code)
	}
}

func TestAdminAuthMiddleware(t *testing.T) {
	handler := AdminAuthMiddleware("token")(okHandler())

	tests := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer wrong", http.StatusUnauthorized},
		{"Bearer token", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("DELETE", "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != tt.want {
			t.Errorf("Authorization %q: expected %d, got %d", tt.header, tt.want, w.Code)
		}
	}

	open := AdminAuthMiddleware("")(okHandler())
	w := httptest.NewRecorder()
	open.ServeHTTP(w, httptest.NewRequest("DELETE", "/", nil))
	if w.Code != http.StatusOK {
		t.Errorf("empty token should allow all, got %d", w.Code)
	}
}

func TestRequestLogger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	called := false
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !called {
		t.Error("inner handler was not called")
	}
	if w.Code != http.StatusTeapot {
		t.Errorf("expected 418, got %d", w.Code)
	}
}
