package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeClock lets tests move a limiter's time forward without sleeping.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, perSecond float64, burst int) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(perSecond, burst)
	rl.now = clock.now
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestRateLimiterAllow(t *testing.T) {
	rl, _ := newTestLimiter(t, 1, 3)

	// The burst is available immediately.
	for i := range 3 {
		if !rl.allow("test-ip") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	if rl.allow("test-ip") {
		t.Error("4th request should be rate-limited")
	}

	// Different IP should still be allowed.
	if !rl.allow("other-ip") {
		t.Error("different IP should be allowed")
	}
}

func TestRateLimiterRefill(t *testing.T) {
	rl, clock := newTestLimiter(t, 2, 2)

	rl.allow("test-ip")
	rl.allow("test-ip")
	if rl.allow("test-ip") {
		t.Fatal("should be rate-limited")
	}

	// One token comes back every 500ms.
	clock.advance(500 * time.Millisecond)
	if !rl.allow("test-ip") {
		t.Error("should be allowed after a token refills")
	}
	if rl.allow("test-ip") {
		t.Error("only one token should have refilled")
	}
}

func TestRateLimiterRejectedRequestsDoNotConsume(t *testing.T) {
	rl, clock := newTestLimiter(t, 1, 1)

	rl.allow("ip")
	for range 5 {
		rl.allow("ip")
	}
	clock.advance(time.Second)
	if !rl.allow("ip") {
		t.Error("rejected requests must not push back the next token")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 0.5, 2)

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/posts", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	for i := range 2 {
		if rr := send(); rr.Code != http.StatusCreated {
			t.Fatalf("request %d: got status %d, want 201", i+1, rr.Code)
		}
	}

	rr := send()
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("got status %d, want 429", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "2" {
		t.Errorf("Retry-After: got %q, want 2", got)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["error"] == "" {
		t.Errorf("body %q: want a JSON error (%v)", rr.Body.String(), err)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		xff, xri, remote string
		want             string
	}{
		{xff: "10.0.0.1", remote: "192.168.1.1:1234", want: "10.0.0.1"},
		{xff: " 10.0.0.1 , 172.16.0.1", remote: "192.168.1.1:1234", want: "10.0.0.1"},
		{xff: "10.0.0.1", xri: "10.0.0.2", remote: "192.168.1.1:1234", want: "10.0.0.1"},
		{xri: "10.0.0.2", remote: "192.168.1.1:1234", want: "10.0.0.2"},
		{remote: "192.168.1.1:1234", want: "192.168.1.1"},
		{remote: "[2001:db8::7]:443", want: "2001:db8::7"},
		{remote: "192.168.1.1", want: "192.168.1.1"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/api/tags", nil)
		req.RemoteAddr = tt.remote
		if tt.xff != "" {
			req.Header.Set("X-Forwarded-For", tt.xff)
		}
		if tt.xri != "" {
			req.Header.Set("X-Real-IP", tt.xri)
		}
		if got := clientIP(req); got != tt.want {
			t.Errorf("clientIP(xff=%q, xri=%q, remote=%q) = %q, want %q", tt.xff, tt.xri, tt.remote, got, tt.want)
		}
	}
}

// TestRateLimiterCleanup verifies that cleanup drops clients idle for longer
// than a full refill and keeps recent ones.
func TestRateLimiterCleanup(t *testing.T) {
	rl, clock := newTestLimiter(t, 10, 5)

	rl.allow("ip-old")
	rl.allow("ip-fresh")

	clock.advance(2 * time.Minute)
	rl.allow("ip-fresh")

	rl.cleanup()

	rl.mu.Lock()
	_, oldExists := rl.clients["ip-old"]
	_, freshExists := rl.clients["ip-fresh"]
	count := len(rl.clients)
	rl.mu.Unlock()

	if oldExists {
		t.Error("ip-old should have been cleaned up")
	}
	if !freshExists {
		t.Error("ip-fresh should still exist")
	}
	if count != 1 {
		t.Errorf("expected 1 remaining client, got %d", count)
	}
}

func TestIdleFor(t *testing.T) {
	tests := []struct {
		perSecond float64
		burst     int
		want      time.Duration
	}{
		{perSecond: 10, burst: 5, want: time.Minute},
		{perSecond: 0.1, burst: 30, want: 5 * time.Minute},
	}
	for _, tt := range tests {
		if got := idleFor(tt.perSecond, tt.burst); got != tt.want {
			t.Errorf("idleFor(%v, %d) = %v, want %v", tt.perSecond, tt.burst, got, tt.want)
		}
	}
}
