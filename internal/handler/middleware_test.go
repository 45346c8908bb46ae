package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler).ServeHTTP(rec, httptest.NewRequest("GET", "/contacts", nil))

	for _, kv := range securityHeaders {
		if got := rec.Header().Get(kv[0]); got != kv[1] {
			t.Errorf("%s: want %q, got %q", kv[0], kv[1], got)
		}
	}
	csp := rec.Header().Get("Content-Security-Policy")
	for _, d := range []string{"default-src 'self'", "script-src 'self' https://unpkg.com", "frame-ancestors 'none'"} {
		if !strings.Contains(csp, d) {
			t.Errorf("CSP missing directive %q: %s", d, csp)
		}
	}
}

func TestSecurityHeaders_PassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("expected status 418, got %d", rec.Code)
	}
}

// post sends one POST through h from remoteAddr with the given
// X-Forwarded-For value (none when empty) and returns the status.
func post(h http.Handler, remoteAddr, xff string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/contacts/create", nil)
	req.RemoteAddr = remoteAddr
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func newLimited(t *testing.T, cfg RateLimitConfig) http.Handler {
	t.Helper()
	rl := NewRateLimiter(cfg)
	t.Cleanup(rl.Close)
	return rl.Middleware(okHandler)
}

func TestRateLimiter_LimitPerClient(t *testing.T) {
	h := newLimited(t, RateLimitConfig{PerMinute: 3})

	for i := 0; i < 3; i++ {
		if rec := post(h, "192.168.1.1:12345", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
	rec := post(h, "192.168.1.1:23456", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on 4th request, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on 429 response")
	}
	if rec := post(h, "192.168.1.2:12345", ""); rec.Code != http.StatusOK {
		t.Errorf("other client should not be limited, got %d", rec.Code)
	}
}

func TestRateLimiter_ClientAddress(t *testing.T) {
	tests := []struct {
		name       string
		proxies    int
		remoteAddr [2]string
		xff        [2]string
		wantSecond int
	}{
		{
			name:       "no proxy ignores rotating header",
			remoteAddr: [2]string{"198.51.100.7:1000", "198.51.100.7:1001"},
			xff:        [2]string{"1.1.1.1", "2.2.2.2"},
			wantSecond: http.StatusTooManyRequests,
		},
		{
			name:       "no proxy separates peers",
			remoteAddr: [2]string{"198.51.100.7:1000", "198.51.100.8:1000"},
			xff:        [2]string{"1.1.1.1", "1.1.1.1"},
			wantSecond: http.StatusOK,
		},
		{
			name:       "one proxy reads the rightmost entry",
			proxies:    1,
			remoteAddr: [2]string{"10.0.0.99:1234", "10.0.0.99:1234"},
			xff:        [2]string{"203.0.113.50", "9.9.9.9, 203.0.113.50"},
			wantSecond: http.StatusTooManyRequests,
		},
		{
			name:       "one proxy separates clients behind it",
			proxies:    1,
			remoteAddr: [2]string{"10.0.0.99:1234", "10.0.0.99:1234"},
			xff:        [2]string{"203.0.113.50", "203.0.113.51"},
			wantSecond: http.StatusOK,
		},
		{
			name:       "two proxies skip the outer hop",
			proxies:    2,
			remoteAddr: [2]string{"10.0.0.99:1234", "10.0.0.99:1234"},
			xff:        [2]string{"203.0.113.50, 10.0.0.5", "6.6.6.6, 203.0.113.50, 10.0.0.6"},
			wantSecond: http.StatusTooManyRequests,
		},
		{
			name:       "short header falls back to peer",
			proxies:    2,
			remoteAddr: [2]string{"10.0.0.99:1234", "10.0.0.99:1234"},
			xff:        [2]string{"1.1.1.1", "2.2.2.2"},
			wantSecond: http.StatusTooManyRequests,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newLimited(t, RateLimitConfig{PerMinute: 1, TrustedProxies: tt.proxies})

			if rec := post(h, tt.remoteAddr[0], tt.xff[0]); rec.Code != http.StatusOK {
				t.Fatalf("first request: expected 200, got %d", rec.Code)
			}
			if rec := post(h, tt.remoteAddr[1], tt.xff[1]); rec.Code != tt.wantSecond {
				t.Errorf("second request: expected %d, got %d", tt.wantSecond, rec.Code)
			}
		})
	}
}

func TestRateLimiter_RotatingHeaderWithoutProxy(t *testing.T) {
	h := newLimited(t, RateLimitConfig{PerMinute: 1})

	passed := 0
	for i := 0; i < 10; i++ {
		xff := "203.0.113." + string(rune('0'+i))
		if post(h, "198.51.100.7:4000", xff).Code == http.StatusOK {
			passed++
		}
	}
	if passed != 1 {
		t.Errorf("expected 1 request to pass, got %d", passed)
	}
}

func TestWindow_Admit(t *testing.T) {
	now := time.Now()
	var w window

	if ok, _ := w.admit(now, 2); !ok {
		t.Fatal("first request should be admitted")
	}
	if ok, _ := w.admit(now.Add(10*time.Second), 2); !ok {
		t.Fatal("second request should be admitted")
	}
	ok, wait := w.admit(now.Add(20*time.Second), 2)
	if ok {
		t.Fatal("third request should be refused")
	}
	if wait != 40*time.Second {
		t.Errorf("expected 40s until the oldest entry expires, got %v", wait)
	}
	if ok, _ := w.admit(now.Add(61*time.Second), 2); !ok {
		t.Error("request after the oldest entry expired should be admitted")
	}
}

func TestRateLimiter_SweepForgetsIdleClients(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{PerMinute: 5})
	defer rl.Close()
	post(rl.Middleware(okHandler), "192.0.2.1:1", "")

	rl.sweep(time.Now().Add(2 * time.Minute))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.windows) != 0 {
		t.Errorf("expected idle client to be swept, %d remain", len(rl.windows))
	}
}

func TestRateLimiter_CloseIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{PerMinute: 1})
	rl.Close()
	rl.Close()
}
