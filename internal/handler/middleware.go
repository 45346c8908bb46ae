package handler

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// contentSecurityPolicy allows the htmx script from its CDN and the inline
// styles htmx injects for request indicators.
const contentSecurityPolicy = "default-src 'self'; script-src 'self' https://unpkg.com; " +
	"style-src 'self' 'unsafe-inline'; frame-ancestors 'none'"

// securityHeaders are set on every response. htmx swaps same-origin HTML
// fragments only, so framing and cross-origin referrers are refused.
var securityHeaders = [][2]string{
	{"Content-Security-Policy", contentSecurityPolicy},
	{"Permissions-Policy", "camera=(), microphone=(), geolocation=()"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Strict-Transport-Security", "max-age=63072000; includeSubDomains"},
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"X-XSS-Protection", "0"},
}

// SecurityHeaders sets securityHeaders before calling next.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, kv := range securityHeaders {
			w.Header().Set(kv[0], kv[1])
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimitConfig tunes the per-client limiter on mutating contact routes.
type RateLimitConfig struct {
	// PerMinute is the number of requests one client may make in any
	// sliding minute.
	PerMinute int
	// TrustedProxies is how many reverse proxies sit in front of the server
	// and append to X-Forwarded-For. With 0 the header is ignored and the
	// client is the TCP peer.
	TrustedProxies int
}

// RateLimiter counts requests per client over a sliding one-minute window.
type RateLimiter struct {
	cfg RateLimitConfig

	mu      sync.Mutex
	windows map[string]*window

	done      chan struct{}
	closeOnce sync.Once
}

// window holds the request times of one client inside the last minute.
type window []time.Time

// admit drops expired entries and records now when the client is under
// limit. Otherwise it reports how long until the oldest entry expires.
func (w *window) admit(now time.Time, limit int) (bool, time.Duration) {
	w.expire(now)
	if len(*w) >= limit {
		return false, (*w)[0].Add(time.Minute).Sub(now)
	}
	*w = append(*w, now)
	return true, 0
}

func (w *window) expire(now time.Time) {
	cutoff := now.Add(-time.Minute)
	kept := (*w)[:0]
	for _, ts := range *w {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	*w = kept
}

// NewRateLimiter starts a limiter. Close stops its sweeper.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.TrustedProxies < 0 {
		cfg.TrustedProxies = 0
	}
	rl := &RateLimiter{
		cfg:     cfg,
		windows: make(map[string]*window),
		done:    make(chan struct{}),
	}
	go rl.sweepLoop(5 * time.Minute)
	return rl
}

// Close stops the background sweeper. It is safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case now := <-ticker.C:
			rl.sweep(now)
		}
	}
}

// sweep forgets clients with no request inside the window.
func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, w := range rl.windows {
		w.expire(now)
		if len(*w) == 0 {
			delete(rl.windows, key)
		}
	}
}

// Middleware rejects a client's requests with 429 once it is over limit.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.clientIP(r)

		rl.mu.Lock()
		win, ok := rl.windows[key]
		if !ok {
			win = &window{}
			rl.windows[key] = win
		}
		allowed, wait := win.admit(time.Now(), rl.cfg.PerMinute)
		rl.mu.Unlock()

		if !allowed {
			w.Header().Set("Retry-After", retryAfterSeconds(wait))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func retryAfterSeconds(d time.Duration) string {
	secs := int(d.Seconds()) + 1
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// clientIP returns the address the limiter keys on. Each trusted proxy
// appends the address it received the request from, so the client is the
// TrustedProxies-th entry from the right. Entries left of it are whatever
// the client sent and are never used. A header shorter than the proxy chain
// did not pass through all proxies, so the TCP peer is used instead.
func (rl *RateLimiter) clientIP(r *http.Request) string {
	if n := rl.cfg.TrustedProxies; n > 0 {
		if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
			hops := strings.Split(strings.Join(xff, ","), ",")
			if idx := len(hops) - n; idx >= 0 {
				if ip := strings.TrimSpace(hops[idx]); ip != "" {
					return ip
				}
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
