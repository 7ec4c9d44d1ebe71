package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RateLimiter caps requests per client IP over a fixed window. The public
// site API sits behind it so a misbehaving crawler cannot spin up sessions
// or flood the contact form.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    int
	window  time.Duration
	logger  *zap.Logger
}

type bucket struct {
	left    int
	resetAt time.Time
}

// NewRateLimiter creates a limiter allowing rate requests per window per IP.
func NewRateLimiter(rate int, window time.Duration, logger *zap.Logger) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		window:  window,
		logger:  logger,
	}
	go rl.sweep()
	return rl
}

// sweep drops buckets whose window has long passed so one-off visitors do
// not accumulate forever.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.window * 2)
	defer ticker.Stop()

	for now := range ticker.C {
		rl.mu.Lock()
		for ip, b := range rl.buckets {
			if now.After(b.resetAt.Add(rl.window)) {
				delete(rl.buckets, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// take consumes one token for ip, reporting whether the request may proceed
// and how many tokens remain.
func (rl *RateLimiter) take(ip string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[ip]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{left: rl.rate, resetAt: now.Add(rl.window)}
		rl.buckets[ip] = b
	}
	if b.left == 0 {
		return false, 0
	}
	b.left--
	return true, b.left
}

// allow reports whether a request from ip may proceed.
func (rl *RateLimiter) allow(ip string) bool {
	ok, _ := rl.take(ip)
	return ok
}

// remaining returns how many requests ip has left in the current window
// without consuming one.
func (rl *RateLimiter) remaining(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[ip]
	if !ok || !time.Now().Before(b.resetAt) {
		return rl.rate
	}
	return b.left
}

// RateLimit returns middleware enforcing the limiter per client IP.
func RateLimit(rl *RateLimiter) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(rl.window.Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)

			ok, left := rl.take(ip)
			if !ok {
				rl.logger.Warn("rate limit exceeded",
					zap.String("ip", ip),
					zap.String("path", r.URL.Path),
				)
				w.Header().Set("Retry-After", retryAfter)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprint(w, `{"error":"rate limit exceeded"}`)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(left))
			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP resolves the client address, trusting proxy headers first:
// the leftmost X-Forwarded-For entry, then X-Real-IP, then RemoteAddr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
