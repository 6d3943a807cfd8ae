// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// KeyFunc names the budget a request draws from.
type KeyFunc func(r *http.Request) string

// IPKey charges requests to the client address.
func IPKey(r *http.Request) string {
	return "ip:" + clientIP(r)
}

// IdentityKey charges requests to the signed-in user, so one account
// shares a budget across devices and a shared address does not starve
// its users. Anonymous requests fall back to IPKey. It must run after
// LoadIdentity.
func IdentityKey(r *http.Request) string {
	if sess := SessionFromCtx(r.Context()); sess != nil {
		return "user:" + sess.UserID.String()
	}
	return IPKey(r)
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithKey sets how requests are grouped. The default is IPKey.
func WithKey(key KeyFunc) RateLimiterOption {
	return func(rl *RateLimiter) { rl.key = key }
}

// RateLimiter allows limit requests per key in any sliding window.
type RateLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time // oldest first
	limit  int
	window time.Duration
	key    KeyFunc
	now    func() time.Time
	stopCh chan struct{}
}

// NewRateLimiter creates a limiter and starts a goroutine that forgets idle
// keys once per window. Call Stop to end it.
func NewRateLimiter(limit int, window time.Duration, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
		key:    IPKey,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(rl)
	}

	go func() {
		ticker := time.NewTicker(max(window, time.Minute))
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.sweep()
			case <-rl.stopCh:
				return
			}
		}
	}()
	return rl
}

// Stop ends the sweeping goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// take records a hit for key if the budget allows it. It returns the
// budget left after the hit, or when refused, how long until the oldest
// hit leaves the window.
func (rl *RateLimiter) take(key string) (remaining int, retryIn time.Duration, ok bool) {
	now := rl.now()
	cutoff := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	hits := rl.hits[key]
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	hits = hits[i:]

	if len(hits) >= rl.limit {
		rl.hits[key] = hits
		if len(hits) == 0 {
			return 0, rl.window, false
		}
		return 0, hits[0].Sub(cutoff), false
	}

	hits = append(hits, now)
	rl.hits[key] = hits
	return rl.limit - len(hits), 0, true
}

// sweep forgets keys with no hit inside the window.
func (rl *RateLimiter) sweep() {
	cutoff := rl.now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, hits := range rl.hits {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(rl.hits, key)
		}
	}
}

// Middleware rejects requests over budget with a JSON 429 and a
// Retry-After in whole seconds. Every response reports the budget in
// X-RateLimit-Limit and X-RateLimit-Remaining.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	limit := strconv.Itoa(rl.limit)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.key(r)
		remaining, retryIn, ok := rl.take(key)

		w.Header().Set("X-RateLimit-Limit", limit)
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !ok {
			secs := int((retryIn + time.Second - 1) / time.Second)
			slog.Warn("rate limit exceeded", "key", key, "path", r.URL.Path)
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"Too many requests, please slow down"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the first X-Forwarded-For hop, then X-Real-IP, then
// the connection's remote host.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
