package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"AUTHGATE/internal/metrics"
)

type windowState struct {
	count int
	start time.Time
}

// RateLimiter allows at most max requests per client address in each
// fixed window. State lives in memory and is per process.
type RateLimiter struct {
	max        int
	window     time.Duration
	trustProxy bool
	now        func() time.Time

	mu      sync.Mutex
	clients map[string]*windowState
}

// NewRateLimiter creates a RateLimiter.
func NewRateLimiter(max int, window time.Duration, trustProxy bool) *RateLimiter {
	return &RateLimiter{
		max:        max,
		window:     window,
		trustProxy: trustProxy,
		now:        time.Now,
		clients:    make(map[string]*windowState),
	}
}

// Allow counts one request for key. It reports whether the request fits
// in the current window, how many remain, and when the window resets.
func (l *RateLimiter) Allow(key string) (bool, int, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	state, ok := l.clients[key]
	if !ok || now.Sub(state.start) >= l.window {
		state = &windowState{start: now}
		l.clients[key] = state
	}

	reset := state.start.Add(l.window)
	if state.count >= l.max {
		return false, 0, reset
	}
	state.count++
	return true, l.max - state.count, reset
}

// Limit wraps next so over-budget requests get 429 and never reach it.
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining, reset := l.Allow(ClientIP(r, l.trustProxy))

		resetSeconds := int(reset.Sub(l.now()).Round(time.Second) / time.Second)
		if resetSeconds < 0 {
			resetSeconds = 0
		}
		w.Header().Set("RateLimit-Limit", strconv.Itoa(l.max))
		w.Header().Set("RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("RateLimit-Reset", strconv.Itoa(resetSeconds))

		if !allowed {
			metrics.RecordRateLimited(r.URL.Path)
			w.Header().Set("Retry-After", strconv.Itoa(resetSeconds))
			http.Error(w, "Too many requests, please try again later.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Run sweeps expired windows every interval until ctx is done.
func (l *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *RateLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, state := range l.clients {
		if now.Sub(state.start) >= l.window {
			delete(l.clients, key)
		}
	}
}

func (l *RateLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// ClientIP returns the request's client address without port. With
// trustProxy the last X-Forwarded-For entry wins: it is the one appended by
// the proxy in front of us, while earlier entries come from the client.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Values("X-Forwarded-For"); len(fwd) > 0 {
			hops := strings.Split(fwd[len(fwd)-1], ",")
			if ip := strings.TrimSpace(hops[len(hops)-1]); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
