package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestLimiter(max int, window time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewRateLimiter(max, window, false)
	l.now = clock.Now
	return l, clock
}

func TestRateLimiter_Allow(t *testing.T) {
	l, clock := newTestLimiter(3, 15*time.Minute)

	for i := 0; i < 3; i++ {
		ok, remaining, _ := l.Allow("1.2.3.4")
		require.True(t, ok, "request %d should pass", i+1)
		assert.Equal(t, 2-i, remaining)
	}

	ok, remaining, reset := l.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.Equal(t, 0, remaining)
	assert.Equal(t, clock.Now().Add(15*time.Minute), reset)

	t.Run("other clients have their own budget", func(t *testing.T) {
		ok, _, _ := l.Allow("5.6.7.8")
		assert.True(t, ok)
	})

	t.Run("window resets", func(t *testing.T) {
		clock.Advance(15 * time.Minute)
		ok, remaining, _ := l.Allow("1.2.3.4")
		assert.True(t, ok)
		assert.Equal(t, 2, remaining)
	})
}

func TestRateLimiter_Limit(t *testing.T) {
	l, _ := newTestLimiter(2, time.Minute)

	var reached int
	h := l.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached++
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, do().Code)
	assert.Equal(t, http.StatusNoContent, do().Code)

	rec := do()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "2", rec.Header().Get("RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("RateLimit-Remaining"))
	assert.Equal(t, 2, reached, "rejected request must not reach the handler")
}

func TestRateLimiter_RunSweepsAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	l, clock := newTestLimiter(1, time.Minute)
	l.Allow("a")
	l.Allow("b")
	require.Equal(t, 2, l.tracked())

	clock.Advance(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx, time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return l.tracked() == 0 }, time.Second, time.Millisecond)

	cancel()
	<-done
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("X-Forwarded-For", "1.1.1.1, 203.0.113.9")

	assert.Equal(t, "192.0.2.1", ClientIP(req, false))
	assert.Equal(t, "203.0.113.9", ClientIP(req, true), "proxy-appended hop wins over client-supplied ones")

	req.Header.Add("X-Forwarded-For", "198.51.100.4")
	assert.Equal(t, "198.51.100.4", ClientIP(req, true))

	req.Header.Set("X-Forwarded-For", " , ")
	assert.Equal(t, "192.0.2.1", ClientIP(req, true))

	req.RemoteAddr = "no-port"
	assert.Equal(t, "no-port", ClientIP(req, false))
}

func TestRateLimiter_SpoofedForwardedForSharesBudget(t *testing.T) {
	l := NewRateLimiter(1, time.Hour, true)
	h := l.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	allowed := 0
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.2:443"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("1.1.1.%d, 203.0.113.7", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusNoContent {
			allowed++
		}
	}
	assert.Equal(t, 1, allowed)
}
