package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"propertyhub/internal/platform/config"
)

func newLimiter(perMinute int) (*RateLimiter, *time.Time) {
	rl := NewRateLimiter(config.RateLimitConfig{AuthPerMinute: perMinute, APIReadPerMinute: perMinute, APIWritePerMinute: perMinute})
	clock := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }
	return rl, &clock
}

func TestRateLimiterRefills(t *testing.T) {
	rl, clock := newLimiter(3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("org_1:api_write", LimitAPIWrite))
	}
	assert.False(t, rl.Allow("org_1:api_write", LimitAPIWrite))

	// Another key has its own bucket.
	assert.True(t, rl.Allow("org_2:api_write", LimitAPIWrite))

	// Three per minute refills one token every 20 seconds.
	*clock = clock.Add(21 * time.Second)
	assert.True(t, rl.Allow("org_1:api_write", LimitAPIWrite))
	assert.False(t, rl.Allow("org_1:api_write", LimitAPIWrite))
}

func TestRateLimiterSweep(t *testing.T) {
	rl, clock := newLimiter(1)
	rl.Allow("a", LimitAuth)
	*clock = clock.Add(5 * time.Minute)
	rl.Allow("b", LimitAuth)

	*clock = clock.Add(6 * time.Minute)
	rl.Sweep()

	assert.NotContains(t, rl.buckets, "a")
	assert.Contains(t, rl.buckets, "b")
}

func TestRateLimitMiddleware(t *testing.T) {
	rl, _ := newLimiter(1)
	handler := rl.Limit(LimitAuth)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "203.0.113.7:51000"

	rr := httptest.NewRecorder()
	handler(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	handler(rr, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	other := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	other.RemoteAddr = "198.51.100.2:40000"
	rr = httptest.NewRecorder()
	handler(rr, other)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}
