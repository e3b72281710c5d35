package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apiContext "propertyhub/internal/api/context"
	"propertyhub/internal/pkg/errors"
	"propertyhub/internal/platform/config"
)

// Limit classes. Reads and writes are budgeted per organization, auth per client IP.
const (
	LimitAuth     = "auth"
	LimitAPIRead  = "api_read"
	LimitAPIWrite = "api_write"
)

const idleTTL = 10 * time.Minute

type bucket struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter keeps one token bucket per key. Buckets refill continuously at
// the per-minute rate and hold at most one minute's worth of requests.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limits  map[string]int
	now     func() time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	limits := map[string]int{
		LimitAuth:     cfg.AuthPerMinute,
		LimitAPIRead:  cfg.APIReadPerMinute,
		LimitAPIWrite: cfg.APIWritePerMinute,
	}
	for k, v := range limits {
		if v <= 0 {
			limits[k] = 100
		}
	}
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		limits:  limits,
		now:     time.Now,
	}
}

// Allow takes one token from key's bucket for the given class.
func (rl *RateLimiter) Allow(key, class string) bool {
	limit, ok := rl.limits[class]
	if !ok {
		limit = 100
	}
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(float64(limit)/60.0), limit)}
		rl.buckets[key] = b
	}
	b.lastAccess = now
	return b.limiter.AllowN(now, 1)
}

// Sweep forgets buckets idle for longer than idleTTL.
func (rl *RateLimiter) Sweep() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, b := range rl.buckets {
		if now.Sub(b.lastAccess) > idleTTL {
			delete(rl.buckets, key)
		}
	}
}

// Run sweeps idle buckets until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(idleTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep()
		}
	}
}

func (rl *RateLimiter) Limit(class string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			var key string
			if tenant, ok := apiContext.TenantFrom(r.Context()); ok {
				key = fmt.Sprintf("%s:%s", tenant.OrgID, class)
			} else {
				key = fmt.Sprintf("%s:%s", clientIP(r), class)
			}

			if !rl.Allow(key, class) {
				w.Header().Set("Retry-After", strconv.Itoa(60))
				errors.WriteError(w, http.StatusTooManyRequests, errors.ErrCodeRateLimitExceeded, "Rate limit exceeded", nil)
				return
			}
			next(w, r)
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
