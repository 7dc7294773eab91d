package middleware

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
	"github.com/nacca-sms/nacca-sms-api/pkg/response"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP with a token bucket that allows
// maxRequests per window.
type RateLimiter struct {
	every  rate.Limit
	burst  int
	expiry time.Duration

	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

// NewRateLimiter builds a limiter. Non-positive arguments fall back to 5 per minute.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	if maxRequests <= 0 {
		maxRequests = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	expiry := window * 3
	if expiry < time.Minute {
		expiry = time.Minute
	}
	return &RateLimiter{
		every:    rate.Every(window / time.Duration(maxRequests)),
		burst:    maxRequests,
		expiry:   expiry,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// Middleware rejects callers over their budget with 429 and a Retry-After header.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		now := l.now()
		v := l.visitor(c.ClientIP(), now)

		reservation := v.limiter.ReserveN(now, 1)
		if delay := reservation.DelayFrom(now); delay > 0 {
			reservation.CancelAt(now)
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			response.Error(c, appErrors.Clone(appErrors.ErrTooManyRequests, "too many login attempts, try again later"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// Run evicts idle visitors every minute until ctx is done.
func (l *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep(l.now())
		}
	}
}

func (l *RateLimiter) visitor(key string, now time.Time) *visitor {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.every, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v
}

func (l *RateLimiter) sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.expiry {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}
