package middleware

import (
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"tours-service/apperr"
	"tours-service/logger"
)

const rateLimitMessage = "Too many requests from this IP, please try again after a minute."

type windowEntry struct {
	start time.Time
	count int
}

// RateLimiter allows at most `limit` requests per client IP in each fixed
// window. A client's window opens with its first request. Expired windows
// are evicted.
type RateLimiter struct {
	mu        sync.Mutex
	entries   map[string]*windowEntry
	limit     int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
	rejectLog rate.Sometimes
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		entries:   map[string]*windowEntry{},
		limit:     limit,
		window:    window,
		now:       time.Now,
		rejectLog: rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
}

// Allow counts a request for key. When the window is used up it reports
// the time left until the window resets.
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > l.window {
		for k, e := range l.entries {
			if now.Sub(e.start) >= l.window {
				delete(l.entries, k)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.entries[key]
	if !ok || now.Sub(e.start) >= l.window {
		e = &windowEntry{start: now}
		l.entries[key] = e
	}
	if e.count >= l.limit {
		return false, e.start.Add(l.window).Sub(now)
	}
	e.count++
	return true, 0
}

func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-RateLimit-Limit", strconv.Itoa(l.limit))
		ip := c.ClientIP()
		ok, retry := l.Allow(ip)
		if !ok {
			l.rejectLog.Do(func() {
				logger.FromContext(c.Request.Context(), slog.Default()).
					Warn("rate limit exceeded", "client_ip", ip, "retry_after", retry)
			})
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
			_ = c.Error(apperr.TooManyRequests(rateLimitMessage))
			c.Abort()
			return
		}
		c.Next()
	}
}
