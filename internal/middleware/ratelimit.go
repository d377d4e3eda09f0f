package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Window duration
	Window time.Duration
	// KeyFunc picks the bucket for a request
	KeyFunc func(c *gin.Context) string
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   100,
		Window:  time.Minute,
		KeyFunc: UserOrIPKey,
	}
}

// AuthRateLimitConfig returns stricter limits for auth endpoints
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   10,
		Window:  time.Minute,
		KeyFunc: UserOrIPKey,
	}
}

// UploadRateLimitConfig returns limits for upload endpoints
func UploadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   20,
		Window:  time.Minute,
		KeyFunc: UserOrIPKey,
	}
}

// PlanRateLimitConfig limits content plan generation, which calls a paid API
func PlanRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   5,
		Window:  time.Minute,
		KeyFunc: UserOrIPKey,
	}
}

// UserOrIPKey buckets authenticated requests per user and the rest per IP
func UserOrIPKey(c *gin.Context) string {
	if userID := c.GetString("user_id"); userID != "" {
		return "user:" + userID
	}
	return "ip:" + c.ClientIP()
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per key in process memory
type MemoryLimiter struct {
	config   RateLimitConfig
	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewMemoryLimiter creates an in-memory limiter
func NewMemoryLimiter(config RateLimitConfig) *MemoryLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = UserOrIPKey
	}
	return &MemoryLimiter{config: config, visitors: make(map[string]*visitor)}
}

// Allow takes a token for key, returning how long to wait when there is none
func (ml *MemoryLimiter) Allow(key string) (bool, time.Duration) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	now := time.Now()
	v, ok := ml.visitors[key]
	if !ok {
		every := ml.config.Window / time.Duration(ml.config.Limit)
		v = &visitor{limiter: rate.NewLimiter(rate.Every(every), ml.config.Limit)}
		ml.visitors[key] = v
	}
	v.lastSeen = now

	r := v.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Sweep forgets keys idle for longer than a window
func (ml *MemoryLimiter) Sweep() {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	cutoff := time.Now().Add(-ml.config.Window)
	for key, v := range ml.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(ml.visitors, key)
		}
	}
}

// NewRateLimiter creates an in-memory rate limiting middleware
func NewRateLimiter(config RateLimitConfig) gin.HandlerFunc {
	ml := NewMemoryLimiter(config)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			ml.Sweep()
		}
	}()

	return func(c *gin.Context) {
		allowed, wait := ml.Allow(ml.config.KeyFunc(c))
		if !allowed {
			rejectRateLimited(c, ml.config.Limit, wait)
			return
		}
		c.Next()
	}
}

func rejectRateLimited(c *gin.Context, limit int, wait time.Duration) {
	retryAfter := int(math.Ceil(wait.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	RecordRateLimitExceeded(c.FullPath(), c.Request.Method)
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Header("X-RateLimit-Remaining", "0")
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":       "rate_limit_exceeded",
		"message":     "Too many requests",
		"retry_after": retryAfter,
	})
}
