package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/zfogg/brandcast/internal/logger"
	"go.uber.org/zap"
)

// RedisRateLimitMiddleware is a fixed-window limiter shared by every
// instance through Redis. With no client, or while Redis is failing, it
// falls back to a per-process token bucket with the same limits.
func RedisRateLimitMiddleware(client *redis.Client, name string, config RateLimitConfig) gin.HandlerFunc {
	fallback := NewMemoryLimiter(config)
	keyFunc := fallback.config.KeyFunc

	return func(c *gin.Context) {
		key := keyFunc(c)

		if client == nil {
			if ok, wait := fallback.Allow(key); !ok {
				rejectRateLimited(c, config.Limit, wait)
				return
			}
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
		defer cancel()

		window := time.Now().Unix() / int64(config.Window.Seconds())
		redisKey := fmt.Sprintf("rate_limit:%s:%s:%d", name, key, window)

		pipe := client.TxPipeline()
		incr := pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, config.Window)
		if _, err := pipe.Exec(ctx); err != nil {
			logger.Log.Warn("Redis rate limit unavailable, using in-memory limiter",
				zap.String("limiter", name),
				zap.Error(err),
			)
			if ok, wait := fallback.Allow(key); !ok {
				rejectRateLimited(c, config.Limit, wait)
				return
			}
			c.Next()
			return
		}

		if incr.Val() > int64(config.Limit) {
			logger.Log.Warn("Rate limit exceeded",
				zap.String("limiter", name),
				zap.String("key", key),
				zap.Int64("count", incr.Val()),
			)
			rejectRateLimited(c, config.Limit, config.Window-time.Duration(time.Now().Unix()%int64(config.Window.Seconds()))*time.Second)
			return
		}
		c.Next()
	}
}
