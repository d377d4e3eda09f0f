// Package cache wraps Redis for JSON read-through caching. A nil
// *RedisClient is valid and behaves as an always-empty cache, so callers
// work unchanged when Redis is not configured.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zfogg/brandcast/internal/logger"
	"github.com/zfogg/brandcast/internal/metrics"
	"github.com/zfogg/brandcast/internal/telemetry"
	"go.uber.org/zap"
)

// ErrMiss means the key is not cached
var ErrMiss = errors.New("cache miss")

// RedisClient wraps the redis.Client with centralized connection pooling
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates and initializes a Redis client with connection pooling
func NewRedisClient(host string, port string, password string) (*RedisClient, error) {
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 5,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.ErrorWithFields("Failed to connect to Redis", err)
		return nil, err
	}

	logger.Log.Info("Redis client connected", zap.String("address", addr))
	return &RedisClient{client: client}, nil
}

// Client exposes the underlying client, nil when unconfigured
func (rc *RedisClient) Client() *redis.Client {
	if rc == nil {
		return nil
	}
	return rc.client
}

// Close closes the Redis connection gracefully
func (rc *RedisClient) Close() error {
	if rc == nil || rc.client == nil {
		return nil
	}
	return rc.client.Close()
}

// Ping tests the Redis connection
func (rc *RedisClient) Ping(ctx context.Context) error {
	if rc == nil || rc.client == nil {
		return errors.New("redis not configured")
	}
	return rc.client.Ping(ctx).Err()
}

// GetJSON decodes a cached value into dest. It returns ErrMiss when the key
// is absent, Redis is down, or the cached value no longer decodes.
func (rc *RedisClient) GetJSON(ctx context.Context, name, key string, dest interface{}) error {
	if rc == nil || rc.client == nil {
		return ErrMiss
	}
	ctx, span := telemetry.TraceCacheCall(ctx, "get", key)
	raw, err := rc.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		telemetry.EndSpan(span, nil)
	} else {
		telemetry.EndSpan(span, err)
	}
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		metrics.Get().CacheMissesTotal.WithLabelValues(name).Inc()
		return ErrMiss
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		metrics.Get().CacheMissesTotal.WithLabelValues(name).Inc()
		return ErrMiss
	}
	metrics.Get().CacheHitsTotal.WithLabelValues(name).Inc()
	return nil
}

// SetJSON caches value for ttl. Failures are logged and swallowed.
func (rc *RedisClient) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if rc == nil || rc.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Log.Warn("Cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	ctx, span := telemetry.TraceCacheCall(ctx, "set", key)
	err = rc.client.Set(ctx, key, raw, ttl).Err()
	telemetry.EndSpan(span, err)
	if err != nil {
		logger.Log.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Del deletes one or more keys
func (rc *RedisClient) Del(ctx context.Context, keys ...string) {
	if rc == nil || rc.client == nil {
		return
	}
	if err := rc.client.Del(ctx, keys...).Err(); err != nil {
		logger.Log.Warn("Cache delete failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
