package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dwlarson10/basketball-stats/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Config holds Redis connection settings.
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// RedisCache fronts query responses with a TTL cache. The dashboard serves
// fine without it; callers treat a nil *RedisCache as cache-off.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache connection.
func NewRedisCache(cfg Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Close closes the Redis connection.
func (rc *RedisCache) Close() error {
	if rc == nil {
		return nil
	}
	return rc.client.Close()
}

// HealthCheck pings Redis to verify the connection.
func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	if rc == nil {
		return nil
	}
	return rc.client.Ping(ctx).Err()
}

// Key builds a cache key from parts, e.g. Key("teams", "00", "2023").
func Key(parts ...string) string {
	return "bbstats:" + strings.Join(parts, ":")
}

// GetJSON loads a cached value into dest. A miss, a nil cache or a Redis
// error all report found=false so callers fall through to the database.
func (rc *RedisCache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if rc == nil {
		return false
	}

	raw, err := rc.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		metrics.RecordCacheMiss()
		return false
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		metrics.RecordCacheMiss()
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Discarding undecodable cache entry")
		rc.client.Del(ctx, key)
		metrics.RecordCacheMiss()
		return false
	}

	metrics.RecordCacheHit()
	return true
}

// SetJSON stores a value under key with a TTL. Failures are logged and
// swallowed; caching is best effort.
func (rc *RedisCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if rc == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to encode cache entry")
		return
	}
	if err := rc.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

// InvalidatePrefix drops every key under a prefix. Used after a refresh
// lands new partitions so readers never see stale query results.
func (rc *RedisCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	if rc == nil {
		return nil
	}

	iter := rc.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := rc.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache keys: %w", err)
	}

	log.Debug().Int("keys", len(keys)).Str("prefix", prefix).Msg("Cache invalidated")
	return nil
}
