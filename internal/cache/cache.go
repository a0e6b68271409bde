package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/metrics"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

// Cache provides caching functionality using Redis
type Cache struct {
	client *redis.Client
}

// NewCache creates a new cache instance
func NewCache(host string, port int, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Token Denylist Operations

// RevokeToken denies a token ID until ttl elapses. A non-positive ttl is a no-op.
func (c *Cache) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	key := fmt.Sprintf("revoked:%s", jti)
	if err := c.client.Set(ctx, key, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsTokenRevoked reports whether a token ID is on the denylist
func (c *Cache) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	key := fmt.Sprintf("revoked:%s", jti)
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token denylist: %w", err)
	}
	return n > 0, nil
}

// Channel Stats Cache Operations

// SetChannelStats caches dashboard stats of a channel
func (c *Cache) SetChannelStats(ctx context.Context, stats *models.ChannelStats, ttl time.Duration) error {
	return c.SetWithJSON(ctx, fmt.Sprintf("stats:channel:%s", stats.ChannelID), stats, ttl)
}

// GetChannelStats retrieves cached stats. A miss returns nil without error.
func (c *Cache) GetChannelStats(ctx context.Context, channelID string) (*models.ChannelStats, error) {
	var stats models.ChannelStats
	found, err := c.GetWithJSON(ctx, fmt.Sprintf("stats:channel:%s", channelID), &stats)
	if err != nil {
		return nil, err
	}
	metrics.RecordCacheAccess("channel_stats", found)
	if !found {
		return nil, nil // Cache miss
	}
	return &stats, nil
}

// InvalidateChannelStats drops cached stats of the given channels
func (c *Cache) InvalidateChannelStats(ctx context.Context, channelIDs ...string) error {
	if len(channelIDs) == 0 {
		return nil
	}
	keys := make([]string, len(channelIDs))
	for i, id := range channelIDs {
		keys[i] = fmt.Sprintf("stats:channel:%s", id)
	}
	return c.client.Del(ctx, keys...).Err()
}

// Rate Limiting Operations

// CheckRateLimit checks if a rate limit has been exceeded
func (c *Cache) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	rateLimitKey := fmt.Sprintf("ratelimit:%s", key)

	// Increment counter
	count, err := c.client.Incr(ctx, rateLimitKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	// Set expiry on first request
	if count == 1 {
		if err := c.client.Expire(ctx, rateLimitKey, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set expiry: %w", err)
		}
	}

	// Check if limit exceeded
	return count <= limit, nil
}

// ResetRateLimit clears the counter for key
func (c *Cache) ResetRateLimit(ctx context.Context, key string) error {
	return c.client.Del(ctx, fmt.Sprintf("ratelimit:%s", key)).Err()
}

// Locking Operations for Distributed Systems

// AcquireLock attempts to acquire a distributed lock
func (c *Cache) AcquireLock(ctx context.Context, resource string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:%s", resource)
	return c.client.SetNX(ctx, key, "locked", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Cache) ReleaseLock(ctx context.Context, resource string) error {
	key := fmt.Sprintf("lock:%s", resource)
	return c.client.Del(ctx, key).Err()
}

// SetWithJSON sets a value with JSON marshaling
func (c *Cache) SetWithJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// GetWithJSON gets a value with JSON unmarshaling and reports whether the key existed
func (c *Cache) GetWithJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // Cache miss
		}
		return false, fmt.Errorf("failed to get value from cache: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal value: %w", err)
	}

	return true, nil
}

// Ping is the health check
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
