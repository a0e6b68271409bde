package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	// Create a mini Redis server for testing
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	// Parse host and port
	cache, err := NewCache(mr.Host(), mr.Server().Addr().Port, "", 0)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create cache: %v", err)
	}

	return cache, mr
}

func TestNewCache(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	if cache == nil {
		t.Fatal("Cache should not be nil")
	}

	// Test ping
	ctx := context.Background()
	if err := cache.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNewCacheUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	host, port := mr.Host(), mr.Server().Addr().Port
	mr.Close()

	_, err = NewCache(host, port, "", 0)
	assert.Error(t, err)
}

func TestCache_TokenDenylist(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()

	revoked, err := cache.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, cache.RevokeToken(ctx, "jti-1", time.Minute))

	revoked, err = cache.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// Entries expire with the token
	mr.FastForward(2 * time.Minute)
	revoked, err = cache.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	// Already expired tokens and empty IDs are ignored
	require.NoError(t, cache.RevokeToken(ctx, "jti-2", 0))
	require.NoError(t, cache.RevokeToken(ctx, "", time.Minute))
	assert.False(t, mr.Exists("revoked:jti-2"))

	revoked, err = cache.IsTokenRevoked(ctx, "")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestCache_ChannelStats(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()

	// Test cache miss
	stats, err := cache.GetChannelStats(ctx, "channel-1")
	require.NoError(t, err)
	assert.Nil(t, stats)

	want := &models.ChannelStats{
		ChannelID:        "channel-1",
		TotalVideos:      3,
		TotalViews:       120,
		TotalSubscribers: 7,
		TotalLikes:       9,
	}
	require.NoError(t, cache.SetChannelStats(ctx, want, time.Minute))

	got, err := cache.GetChannelStats(ctx, "channel-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, cache.InvalidateChannelStats(ctx, "channel-1", "channel-2"))
	got, err = cache.GetChannelStats(ctx, "channel-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, cache.InvalidateChannelStats(ctx))
}

func TestCache_GetWithJSONCorrupt(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	require.NoError(t, mr.Set("stats:channel:bad", "{not json"))

	_, err := cache.GetChannelStats(context.Background(), "bad")
	assert.Error(t, err)
}

func TestCache_RateLimit(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()
	key := "login:alice"
	limit := int64(5)
	window := 1 * time.Minute

	// Should allow first 5 requests
	for i := 0; i < 5; i++ {
		allowed, err := cache.CheckRateLimit(ctx, key, limit, window)
		if err != nil {
			t.Fatalf("CheckRateLimit failed: %v", err)
		}

		if !allowed {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	// Should deny 6th request
	allowed, err := cache.CheckRateLimit(ctx, key, limit, window)
	if err != nil {
		t.Fatalf("CheckRateLimit failed: %v", err)
	}

	if allowed {
		t.Error("Request beyond limit should be denied")
	}

	// Reset allows again
	require.NoError(t, cache.ResetRateLimit(ctx, key))
	allowed, err = cache.CheckRateLimit(ctx, key, limit, window)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCache_Locking(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()
	resource := "cleanup:video-123"

	// Test AcquireLock
	acquired, err := cache.AcquireLock(ctx, resource, 1*time.Minute)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}

	if !acquired {
		t.Error("First lock acquisition should succeed")
	}

	// Test acquiring same lock again (should fail)
	acquired, err = cache.AcquireLock(ctx, resource, 1*time.Minute)
	if err != nil {
		t.Fatalf("Second AcquireLock failed: %v", err)
	}

	if acquired {
		t.Error("Second lock acquisition should fail")
	}

	// Test ReleaseLock
	err = cache.ReleaseLock(ctx, resource)
	if err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}

	// Should be able to acquire again
	acquired, err = cache.AcquireLock(ctx, resource, 1*time.Minute)
	if err != nil {
		t.Fatalf("AcquireLock after release failed: %v", err)
	}

	if !acquired {
		t.Error("Lock acquisition after release should succeed")
	}
}
