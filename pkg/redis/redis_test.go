package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/shelforder/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()

	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(cfg)
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), PIMRateLimit)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Error("Expected request to be allowed when Redis disabled")
	}
	if remaining != PIMRateLimit.Limit {
		t.Errorf("Expected remaining = %d, got %d", PIMRateLimit.Limit, remaining)
	}
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	// When Redis is disabled, cache operations should be no-ops
	require.NoError(t, cache.Set(ctx, "key", "value", TTLShort))

	var result string
	found, err := cache.Get(ctx, "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}
}

func TestCache_DeleteDisabledIsNoop(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	assert.NoError(t, cache.Delete(context.Background(), DiagnosticsKey("shoes")))
}

func TestLocker_LocalWhenDisabled(t *testing.T) {
	locker := NewLocker(disabledClient(t), "test")
	ctx := context.Background()

	token, ok, err := locker.Acquire(ctx, "shoes", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, token)

	// Second acquire while held fails
	_, ok, err = locker.Acquire(ctx, "shoes", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// Different name is independent
	_, ok, err = locker.Acquire(ctx, "bags", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// Wrong token does not release
	require.NoError(t, locker.Release(ctx, "shoes", "bogus"))
	_, ok, _ = locker.Acquire(ctx, "shoes", time.Minute)
	assert.False(t, ok)

	require.NoError(t, locker.Release(ctx, "shoes", token))
	_, ok, _ = locker.Acquire(ctx, "shoes", time.Minute)
	assert.True(t, ok)
}

func TestLocker_LocalExpiry(t *testing.T) {
	locker := NewLocker(disabledClient(t), "test")
	ctx := context.Background()

	_, ok, err := locker.Acquire(ctx, "shoes", time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(5 * time.Millisecond)

	_, ok, err = locker.Acquire(ctx, "shoes", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired lock should be re-acquirable")
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() string
		expected string
	}{
		{
			name:     "DiagnosticsKey",
			fn:       func() string { return DiagnosticsKey("shoes") },
			expected: "diagnostics:shoes",
		},
		{
			name:     "BulkSummaryKey",
			fn:       func() string { return BulkSummaryKey("2026-10-15") },
			expected: "bulk:summary:2026-10-15",
		},
		{
			name:     "BrandKey",
			fn:       func() string { return BrandKey("sku-1") },
			expected: "brand:sku-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}
