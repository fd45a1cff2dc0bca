package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketLimiter_AllowsBurstUpToCap(t *testing.T) {
	limiter := NewTokenBucketLimiter(3, time.Hour)
	defer limiter.Close()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(context.Background(), "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := limiter.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestTokenBucketLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewTokenBucketLimiter(1, time.Hour)
	defer limiter.Close()

	allowed, err := limiter.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	require.False(t, allowed)

	allowed, err = limiter.Allow(context.Background(), "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestTokenBucketLimiter_RefillRestoresTokens(t *testing.T) {
	limiter := NewTokenBucketLimiter(1, 5*time.Millisecond)
	defer limiter.Close()

	allowed, err := limiter.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	require.False(t, allowed)

	require.Eventually(t, func() bool {
		ok, allowErr := limiter.Allow(context.Background(), "10.0.0.1")
		return allowErr == nil && ok
	}, time.Second, 10*time.Millisecond)
}

func TestTokenBucketLimiter_ResetClearsKey(t *testing.T) {
	limiter := NewTokenBucketLimiter(1, time.Hour)
	defer limiter.Close()

	allowed, err := limiter.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	require.True(t, allowed)

	require.NoError(t, limiter.Reset(context.Background(), "10.0.0.1"))

	allowed, err = limiter.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestTokenBucketLimiter_CloseIsIdempotent(t *testing.T) {
	limiter := NewTokenBucketLimiter(1, time.Hour)

	limiter.Close()
	limiter.Close()
}
