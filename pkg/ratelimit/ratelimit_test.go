package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalRateLimiterBurstThenReject(t *testing.T) {
	l := NewLocalRateLimiter()
	limit := Limit{Rate: 1, Period: time.Hour, Burst: 2}
	ctx := context.Background()

	for i := range 2 {
		res, err := l.Allow(ctx, "10.0.0.1", limit)
		require.NoError(t, err)
		require.True(t, res.Allowed, "request %d", i)
	}

	res, err := l.Allow(ctx, "10.0.0.1", limit)
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Positive(t, res.RetryAfter)

	// 其它 key 不受影响
	res, err = l.Allow(ctx, "10.0.0.2", limit)
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestLocalRateLimiterRejectsBadLimit(t *testing.T) {
	_, err := NewLocalRateLimiter().Allow(context.Background(), "k", Limit{})
	require.Error(t, err)
}
