package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"brevio/web/internal/service"
)

func TestRateLimiter_DefaultsAndCancel(t *testing.T) {
	rl := service.NewRateLimiter(0)
	require.Equal(t, service.DefaultRateLimit, rl.Limit())
	require.NoError(t, rl.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, rl.Wait(ctx))
}

func TestRateLimiter_SpacesCallsBeyondBurst(t *testing.T) {
	rl := service.NewRateLimiter(20)
	ctx := context.Background()

	start := time.Now()
	for range 22 {
		require.NoError(t, rl.Wait(ctx))
	}
	// 20 calls fit in the burst; two more need roughly 50ms each.
	require.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}
