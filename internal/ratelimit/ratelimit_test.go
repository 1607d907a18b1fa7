package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quizforge/internal/errors"
	"github.com/victornm/quizforge/internal/ratelimit"
)

func TestLimiter_Allow(t *testing.T) {
	l, _ := makeLimiter(t, ratelimit.Config{Limit: 3, Window: time.Hour})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Allow(ctx, "quiz-1", "1.2.3.4"), "attempt %d should pass", i+1)
	}

	err := l.Allow(ctx, "quiz-1", "1.2.3.4")
	require.Error(t, err)
	require.Equal(t, errors.CodeResourceExhausted, errors.Convert(err).Code)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l, _ := makeLimiter(t, ratelimit.Config{Limit: 1, Window: time.Hour})

	ctx := context.Background()
	require.NoError(t, l.Allow(ctx, "quiz-1", "1.2.3.4"))
	require.Error(t, l.Allow(ctx, "quiz-1", "1.2.3.4"))

	// Another quiz and another client still have a full budget.
	require.NoError(t, l.Allow(ctx, "quiz-2", "1.2.3.4"))
	require.NoError(t, l.Allow(ctx, "quiz-1", "5.6.7.8"))
}

func TestLimiter_WindowResets(t *testing.T) {
	l, rs := makeLimiter(t, ratelimit.Config{Limit: 1, Window: time.Hour})

	ctx := context.Background()
	require.NoError(t, l.Allow(ctx, "quiz-1", "1.2.3.4"))
	require.Error(t, l.Allow(ctx, "quiz-1", "1.2.3.4"))

	rs.FastForward(time.Hour + time.Minute)

	require.NoError(t, l.Allow(ctx, "quiz-1", "1.2.3.4"))
}

func TestLimiter_Defaults(t *testing.T) {
	l, _ := makeLimiter(t, ratelimit.Config{})

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		require.NoError(t, l.Allow(ctx, "quiz-1", "1.2.3.4"))
	}
	require.Error(t, l.Allow(ctx, "quiz-1", "1.2.3.4"))
}

func makeLimiter(t *testing.T, c ratelimit.Config) (*ratelimit.Limiter, *miniredis.Miniredis) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	c.Redis = rc
	c.Prefix = "test"

	return ratelimit.NewLimiter(c), rs
}
