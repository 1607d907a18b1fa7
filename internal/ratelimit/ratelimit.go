package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/victornm/quizforge/internal/errors"
)

const (
	defaultLimit  = 10
	defaultWindow = time.Hour
)

type Config struct {
	Redis  redis.UniversalClient
	Prefix string
	// Limit and Window default to 10 per hour when zero.
	Limit  int64
	Window time.Duration
}

// Limiter is a fixed-window counter over Redis keyed by
// (quiz, client address). Counters share nothing across keys, so
// concurrent submissions to different quizzes never interact.
type Limiter struct {
	redis  redis.UniversalClient
	prefix string
	limit  int64
	window time.Duration
}

func NewLimiter(c Config) *Limiter {
	l := &Limiter{
		redis:  c.Redis,
		prefix: c.Prefix,
		limit:  c.Limit,
		window: c.Window,
	}
	if l.limit <= 0 {
		l.limit = defaultLimit
	}
	if l.window <= 0 {
		l.window = defaultWindow
	}

	return l
}

// Allow counts one submission attempt and rejects when the window's
// budget is spent. The window starts at the first attempt for the key.
func (l *Limiter) Allow(ctx context.Context, quizID, clientAddr string) error {
	key := l.getCounterKey(quizID, clientAddr)

	n, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("ratelimit: incr: %w", err)
	}

	if n == 1 {
		if err := l.redis.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("ratelimit: expire: %w", err)
		}
	}

	if n > l.limit {
		return errors.New(errors.CodeResourceExhausted,
			errors.WithMessagef("submission limit reached for this quiz, try again later"))
	}

	return nil
}

func (l *Limiter) getCounterKey(quizID, clientAddr string) string {
	return fmt.Sprintf("%s:%s:submit:%s", l.prefix, quizID, clientAddr)
}
