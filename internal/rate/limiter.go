package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the password login throttle parameters.
type Config struct {
	Prefix           string
	EnableIPThrottle bool
	MaxLoginAttempts int
	LoginCooldown    time.Duration
}

// Limiter counts failed password logins per email and per client IP.
// Counters live at <prefix>:al:<email> and <prefix>:ali:<ip>.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "acr"
	}
	return &Limiter{redis: redisClient, config: cfg}
}

// CheckLogin returns ErrRateLimited once the email or IP has used up its
// failure budget. Both counters are read in one pipeline; neither is bumped.
func (l *Limiter) CheckLogin(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}
	keys := l.keys(email, ip)
	gets := make([]*redis.StringCmd, len(keys))
	_, err := l.redis.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, key := range keys {
			gets[i] = p.Get(ctx, key)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	for _, get := range gets {
		n, err := get.Int64()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if n >= int64(l.config.MaxLoginAttempts) {
			return ErrRateLimited
		}
	}
	return nil
}

// IncrementLogin records a failed login against the email and IP counters.
func (l *Limiter) IncrementLogin(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}
	for _, key := range l.keys(email, ip) {
		if _, err := Hit(ctx, l.redis, key, l.config.LoginCooldown); err != nil {
			return err
		}
	}
	return nil
}

// ResetLogin clears the email counter after a successful login. The IP
// counter is left to expire.
func (l *Limiter) ResetLogin(ctx context.Context, email string) error {
	if l == nil {
		return nil
	}
	if err := l.redis.Del(ctx, l.config.Prefix+":al:"+email).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (l *Limiter) keys(email, ip string) []string {
	keys := []string{l.config.Prefix + ":al:" + email}
	if l.config.EnableIPThrottle && ip != "" {
		keys = append(keys, l.config.Prefix+":ali:"+ip)
	}
	return keys
}

// Hit bumps the fixed-window counter at key and returns the new count. The
// window starts at the first hit; later hits do not extend it.
func Hit(ctx context.Context, client redis.UniversalClient, key string, window time.Duration) (int64, error) {
	n, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if n > 1 {
		return n, nil
	}
	if err := client.Expire(ctx, key, window).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n, nil
}
