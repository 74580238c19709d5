package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/codeAuth/internal/rate"
	"github.com/redis/go-redis/v9"
)

var (
	ErrIssueRateLimited      = errors.New("issue rate limited")
	ErrIssueRedisUnavailable = errors.New("issue redis unavailable")
)

// IssuanceConfig bounds how many codes one binding (and optionally one
// client IP) can request per window, per issuing flow.
type IssuanceConfig struct {
	Prefix           string
	EnableIPThrottle bool
	MaxRequests      int
	Window           time.Duration
}

type IssuanceLimiter struct {
	redis  redis.UniversalClient
	config IssuanceConfig
}

func NewIssuanceLimiter(redisClient redis.UniversalClient, cfg IssuanceConfig) *IssuanceLimiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "acr"
	}
	return &IssuanceLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

// Check counts one issuance request for flow and binding and fails once the
// window budget is exceeded.
func (l *IssuanceLimiter) Check(ctx context.Context, flow, binding, ip string) error {
	if l == nil {
		return nil
	}
	if err := l.enforce(ctx, l.bindingKey(flow, binding)); err != nil {
		return err
	}
	if l.config.EnableIPThrottle && ip != "" {
		if err := l.enforce(ctx, l.ipKey(flow, ip)); err != nil {
			return err
		}
	}
	return nil
}

func (l *IssuanceLimiter) enforce(ctx context.Context, key string) error {
	count, err := rate.Hit(ctx, l.redis, key, l.config.Window)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIssueRedisUnavailable, err)
	}
	if count > int64(l.config.MaxRequests) {
		return ErrIssueRateLimited
	}
	return nil
}

func (l *IssuanceLimiter) bindingKey(flow, binding string) string {
	return l.config.Prefix + ":ri:" + flow + ":" + binding
}

func (l *IssuanceLimiter) ipKey(flow, ip string) string {
	return l.config.Prefix + ":rip:" + flow + ":" + ip
}
