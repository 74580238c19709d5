package rate

import "errors"

var (
	// ErrRateLimited is returned when a counter exceeds its window budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis failures while reading or bumping a counter.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
