package ratelimit

import (
	"context"
	"time"
)

// Policy allows Limit attempts per Window.
type Policy struct {
	Limit  int
	Window time.Duration
}

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter is a fixed-window attempt counter keyed by client identifier.
type Limiter interface {
	// Check records an attempt for identifier unless its window is already full.
	Check(ctx context.Context, identifier string, policy Policy) (Result, error)
	// Decrement gives back one attempt, typically after a successful login.
	Decrement(ctx context.Context, identifier string) error
}

func remaining(limit, count int) int {
	if count >= limit {
		return 0
	}
	return limit - count
}
