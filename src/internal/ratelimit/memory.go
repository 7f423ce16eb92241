package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps counters in process memory. Counts are not shared between
// instances; use RedisLimiter when running more than one replica.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	maxKeys int
	now     func() time.Time
}

type MemoryOption func(*MemoryLimiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(l *MemoryLimiter) { l.now = now }
}

// WithMaxKeys bounds the number of tracked identifiers before expired windows are pruned.
func WithMaxKeys(n int) MemoryOption {
	return func(l *MemoryLimiter) {
		if n > 0 {
			l.maxKeys = n
		}
	}
}

func NewMemoryLimiter(opts ...MemoryOption) *MemoryLimiter {
	l := &MemoryLimiter{
		windows: make(map[string]*window),
		maxKeys: 10000,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *MemoryLimiter) Check(_ context.Context, identifier string, policy Policy) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[identifier]
	if !ok || !now.Before(w.resetAt) {
		if !ok && l.maxKeys > 0 && len(l.windows) >= l.maxKeys {
			l.prune(now)
		}
		w = &window{resetAt: now.Add(policy.Window)}
		l.windows[identifier] = w
	}

	if w.count >= policy.Limit {
		logrus.WithFields(logrus.Fields{
			"identifier": identifier,
			"count":      w.count,
			"reset_at":   w.resetAt,
		}).Warn("Rate limit exceeded")

		return Result{
			Allowed: false,
			Limit:   policy.Limit,
			ResetAt: w.resetAt,
		}, nil
	}

	w.count++

	return Result{
		Allowed:   true,
		Limit:     policy.Limit,
		Remaining: remaining(policy.Limit, w.count),
		ResetAt:   w.resetAt,
	}, nil
}

func (l *MemoryLimiter) Decrement(_ context.Context, identifier string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[identifier]
	if !ok {
		return nil
	}
	if !l.now().Before(w.resetAt) {
		delete(l.windows, identifier)
		return nil
	}
	if w.count > 0 {
		w.count--
	}
	return nil
}

// prune drops expired windows. Caller holds mu.
func (l *MemoryLimiter) prune(now time.Time) {
	for key, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, key)
		}
	}
}

func (l *MemoryLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
