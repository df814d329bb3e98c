package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepEvery is how many Allow calls pass between sweeps of idle keys.
const sweepEvery = 256

// MemoryLimiter keeps a sliding window of attempt times per key. Each warm
// Lambda instance has its own counts.
type MemoryLimiter struct {
	config Config

	mu       sync.Mutex
	attempts map[string][]time.Time
	calls    int

	now func() time.Time
}

// NewMemoryLimiter creates an in-memory limiter.
func NewMemoryLimiter(cfg Config) (*MemoryLimiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &MemoryLimiter{
		config:   cfg,
		attempts: make(map[string][]time.Time),
		now:      time.Now,
	}, nil
}

// Allow counts the attempts for key inside the last Window.
func (m *MemoryLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cutoff := now.Add(-m.config.Window)

	m.calls++
	if m.calls%sweepEvery == 0 {
		m.sweep(cutoff)
	}

	times := since(m.attempts[key], cutoff)
	if len(times) >= m.config.Limit {
		m.attempts[key] = times
		return denied(times[0].Add(m.config.Window).Sub(now)), nil
	}
	m.attempts[key] = append(times, now)
	return allowed(m.config.Limit - len(times) - 1), nil
}

// Keys returns the number of keys with attempts in the current window.
func (m *MemoryLimiter) Keys() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep(m.now().Add(-m.config.Window))
	return len(m.attempts)
}

func (m *MemoryLimiter) sweep(cutoff time.Time) {
	for key, times := range m.attempts {
		if times = since(times, cutoff); len(times) == 0 {
			delete(m.attempts, key)
		} else {
			m.attempts[key] = times
		}
	}
}

// since drops the times at or before cutoff. times is sorted.
func since(times []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	return times[i:]
}

var _ Limiter = (*MemoryLimiter)(nil)
