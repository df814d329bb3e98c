// Package ratelimit throttles how often one employee may open approval
// requests. Counts live in process memory or, when several Lambda instances
// share the budget, in a DynamoDB table.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Limiter decides whether another attempt is allowed for a key.
// Implementations must be safe for concurrent use.
type Limiter interface {
	// Allow records one attempt for key. A non-nil error means the limiter
	// could not decide; the returned Decision then allows the attempt.
	Allow(ctx context.Context, key string) (Decision, error)
}

// Config bounds attempts per key.
type Config struct {
	// Limit is the number of attempts allowed in Window.
	Limit int

	// Window is the period attempts are counted over.
	Window time.Duration
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed bool

	// Remaining attempts in the current window. Zero when denied.
	Remaining int

	// RetryAfter is how long until the next attempt would be allowed.
	// Zero when allowed.
	RetryAfter time.Duration
}

// Validate checks that Limit and Window are positive.
func (c Config) Validate() error {
	if c.Limit <= 0 {
		return fmt.Errorf("rate limit must be positive, got %d", c.Limit)
	}
	if c.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive, got %v", c.Window)
	}
	return nil
}

// CreateRequestKey is the limiter key for approval requests opened by empID.
func CreateRequestKey(empID string) string {
	return "create#" + empID
}

func allowed(remaining int) Decision {
	return Decision{Allowed: true, Remaining: remaining}
}

func denied(retryAfter time.Duration) Decision {
	if retryAfter < 0 {
		retryAfter = 0
	}
	return Decision{RetryAfter: retryAfter}
}
