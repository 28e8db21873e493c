package pipeline

import (
	"context"
	"time"

	"github.com/go-pkgz/repeater/v2"
)

// RetryPolicy describes bounded retry with exponential backoff
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration // initial delay, doubled on every attempt
	MaxDelay time.Duration // cap for a single delay, defaults to Delay << Attempts
	Jitter   float64       // 0.3 means ±30%
}

// Retry calls op until it succeeds or attempts are exhausted, returning the last error.
// op gets zero-based attempt number.
func Retry(ctx context.Context, policy RetryPolicy, op func(attempt int) error) error {
	attempts := max(policy.Attempts, 1)
	maxDelay := policy.MaxDelay
	if maxDelay <= 0 {
		maxDelay = policy.Delay << attempts
	}

	attempt := 0
	r := repeater.NewBackoff(attempts, policy.Delay, repeater.WithMaxDelay(maxDelay), repeater.WithJitter(policy.Jitter))
	return r.Do(ctx, func() error {
		err := op(attempt)
		attempt++
		return err
	})
}
