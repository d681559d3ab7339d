package sampler

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy bounds a measurement: every attempt gets Timeout, failed
// attempts are retried Retries times with a backoff that starts at Backoff
// and doubles after each failure.
type RetryPolicy struct {
	Timeout time.Duration
	Retries int
	Backoff time.Duration
}

// Do runs fn until it succeeds, the attempts are used up or ctx is done.
// The error of the last attempt is returned.
func (p RetryPolicy) Do(ctx context.Context, clock Clock, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.Retries + 1
	if attempts < 1 {
		attempts = 1
	}
	backoff := p.Backoff

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = p.attempt(ctx, attempt, fn)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == attempts {
			break
		}
		if serr := sleep(ctx, clock, backoff); serr != nil {
			return serr
		}
		backoff *= 2
	}
	return fmt.Errorf("giving up after %d attempts: %w", attempts, err)
}

func (p RetryPolicy) attempt(ctx context.Context, n int, fn func(context.Context, int) error) error {
	if p.Timeout <= 0 {
		return fn(ctx, n)
	}
	actx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return fn(actx, n)
}
