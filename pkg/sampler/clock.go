package sampler

import (
	"context"
	"time"
)

// Clock is the time source of the sampler.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

// sleepUntil blocks until clock reaches t or ctx is done. A t in the past
// returns immediately.
func sleepUntil(ctx context.Context, clock Clock, t time.Time) error {
	return sleep(ctx, clock, t.Sub(clock.Now()))
}

func sleep(ctx context.Context, clock Clock, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-clock.After(d):
		return nil
	}
}
