package poll

import (
	"context"
	"time"
)

// Settle controls how UntilStable waits between attempts.
type Settle struct {
	Interval    time.Duration
	MaxAttempts int
}

// UntilStable calls act then measure until the measured value stops
// growing or MaxAttempts acts have run. It returns the last measurement and
// the number of acts performed.
func UntilStable(ctx context.Context, s Settle, act func(context.Context) error, measure func(context.Context) (int64, error)) (int64, int, error) {
	var last int64
	cur, err := measure(ctx)
	if err != nil {
		return 0, 0, err
	}

	attempts := 0
	for cur > last && attempts < s.MaxAttempts {
		last = cur
		if err := act(ctx); err != nil {
			return last, attempts, err
		}
		if err := Sleep(ctx, s.Interval); err != nil {
			return last, attempts, err
		}
		cur, err = measure(ctx)
		if err != nil {
			return last, attempts, err
		}
		attempts++
	}
	return cur, attempts, nil
}

// Repeat runs pass up to max times, stopping early once pass reports it
// did no work. It returns the number of passes that did work.
func Repeat(ctx context.Context, max int, pass func(ctx context.Context, i int) (bool, error)) (int, error) {
	done := 0
	for i := 0; i < max; i++ {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		worked, err := pass(ctx, i)
		if err != nil {
			return done, err
		}
		if !worked {
			break
		}
		done++
	}
	return done, nil
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
