package backend

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 2 * time.Second
	defaultMaxDelay    = 10 * time.Second
)

// RetryPolicy retries every failure of an operation, whatever its kind, until
// MaxAttempts is reached.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Jitter adds up to half of the computed delay at random.
	Jitter bool

	sleep func(ctx context.Context, d time.Duration) error
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		MaxDelay:    defaultMaxDelay,
	}
}

// Delay is the pause before attempt n (n >= 2): min(MaxDelay, BaseDelay*2^(n-2)).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 2 || p.BaseDelay <= 0 {
		return 0
	}

	d := p.BaseDelay
	for i := 2; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Do runs fn until it succeeds or attempts run out; the last error is returned.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	attempts := max(p.MaxAttempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := p.Delay(attempt)
			if p.Jitter && delay > 0 {
				delay += rand.N(delay/2 + 1)
			}

			slog.WarnContext(ctx, "retrying backend call",
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.String("error", err.Error()),
			)

			if sleepErr := p.wait(ctx, delay); sleepErr != nil {
				return err
			}
		}

		if err = fn(ctx, attempt); err == nil {
			return nil
		}
	}

	return err
}

func (p RetryPolicy) wait(ctx context.Context, d time.Duration) error {
	if p.sleep != nil {
		return p.sleep(ctx, d)
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
