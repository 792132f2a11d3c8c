package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetryDelay(t *testing.T) {
	t.Parallel()

	p := DefaultRetryPolicy()

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{attempt: 1, expected: 0},
		{attempt: 2, expected: 2 * time.Second},
		{attempt: 3, expected: 4 * time.Second},
		{attempt: 4, expected: 8 * time.Second},
		{attempt: 5, expected: 10 * time.Second},
		{attempt: 12, expected: 10 * time.Second},
	}

	for _, tt := range tests {
		require.Equal(t, tt.expected, p.Delay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestRetryDoStopsOnSuccess(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{MaxAttempts: 5}
	calls := 0

	err := p.Do(t.Context(), func(_ context.Context, attempt int) error {
		calls++
		require.Equal(t, calls, attempt)
		if attempt < 2 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestRetryDoReturnsLastError(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{MaxAttempts: 3}
	calls := 0

	err := p.Do(t.Context(), func(_ context.Context, attempt int) error {
		calls++
		return errors.New("failure " + string(rune('0'+attempt)))
	})
	require.EqualError(t, err, "failure 3")
	require.Equal(t, 3, calls)
}

func TestRetryDoStopsWhenContextDone(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}
	calls := 0

	err := p.Do(ctx, func(_ context.Context, _ int) error {
		calls++
		cancel()
		return errors.New("failure")
	})
	require.EqualError(t, err, "failure")
	require.Equal(t, 1, calls)
}

func TestRetryJitterStaysBounded(t *testing.T) {
	t.Parallel()

	var delays []time.Duration

	p := DefaultRetryPolicy()
	p.Jitter = true
	p.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	_ = p.Do(t.Context(), func(_ context.Context, _ int) error {
		return errors.New("failure")
	})

	require.Len(t, delays, 2)
	require.GreaterOrEqual(t, delays[0], 2*time.Second)
	require.LessOrEqual(t, delays[0], 3*time.Second)
	require.GreaterOrEqual(t, delays[1], 4*time.Second)
	require.LessOrEqual(t, delays[1], 6*time.Second)
}
