package mdnice

import (
	"context"
	"log/slog"
	"time"
)

// defaultRetryDelay is the pause between two attempts of a retried step.
const defaultRetryDelay = 2 * time.Second

// retry runs fn up to retries+1 times, sleeping delay between attempts.
// On exhaustion the last error is returned as is, so callers can still
// classify it with errors.Is / errors.As. Context cancellation stops the loop
// and returns the context error.
func retry[T any](ctx context.Context, log *slog.Logger, step string, retries int, delay time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			log.Warn("retrying", "step", step, "attempt", attempt, "of", retries, "err", lastErr)
			if err := sleep(ctx, delay); err != nil {
				return zero, err
			}
		}
		v, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				log.Info("retry succeeded", "step", step, "attempt", attempt)
			}
			return v, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return zero, lastErr
		}
	}
	return zero, lastErr
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
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
