package remote

import (
	"context"
	"math"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"
)

// RetryConfig bounds the retry decorator.
type RetryConfig struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// WithRetry wraps a push func with bounded, jittered exponential
// backoff. The reconciler does not use it; it exists for deployments
// that want pushes retried, attached here as a decorator rather than
// inside the reconciler.
func WithRetry(cfg RetryConfig, logger *log.Logger, push func(context.Context) error) func(context.Context) error {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	return func(ctx context.Context) error {
		var err error
		for attempt := 0; attempt < cfg.Attempts; attempt++ {
			if attempt > 0 {
				delay := backoff(attempt, cfg.Initial, cfg.Max)
				if logger != nil {
					logger.WithFields(log.Fields{"attempt": attempt, "delay": delay}).Warn("retrying remote push")
				}
				timer := time.NewTimer(delay)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				}
			}
			if err = push(ctx); err == nil {
				return nil
			}
		}
		return err
	}
}

func backoff(attempt int, initial, max time.Duration) time.Duration {
	if initial <= 0 {
		initial = time.Second
	}
	if max <= 0 {
		max = 10 * time.Second
	}
	if attempt <= 0 {
		return initial
	}
	delay := float64(initial) * math.Pow(2, float64(attempt-1))
	if delay > float64(max) {
		delay = float64(max)
	}
	jitter := 0.2 * delay
	return time.Duration(delay + (rand.Float64()-0.5)*2*jitter)
}
