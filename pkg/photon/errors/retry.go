package errors

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryConfig bounds how often and how patiently an operation is retried.
type RetryConfig struct {
	// MaxAttempts counts the first try. Values below 1 mean one attempt.
	MaxAttempts int

	// InitialBackoff is the wait before the second attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between attempts. Zero means no cap.
	MaxBackoff time.Duration

	// BackoffFactor multiplies the wait after each attempt.
	BackoffFactor float64

	// Jitter spreads each wait by up to this fraction either way (0.0-1.0).
	Jitter float64

	// RetryableFunc replaces IsRetryable when set.
	RetryableFunc func(error) bool

	// OnRetry, when set, is called before each wait with the attempt that
	// just failed (1-based), its error, and the wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultRetry suits local stores: lock contention clears in milliseconds,
// so backoff starts small and stays small.
var DefaultRetry = RetryConfig{
	MaxAttempts:    4,
	InitialBackoff: 5 * time.Millisecond,
	MaxBackoff:     250 * time.Millisecond,
	BackoffFactor:  2.0,
	Jitter:         0.1,
}

// NoRetry runs an operation exactly once.
var NoRetry = RetryConfig{
	MaxAttempts: 1,
}

func (c RetryConfig) attempts() int {
	return max(c.MaxAttempts, 1)
}

func (c RetryConfig) retryable(err error) bool {
	if c.RetryableFunc != nil {
		return c.RetryableFunc(err)
	}
	return IsRetryable(err)
}

// schedule yields the waits between attempts.
type schedule struct {
	next time.Duration
	cfg  RetryConfig
}

func (s *schedule) advance() time.Duration {
	wait := calculateBackoff(s.next, s.cfg.Jitter)
	s.next = time.Duration(float64(s.next) * s.cfg.BackoffFactor)
	if s.cfg.MaxBackoff > 0 && s.next > s.cfg.MaxBackoff {
		s.next = s.cfg.MaxBackoff
	}
	return wait
}

// RetryResult reports how a retried operation ended.
type RetryResult[T any] struct {
	Value    T
	Err      error // *CategorizedError when non-nil
	Attempts int
	Duration time.Duration
}

// WithRetryContext runs fn until it succeeds, fails with an error that is
// not retryable, runs out of attempts, or ctx ends. Failures come back as
// *CategorizedError wrapping the last error.
func WithRetryContext[T any](
	ctx context.Context,
	cfg RetryConfig,
	fn func(context.Context) (T, error),
) RetryResult[T] {
	start := time.Now()
	sched := schedule{next: cfg.InitialBackoff, cfg: cfg}
	limit := cfg.attempts()

	done := func(value T, err error, attempts int) RetryResult[T] {
		return RetryResult[T]{Value: value, Err: err, Attempts: attempts, Duration: time.Since(start)}
	}
	var zero T

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return done(zero, Permanent(err, "context cancelled"), attempt-1)
		}

		value, err := fn(ctx)
		if err == nil {
			return done(value, nil, attempt)
		}

		if !cfg.retryable(err) {
			return done(zero, &CategorizedError{Err: err, Category: Categorize(err), Retries: attempt}, attempt)
		}
		if attempt == limit {
			return done(zero, &CategorizedError{
				Err:      err,
				Category: Categorize(err),
				Retries:  attempt,
				Context:  "max retries exceeded",
			}, attempt)
		}

		wait := sched.advance()
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, wait)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return done(zero, Permanent(ctx.Err(), "context cancelled during backoff"), attempt)
		case <-timer.C:
		}
	}
}

// Retry is WithRetryContext for operations without a result.
func Retry(ctx context.Context, cfg RetryConfig, fn func(context.Context) error) error {
	return WithRetryContext(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}).Err
}

// calculateBackoff spreads base by up to jitter in either direction.
func calculateBackoff(base time.Duration, jitter float64) time.Duration {
	if jitter <= 0 {
		return base
	}
	spread := float64(base) * jitter * (rand.Float64()*2 - 1)
	return time.Duration(float64(base) + spread)
}
