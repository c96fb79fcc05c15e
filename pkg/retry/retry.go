// Package retry repeats an operation with capped exponential backoff.
// The API and worker use it to wait for PostgreSQL and Redis at start-up
// and to republish events to Redis.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// permanentError stops the loop at once.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth another attempt. Do returns the
// unwrapped err.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Config is the backoff policy. Delay n is InitialDelay*Multiplier^(n-1),
// capped at MaxDelay, then shifted by up to ±JitterFactor of itself.
type Config struct {
	MaxAttempts  int // includes the first call
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64

	// RetryIf filters errors; nil retries everything except context errors.
	RetryIf func(error) bool
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Option adjusts a Config.
type Option func(*Config)

func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.InitialDelay = d
		}
	}
}

func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.MaxDelay = d
		}
	}
}

// WithJitter ignores factors outside [0, 1].
func WithJitter(f float64) Option {
	return func(c *Config) {
		if f >= 0 && f <= 1 {
			c.JitterFactor = f
		}
	}
}

func WithRetryIf(fn func(error) bool) Option {
	return func(c *Config) { c.RetryIf = fn }
}

// WithOnRetry registers a callback run before each wait.
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(c *Config) { c.OnRetry = fn }
}

// Retrier runs operations under one Config.
type Retrier struct {
	cfg Config
}

// New starts from 3 attempts, 100ms doubling up to 30s, 10% jitter.
func New(opts ...Option) *Retrier {
	cfg := Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
		JitterFactor: 0.1,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Retrier{cfg: cfg}
}

// Do calls op until it succeeds, fails permanently, runs out of attempts, or
// ctx ends. The last error from op is returned, never a bare ctx error once
// op has been called.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var last error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if last != nil {
				return last
			}
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		last = err
		if attempt >= r.cfg.MaxAttempts || !r.retryable(err) {
			return err
		}

		delay := r.backoff(attempt)
		if r.cfg.OnRetry != nil {
			r.cfg.OnRetry(attempt, err, delay)
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return last
		case <-t.C:
		}
	}
}

func (r *Retrier) retryable(err error) bool {
	if r.cfg.RetryIf != nil {
		return r.cfg.RetryIf(err)
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (r *Retrier) backoff(attempt int) time.Duration {
	d := float64(r.cfg.InitialDelay)
	for i := 1; i < attempt && d < float64(r.cfg.MaxDelay); i++ {
		d *= r.cfg.Multiplier
	}
	if d > float64(r.cfg.MaxDelay) {
		d = float64(r.cfg.MaxDelay)
	}
	if r.cfg.JitterFactor > 0 {
		d += d * r.cfg.JitterFactor * (rand.Float64()*2 - 1)
	}
	return time.Duration(max(d, 0))
}

// Do is New(opts...).Do(ctx, op).
func Do(ctx context.Context, op func(ctx context.Context) error, opts ...Option) error {
	return New(opts...).Do(ctx, op)
}

// StartupRetrier waits for a backend that may still be booting. attempts <= 0
// means 6, roughly 20 seconds in total.
func StartupRetrier(attempts int, onRetry func(attempt int, err error, delay time.Duration)) *Retrier {
	if attempts <= 0 {
		attempts = 6
	}
	return New(
		WithMaxAttempts(attempts),
		WithInitialDelay(500*time.Millisecond),
		WithMaxDelay(8*time.Second),
		WithJitter(0.2),
		WithRetryIf(func(error) bool { return true }),
		WithOnRetry(onRetry),
	)
}

// PublishRetrier retries a Redis publish briefly before the event is dropped.
func PublishRetrier() *Retrier {
	return New(
		WithMaxAttempts(3),
		WithInitialDelay(50*time.Millisecond),
		WithMaxDelay(time.Second),
		WithJitter(0.05),
	)
}
