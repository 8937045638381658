package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/t32remote/internal/remote/status"
)

// RetryConfig controls how often a debugger call is repeated while TRACE32
// is not reachable yet.
type RetryConfig struct {
	// MaxAttempts bounds the number of calls. Values below 1 mean a single call.
	MaxAttempts int

	// InitialDelay is the pause after the first failure.
	InitialDelay time.Duration

	// MaxDelay caps the pause between calls.
	MaxDelay time.Duration

	// BackoffMultiplier grows the pause after each failure.
	BackoffMultiplier float64

	// Retryable picks the errors worth another call. Nil retries every error.
	Retryable func(error) bool
}

// ConnectRetryConfig returns the schedule used while waiting for a TRACE32
// instance that is still starting up. A PowerView instance usually opens its
// remote port within a few seconds of launch.
func ConnectRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       5,
		InitialDelay:      250 * time.Millisecond,
		MaxDelay:          2 * time.Second,
		BackoffMultiplier: 2.0,
		Retryable:         CommunicationFailure,
	}
}

// CommunicationFailure reports whether err is a failure to reach the
// debugger. Statuses the debugger itself answered with are final.
func CommunicationFailure(err error) bool {
	return errors.Is(err, status.Client)
}

// next returns the pause following d.
func (cfg RetryConfig) next(d time.Duration) time.Duration {
	d = time.Duration(float64(d) * cfg.BackoffMultiplier)
	if cfg.MaxDelay > 0 && d > cfg.MaxDelay {
		d = cfg.MaxDelay
	}
	return d
}

// Retry calls fn until it succeeds, fails with an error Retryable rejects,
// runs out of attempts or ctx ends.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	attempts := max(cfg.MaxAttempts, 1)
	delay := cfg.InitialDelay

	for n := 1; ; n++ {
		result, err := fn()
		switch {
		case err == nil:
			return result, nil
		case cfg.Retryable != nil && !cfg.Retryable(err):
			return result, err
		case n == attempts:
			return result, fmt.Errorf("debugger unreachable after %d attempts: %w", attempts, err)
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			var zero T
			return zero, ctx.Err()
		case <-t.C:
		}
		delay = cfg.next(delay)
	}
}

// RetryFunc is Retry for calls without a result.
func RetryFunc(ctx context.Context, cfg RetryConfig, fn func() error) error {
	_, err := Retry(ctx, cfg, func() (struct{}, error) { return struct{}{}, fn() })
	return err
}
