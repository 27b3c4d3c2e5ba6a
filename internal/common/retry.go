package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/textami/internal/service"
)

var (
	// ErrRateLimit marks a provider answer that asked the caller to slow down.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries is wrapped around the last failure once attempts run out.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryableError tells WithRetry whether another attempt can help.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// retryDefaults fills zero fields of opts.
func retryDefaults(opts service.RetryOptions) service.RetryOptions {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 100 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = 2.0
	}
	return opts
}

// backoff returns the pause after the given failed attempt (1-based). Rate
// limit failures wait the full MaxDelay.
func backoff(opts service.RetryOptions, attempt int, err error) time.Duration {
	if errors.Is(err, ErrRateLimit) {
		return opts.MaxDelay
	}
	delay := float64(opts.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= opts.Multiplier
		if delay >= float64(opts.MaxDelay) {
			return opts.MaxDelay
		}
	}
	return time.Duration(delay)
}

// WithRetry runs operation until it succeeds, returns a non-retryable
// RetryableError, runs out of attempts, or ctx ends. operation receives the
// 1-based attempt number. A nil logger uses slog.Default.
func WithRetry(ctx context.Context, logger *slog.Logger, opts service.RetryOptions, operation func(attempt int) error) error {
	opts = retryDefaults(opts)
	logger = OrDefault(logger)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := operation(attempt)
		if err == nil {
			return nil
		}

		var retryableErr *RetryableError
		if errors.As(err, &retryableErr) && !retryableErr.Retryable {
			return err
		}
		if attempt >= opts.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, attempt, err)
		}

		delay := backoff(opts, attempt, err)
		logger.Warn("attempt failed, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"next_delay", delay,
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
