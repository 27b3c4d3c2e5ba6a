package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/textami/internal/service"
)

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want error
		name string
	}{
		{name: "nil", err: nil, want: nil},
		{name: "invalid input", err: fmt.Errorf("parse: %w", ErrInvalidInput), want: ErrInvalidInput},
		{name: "malformed container is invalid input", err: fmt.Errorf("docx: %w", ErrMalformedContainer), want: ErrInvalidInput},
		{name: "inference", err: fmt.Errorf("map: %w", ErrInferenceFailure), want: ErrInferenceFailure},
		{name: "missing config", err: ErrMissingConfig, want: ErrUpstreamUnavailable},
		{name: "unclassified", err: errors.New("boom"), want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, HTTPStatus(nil))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(InvalidInput("empty dataset")))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(fmt.Errorf("x: %w", ErrInferenceFailure)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("x: %w", ErrUpstreamUnavailable)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestMalformedContainerIsNotInference(t *testing.T) {
	err := fmt.Errorf("open: %w", ErrMalformedContainer)
	assert.True(t, errors.Is(err, ErrMalformedContainer))
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.False(t, errors.Is(err, ErrInferenceFailure))
}

func TestWithRetry(t *testing.T) {
	opts := service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		var seen []int
		err := WithRetry(context.Background(), nil, opts, func(attempt int) error {
			seen = append(seen, attempt)
			if attempt < 3 {
				return errors.New("temporary")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, seen)
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), nil, opts, func(int) error {
			calls++
			return &RetryableError{Err: errors.New("bad request"), Retryable: false}
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
		assert.NotErrorIs(t, err, ErrMaxRetries)
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), nil, opts, func(int) error {
			calls++
			return errors.New("still down")
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMaxRetries)
		assert.Contains(t, err.Error(), "still down")
		assert.Equal(t, 3, calls)
	})

	t.Run("canceled context runs nothing", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		err := WithRetry(ctx, nil, opts, func(int) error {
			calls++
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, calls)
	})

	t.Run("logs through the given logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		_ = WithRetry(context.Background(), logger, service.RetryOptions{MaxAttempts: 2, InitialDelay: time.Millisecond}, func(int) error {
			return errors.New("flaky")
		})
		assert.Contains(t, buf.String(), "attempt failed, retrying")
		assert.Contains(t, buf.String(), "attempt=1")
	})
}

func TestBackoff(t *testing.T) {
	opts := service.RetryOptions{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}

	assert.Equal(t, 100*time.Millisecond, backoff(opts, 1, errors.New("x")))
	assert.Equal(t, 200*time.Millisecond, backoff(opts, 2, errors.New("x")))
	assert.Equal(t, 800*time.Millisecond, backoff(opts, 4, errors.New("x")))
	assert.Equal(t, time.Second, backoff(opts, 5, errors.New("x")))
	assert.Equal(t, time.Second, backoff(opts, 1, fmt.Errorf("429: %w", ErrRateLimit)))
}
