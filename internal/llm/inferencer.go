package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/metrics"
	"github.com/Veraticus/textami/internal/service"
)

// Inferencer adapts a raw Client into the JSON-only inference capability used by
// the analysis and mapping stages. It adds rate limiting, retries and a response cache.
type Inferencer struct {
	client      Client
	logger      *slog.Logger
	cache       *responseCache
	rateLimiter *rateLimiter
	retryOpts   service.RetryOptions
}

var _ service.Inferencer = (*Inferencer)(nil)

// NewInferencer wraps client. A nil logger falls back to slog.Default.
func NewInferencer(cfg Config, client Client, logger *slog.Logger) *Inferencer {
	retryDelay := cfg.RetryDelay
	if retryDelay == 0 {
		retryDelay = time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}

	return &Inferencer{
		client:      client,
		logger:      common.OrDefault(logger),
		cache:       newResponseCache(cfg.CacheTTL),
		rateLimiter: newRateLimiter(cfg.RateLimit),
		retryOpts: service.RetryOptions{
			MaxAttempts:  maxRetries,
			InitialDelay: retryDelay,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// Infer sends req and returns the JSON document the provider produced. Markdown
// code fences are stripped; any other non-JSON answer yields ErrNotJSON wrapped in
// common.ErrInferenceFailure.
func (i *Inferencer) Infer(ctx context.Context, req service.InferenceRequest) ([]byte, error) {
	op := req.Operation
	if op == "" {
		op = "infer"
	}

	key := cacheKey(req.System, req.Prompt, req.Schema)
	if cached, ok := i.cache.get(key); ok {
		metrics.InferenceCacheHits.Inc()
		i.logger.Debug("inference cache hit", "operation", op)
		return cached, nil
	}

	start := time.Now()
	defer func() {
		metrics.InferenceDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	var content string
	err := common.WithRetry(ctx, i.logger.With("operation", op), i.retryOpts, func(attempt int) error {
		if err := i.rateLimiter.wait(ctx); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}

		resp, err := i.client.Complete(ctx, Request{System: req.System, Prompt: req.Prompt})
		if err != nil {
			i.logger.Debug("provider call failed", "operation", op, "attempt", attempt, "error", err)
			return err
		}
		content = resp.Content
		return nil
	})
	if err != nil {
		metrics.InferenceRequests.WithLabelValues(op, "error").Inc()
		i.logger.Warn("inference request failed", "operation", op, "error", err)
		return nil, fmt.Errorf("%w: %s: %w", common.ErrInferenceFailure, op, err)
	}

	body := cleanMarkdownWrapper(content)
	if !json.Valid([]byte(body)) {
		metrics.InferenceRequests.WithLabelValues(op, "not_json").Inc()
		i.logger.Warn("inference returned non-JSON output",
			"operation", op,
			"preview", truncate(body, 120))
		return nil, fmt.Errorf("%w: %s: %w", common.ErrInferenceFailure, op, ErrNotJSON)
	}

	out := []byte(body)
	if req.Schema != "" {
		if err := Validate(out, req.Schema); err != nil {
			// Handed back uncached so the caller can decode it and ask for a correction.
			metrics.InferenceRequests.WithLabelValues(op, "invalid").Inc()
			i.logger.Debug("inference output failed schema, not cached", "operation", op, "error", err)
			return out, nil
		}
	}

	metrics.InferenceRequests.WithLabelValues(op, "ok").Inc()
	i.cache.set(key, out)
	return out, nil
}

// cleanMarkdownWrapper removes a surrounding ```json ... ``` fence if present.
func cleanMarkdownWrapper(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
