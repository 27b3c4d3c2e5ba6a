package llm

import (
	"context"
	"time"
)

// Client defines the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Request is a single prompt sent to a provider.
type Request struct {
	System string
	Prompt string
	// MaxTokens overrides the provider default when positive.
	MaxTokens int
}

// Response contains the provider's raw completion text.
type Response struct {
	Content string
}

// Config holds configuration for the inference capability.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	RateLimit   int
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}
