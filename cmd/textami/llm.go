package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/llm"
)

// newInferencer builds the inference capability, or returns nil when no
// provider is configured so that analysis degrades instead of failing.
func newInferencer(cfg llm.Config) (*llm.Inferencer, error) {
	if cfg.Provider == "" {
		slog.Warn("No llm.provider configured; placeholders will not be classified and mapping is unavailable")
		return nil, nil
	}
	if cfg.APIKey == "" {
		return nil, common.NewUserError(
			fmt.Sprintf("No API key for llm provider %s. Set llm.api_key or %s_API_KEY.", cfg.Provider, strings.ToUpper(cfg.Provider)),
			fmt.Errorf("%w: llm api key", common.ErrMissingConfig))
	}

	client, err := llm.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	slog.Debug("Inference ready", "provider", cfg.Provider, "model", cfg.Model)
	return llm.NewInferencer(cfg, client, slog.Default()), nil
}
