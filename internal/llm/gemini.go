package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// geminiClient implements the Client interface on top of the Google GenAI SDK.
type geminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

// newGeminiClient creates a new Gemini client.
func newGeminiClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &geminiClient{
		client:      client,
		model:       model,
		temperature: float32(defaultTemperature(cfg.Temperature)),
		maxTokens:   int32(defaultMaxTokens(cfg.MaxTokens)),
	}, nil
}

// Complete generates content with a JSON response MIME type.
func (c *geminiClient) Complete(ctx context.Context, r Request) (Response, error) {
	maxTokens := c.maxTokens
	if r.MaxTokens > 0 {
		maxTokens = int32(r.MaxTokens)
	}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.temperature),
		MaxOutputTokens:  maxTokens,
		ResponseMIMEType: "application/json",
	}
	if r.System != "" {
		config.SystemInstruction = genai.NewContentFromText(r.System, genai.RoleUser)
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(r.Prompt), config)
	if err != nil {
		return Response{}, retryable(fmt.Errorf("GenAI generate failed: %w", err))
	}

	text := result.Text()
	if text == "" {
		return Response{}, fmt.Errorf("no content in response")
	}

	return Response{Content: text}, nil
}
