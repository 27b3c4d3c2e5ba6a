package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnthropicClient(t *testing.T) {
	_, err := newAnthropicClient(Config{})
	require.Error(t, err)

	client, err := newAnthropicClient(Config{APIKey: "k", Model: "claude-sonnet-4-0"})
	require.NoError(t, err)
	ac, ok := client.(*anthropicClient)
	require.True(t, ok)
	assert.Equal(t, "claude-sonnet-4-0", ac.model)
	assert.Equal(t, anthropicDefaultURL, ac.baseURL)
	assert.InDelta(t, 0.2, ac.temperature, 1e-9)
}

func TestAnthropicComplete(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
		wantErr  bool
	}{
		{
			name:     "single text block",
			response: `{"content":[{"type":"text","text":"{\"a\":1}"}]}`,
			want:     `{"a":1}`,
		},
		{
			name:     "concatenates text blocks",
			response: `{"content":[{"type":"text","text":"{\"a\":"},{"type":"tool_use"},{"type":"text","text":"1}"}]}`,
			want:     `{"a":1}`,
		},
		{
			name:     "no text",
			response: `{"content":[]}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/messages", r.URL.Path)
				assert.Equal(t, "k", r.Header.Get("x-api-key"))
				assert.NotEmpty(t, r.Header.Get("anthropic-version"))

				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				var req map[string]any
				require.NoError(t, json.Unmarshal(body, &req))
				assert.Equal(t, "be terse", req["system"])

				_, _ = w.Write([]byte(tt.response))
			}))
			defer server.Close()

			client, err := newAnthropicClient(Config{APIKey: "k", BaseURL: server.URL})
			require.NoError(t, err)

			resp, err := client.Complete(context.Background(), Request{System: "be terse", Prompt: "go"})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Content)
		})
	}
}

func TestNewClientProviders(t *testing.T) {
	for _, provider := range []string{"openai", "OpenAI", "anthropic"} {
		client, err := NewClient(Config{Provider: provider, APIKey: "k"})
		require.NoError(t, err, provider)
		assert.NotNil(t, client)
	}

	_, err := NewClient(Config{Provider: "nope", APIKey: "k"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported LLM provider")

	_, err = NewClient(Config{Provider: "gemini"})
	require.Error(t, err)
}
