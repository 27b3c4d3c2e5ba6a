package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/textami/internal/common"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("TEXTAMI_TEST_DIR", "/srv/plantilles")

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "~", want: home},
		{in: "~/textami/dades.db", want: filepath.Join(home, "textami/dades.db")},
		{in: "$TEXTAMI_TEST_DIR/carta.docx", want: "/srv/plantilles/carta.docx"},
		{in: "/abs/path", want: "/abs/path"},
		{in: "~other/file", want: "~other/file"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg, err := Load(newViper(nil))
	require.NoError(t, err)

	assert.Equal(t, "", cfg.LLM.Provider)
	assert.Equal(t, 5, cfg.Analysis.SampleSize)
	assert.Equal(t, 1, cfg.Mapping.CorrectionAttempts)
	assert.Equal(t, 3, cfg.Mapping.MinSelectionLength)
	assert.Equal(t, 50, cfg.Generation.BatchSize)
	assert.Equal(t, 4, cfg.Generation.Workers)
	assert.Equal(t, "document", cfg.Generation.FilePrefix)
	assert.Equal(t, BackendFS, cfg.Storage.Backend)
	assert.Equal(t, "output", cfg.Storage.Dir)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, time.Second, cfg.LLM.RetryDelay)
	assert.Equal(t, 15*time.Minute, cfg.LLM.CacheTTL)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]any
		wantErr error
	}{
		{name: "unknown backend", values: map[string]any{"storage.backend": "s3"}, wantErr: common.ErrInvalidConfig},
		{name: "sqlite without path", values: map[string]any{"storage.backend": "sqlite", "storage.sqlite_path": ""}, wantErr: common.ErrMissingConfig},
		{name: "zero workers", values: map[string]any{"generation.workers": 0}, wantErr: common.ErrInvalidConfig},
		{name: "zero batch size", values: map[string]any{"generation.batch_size": 0}, wantErr: common.ErrInvalidConfig},
		{name: "negative corrections", values: map[string]any{"mapping.correction_attempts": -1}, wantErr: common.ErrInvalidConfig},
		{name: "unknown provider", values: map[string]any{"llm.provider": "cohere"}, wantErr: common.ErrInvalidConfig},
		{name: "drive backend", values: map[string]any{"storage.backend": "drive"}},
		{name: "backend is case insensitive", values: map[string]any{"storage.backend": "SQLite"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newViper(tt.values))
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 500, common.HTTPStatus(err))
		})
	}
}

func TestLoadLLMConfigAPIKeyPrecedence(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-key")

	cfg := LoadLLMConfig(newViper(map[string]any{"llm.provider": "Anthropic"}))
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "env-key", cfg.APIKey)

	cfg = LoadLLMConfig(newViper(map[string]any{"llm.provider": "anthropic", "llm.anthropic_api_key": "section-key"}))
	assert.Equal(t, "section-key", cfg.APIKey)

	cfg = LoadLLMConfig(newViper(map[string]any{
		"llm.provider":          "anthropic",
		"llm.anthropic_api_key": "section-key",
		"llm.api_key":           "direct-key",
	}))
	assert.Equal(t, "direct-key", cfg.APIKey)

	cfg = LoadLLMConfig(newViper(nil))
	assert.Empty(t, cfg.APIKey)
}

func TestLoadGoogleConfig(t *testing.T) {
	for _, name := range []string{"GOOGLE_SERVICE_ACCOUNT_PATH", "GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_REFRESH_TOKEN", "GOOGLE_TOKEN_FILE"} {
		t.Setenv(name, "")
	}

	t.Run("nothing configured", func(t *testing.T) {
		cfg := LoadGoogleConfig(newViper(nil))
		assert.False(t, cfg.Configured())
	})

	t.Run("environment fallback", func(t *testing.T) {
		t.Setenv("GOOGLE_CLIENT_ID", "client")
		t.Setenv("GOOGLE_CLIENT_SECRET", "secret")

		cfg := LoadGoogleConfig(newViper(map[string]any{"google.refresh_token": "refresh"}))
		assert.Equal(t, "client", cfg.ClientID)
		assert.Equal(t, "secret", cfg.ClientSecret)
		assert.Equal(t, "refresh", cfg.RefreshToken)
		assert.Equal(t, DefaultTokenFile(), cfg.TokenFile)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("service account has no token file", func(t *testing.T) {
		cfg := LoadGoogleConfig(newViper(map[string]any{
			"google.service_account_path": "/keys/sa.json",
			"google.client_id":            "client",
		}))
		assert.Equal(t, "/keys/sa.json", cfg.ServiceAccountPath)
		assert.Empty(t, cfg.TokenFile)
	})
}
