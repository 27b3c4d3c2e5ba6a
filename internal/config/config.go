package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/google"
	"github.com/Veraticus/textami/internal/llm"
)

// Storage backends.
const (
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
	BackendDrive  = "drive"
)

// Config is the complete application configuration.
type Config struct {
	LLM        llm.Config
	Google     google.Config
	Storage    StorageConfig
	Server     ServerConfig
	Generation GenerationConfig
	Analysis   AnalysisConfig
	Mapping    MappingConfig
}

// AnalysisConfig controls column analysis.
type AnalysisConfig struct {
	SampleSize int
}

// MappingConfig controls the mapping engine and module mapping validation.
type MappingConfig struct {
	CorrectionAttempts int
	MinSelectionLength int
}

// GenerationConfig controls batch generation.
type GenerationConfig struct {
	FilePrefix string
	BatchSize  int
	Workers    int
}

// StorageConfig selects where generated documents go.
type StorageConfig struct {
	Backend       string
	Dir           string
	SQLitePath    string
	DriveFolderID string
}

// ServerConfig controls `textami serve`.
type ServerConfig struct {
	Addr string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", "1s")
	v.SetDefault("llm.cache_ttl", "15m")
	v.SetDefault("llm.rate_limit", 60)
	v.SetDefault("llm.timeout", "60s")

	v.SetDefault("analysis.sample_size", 5)
	v.SetDefault("mapping.correction_attempts", 1)
	v.SetDefault("mapping.min_selection_length", 3)

	v.SetDefault("generation.batch_size", 50)
	v.SetDefault("generation.workers", 4)
	v.SetDefault("generation.file_prefix", "document")

	v.SetDefault("storage.backend", BackendFS)
	v.SetDefault("storage.dir", "output")
	v.SetDefault("storage.sqlite_path", filepath.Join(Dir(), "documents.db"))

	v.SetDefault("server.addr", ":8080")
}

// Load reads the configuration from v and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		LLM:    LoadLLMConfig(v),
		Google: LoadGoogleConfig(v),
		Analysis: AnalysisConfig{
			SampleSize: v.GetInt("analysis.sample_size"),
		},
		Mapping: MappingConfig{
			CorrectionAttempts: v.GetInt("mapping.correction_attempts"),
			MinSelectionLength: v.GetInt("mapping.min_selection_length"),
		},
		Generation: GenerationConfig{
			BatchSize:  v.GetInt("generation.batch_size"),
			Workers:    v.GetInt("generation.workers"),
			FilePrefix: v.GetString("generation.file_prefix"),
		},
		Storage: StorageConfig{
			Backend:       strings.ToLower(v.GetString("storage.backend")),
			Dir:           ExpandPath(v.GetString("storage.dir")),
			SQLitePath:    ExpandPath(v.GetString("storage.sqlite_path")),
			DriveFolderID: v.GetString("storage.drive_folder_id"),
		},
		Server: ServerConfig{
			Addr: v.GetString("server.addr"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFS:
		if c.Storage.Dir == "" {
			return fmt.Errorf("%w: storage.dir is required for the fs backend", common.ErrMissingConfig)
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("%w: storage.sqlite_path is required for the sqlite backend", common.ErrMissingConfig)
		}
	case BackendDrive:
	default:
		return fmt.Errorf("%w: unknown storage backend %q", common.ErrInvalidConfig, c.Storage.Backend)
	}

	if c.Generation.Workers < 1 {
		return fmt.Errorf("%w: generation.workers must be at least 1", common.ErrInvalidConfig)
	}
	if c.Generation.BatchSize < 1 {
		return fmt.Errorf("%w: generation.batch_size must be at least 1", common.ErrInvalidConfig)
	}
	if c.Analysis.SampleSize < 1 {
		return fmt.Errorf("%w: analysis.sample_size must be at least 1", common.ErrInvalidConfig)
	}
	if c.Mapping.CorrectionAttempts < 0 {
		return fmt.Errorf("%w: mapping.correction_attempts cannot be negative", common.ErrInvalidConfig)
	}

	switch c.LLM.Provider {
	case "", "openai", "anthropic", "gemini", "google":
	default:
		return fmt.Errorf("%w: unsupported llm.provider %q", common.ErrInvalidConfig, c.LLM.Provider)
	}
	return nil
}

// apiKeyEnv lists the provider-specific variables consulted when llm.api_key
// is not set.
var apiKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
	"google":    "GEMINI_API_KEY",
}

// LoadLLMConfig reads the llm section. The API key comes from llm.api_key,
// then llm.<provider>_api_key, then the provider's conventional variable.
// An empty provider means no semantic inference.
func LoadLLMConfig(v *viper.Viper) llm.Config {
	provider := strings.ToLower(v.GetString("llm.provider"))

	cfg := llm.Config{
		Provider:    provider,
		Model:       v.GetString("llm.model"),
		BaseURL:     v.GetString("llm.base_url"),
		Temperature: v.GetFloat64("llm.temperature"),
		MaxTokens:   v.GetInt("llm.max_tokens"),
		MaxRetries:  v.GetInt("llm.max_retries"),
		RetryDelay:  v.GetDuration("llm.retry_delay"),
		CacheTTL:    v.GetDuration("llm.cache_ttl"),
		RateLimit:   v.GetInt("llm.rate_limit"),
		Timeout:     v.GetDuration("llm.timeout"),
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	cfg.APIKey = v.GetString("llm.api_key")
	if cfg.APIKey == "" && provider != "" {
		cfg.APIKey = v.GetString("llm." + provider + "_api_key")
	}
	if cfg.APIKey == "" {
		if name, ok := apiKeyEnv[provider]; ok {
			cfg.APIKey = os.Getenv(name)
		}
	}
	return cfg
}

// LoadGoogleConfig reads the google section with GOOGLE_* variables as
// fallbacks. OAuth2 clients default to a token file under the config directory
// so that `textami auth` and later commands agree on where the token lives.
func LoadGoogleConfig(v *viper.Viper) google.Config {
	pick := func(key, env string) string {
		if s := v.GetString(key); s != "" {
			return s
		}
		return os.Getenv(env)
	}

	cfg := google.Config{
		ServiceAccountPath: ExpandPath(pick("google.service_account_path", "GOOGLE_SERVICE_ACCOUNT_PATH")),
		ClientID:           pick("google.client_id", "GOOGLE_CLIENT_ID"),
		ClientSecret:       pick("google.client_secret", "GOOGLE_CLIENT_SECRET"),
		RefreshToken:       pick("google.refresh_token", "GOOGLE_REFRESH_TOKEN"),
		TokenFile:          ExpandPath(pick("google.token_file", "GOOGLE_TOKEN_FILE")),
	}
	if cfg.TokenFile == "" && cfg.ClientID != "" && cfg.ServiceAccountPath == "" {
		cfg.TokenFile = DefaultTokenFile()
	}
	return cfg
}
