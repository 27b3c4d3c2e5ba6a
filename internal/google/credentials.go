// Package google builds authenticated Google API clients for Docs, Sheets and Drive.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/textami/internal/common"
)

// DefaultScopes grant read access to templates and datasets and write access
// to files the application creates.
var DefaultScopes = []string{
	docs.DocumentsReadonlyScope,
	sheets.SpreadsheetsReadonlyScope,
	drive.DriveReadonlyScope,
	drive.DriveFileScope,
}

// Config holds Google credentials. A service account takes precedence over
// OAuth2; an OAuth2 refresh token takes precedence over a saved token file.
type Config struct {
	// Endpoint overrides the Google OAuth2 endpoint.
	Endpoint           oauth2.Endpoint
	ServiceAccountPath string
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	TokenFile          string
	Scopes             []string
}

// Configured reports whether any credential source is present.
func (c Config) Configured() bool {
	return c.ServiceAccountPath != "" || c.RefreshToken != "" || c.TokenFile != ""
}

// Validate checks that exactly one authentication method is usable.
func (c Config) Validate() error {
	hasOAuth := c.ClientID != "" && c.ClientSecret != ""
	hasServiceAccount := c.ServiceAccountPath != ""

	if !hasOAuth && !hasServiceAccount {
		return fmt.Errorf("%w: provide a service account path or OAuth2 client credentials", common.ErrMissingConfig)
	}
	if hasServiceAccount && c.RefreshToken != "" {
		return fmt.Errorf("%w: multiple authentication methods configured; use either OAuth2 or service account", common.ErrInvalidConfig)
	}
	if !hasServiceAccount && c.RefreshToken == "" && c.TokenFile == "" {
		return fmt.Errorf("%w: OAuth2 needs a refresh token or a token file; run `textami auth`", common.ErrMissingConfig)
	}
	return nil
}

func (c Config) scopes() []string {
	if len(c.Scopes) > 0 {
		return c.Scopes
	}
	return DefaultScopes
}

func (c Config) oauthConfig() *oauth2.Config {
	endpoint := c.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = googleoauth.Endpoint
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       c.scopes(),
	}
}

// TokenSource returns a refreshing token source for the configured credentials.
func TokenSource(ctx context.Context, cfg Config) (oauth2.TokenSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(cfg.ServiceAccountPath) // #nosec G304
		if err != nil {
			return nil, fmt.Errorf("%w: unable to read service account key file: %w", common.ErrInvalidConfig, err)
		}
		jwtConfig, err := googleoauth.JWTConfigFromJSON(jsonKey, cfg.scopes()...)
		if err != nil {
			return nil, fmt.Errorf("%w: unable to parse service account key: %w", common.ErrInvalidConfig, err)
		}
		return jwtConfig.TokenSource(ctx), nil
	}

	token := &oauth2.Token{RefreshToken: cfg.RefreshToken, TokenType: "Bearer"}
	if cfg.RefreshToken == "" {
		saved, err := LoadToken(cfg.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("%w: unable to load token file %s: %w", common.ErrMissingConfig, cfg.TokenFile, err)
		}
		token = saved
	}
	return cfg.oauthConfig().TokenSource(ctx, token), nil
}

// Clients bundles the Google API services the application uses.
type Clients struct {
	Docs   *docs.Service
	Sheets *sheets.Service
	Drive  *drive.Service
}

// NewClients creates Docs, Sheets and Drive services sharing one HTTP client.
func NewClients(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Clients, error) {
	ts, err := TokenSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewClientsWithHTTP(ctx, oauth2.NewClient(ctx, ts), opts...)
}

// NewClientsWithHTTP creates the services on an already authenticated client.
func NewClientsWithHTTP(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Clients, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)

	docsSvc, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create docs service: %w", err)
	}
	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}
	return &Clients{Docs: docsSvc, Sheets: sheetsSvc, Drive: driveSvc}, nil
}

// LoadToken loads a token from file.
func LoadToken(tokenFile string) (*oauth2.Token, error) {
	f, err := os.Open(tokenFile) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	token := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(token)
	return token, err
}

// SaveToken writes a token to file with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}
