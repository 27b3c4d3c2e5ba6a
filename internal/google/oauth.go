package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/Veraticus/textami/internal/common"
)

// DefaultCallbackAddr is where the consent callback server listens.
const DefaultCallbackAddr = "localhost:8085"

const authTimeout = 5 * time.Minute

// InteractiveOptions configures the consent flow.
type InteractiveOptions struct {
	// Open is called with the consent URL, e.g. to print it or launch a browser.
	Open   func(url string)
	Logger *slog.Logger
	// Addr is the callback listen address.
	Addr    string
	Timeout time.Duration
}

// AuthenticateInteractive runs the OAuth2 consent flow with a local callback
// server and saves the token to cfg.TokenFile when set.
func AuthenticateInteractive(ctx context.Context, cfg Config, opts InteractiveOptions) (*oauth2.Token, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: google.client_id and google.client_secret are required", common.ErrMissingConfig)
	}
	logger := common.OrDefault(opts.Logger)
	if opts.Addr == "" {
		opts.Addr = DefaultCallbackAddr
	}
	if opts.Timeout <= 0 {
		opts.Timeout = authTimeout
	}

	listener, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	oauthConfig := cfg.oauthConfig()
	oauthConfig.RedirectURL = "http://" + listener.Addr().String() + "/callback"
	state := uuid.NewString()

	codeChan := make(chan string, 1)
	errorChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "invalid state", http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			select {
			case errorChan <- errors.New("no authorization code received"):
			default:
			}
			_, _ = fmt.Fprint(w, `<html><body><h1>Authentication Failed</h1><p>No authorization code received. Please try again.</p></body></html>`)
			return
		}
		select {
		case codeChan <- code:
		default:
		}
		_, _ = fmt.Fprint(w, `<html><body><h1>Authentication Successful!</h1><p>You can close this window and return to the terminal.</p></body></html>`)
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errorChan <- fmt.Errorf("callback server failed: %w", err):
			default:
			}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Error shutting down callback server", "error", err)
		}
	}()

	authURL := oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	logger.Info("Google authentication required")
	if opts.Open != nil {
		opts.Open(authURL)
	} else {
		logger.Info("Please visit this URL to authenticate", "url", authURL)
	}

	var authCode string
	select {
	case authCode = <-codeChan:
		logger.Info("Received authorization code")
	case err := <-errorChan:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(opts.Timeout):
		return nil, fmt.Errorf("authentication timeout - no response received within %s", opts.Timeout)
	}

	token, err := oauthConfig.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if cfg.TokenFile != "" {
		if err := SaveToken(cfg.TokenFile, token); err != nil {
			logger.Warn("Failed to save token to file", "error", err, "file", cfg.TokenFile)
		} else {
			logger.Info("Token saved successfully", "file", cfg.TokenFile)
		}
	}
	return token, nil
}
