package main

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/textami/internal/cli"
	"github.com/Veraticus/textami/internal/config"
	"github.com/Veraticus/textami/internal/google"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with external services",
	}
	cmd.AddCommand(authGoogleCmd())
	return cmd
}

func authGoogleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "google",
		Short: "Authorize access to Google Docs, Sheets and Drive",
		Long: `Run the OAuth2 consent flow for Google Docs, Sheets and Drive.

This command will:
1. Start a local callback server
2. Open your browser to authenticate with Google
3. Save the token to google.token_file

Service accounts (google.service_account_path) need no authorization step.`,
		RunE: runAuthGoogle,
	}

	cmd.Flags().String("client-id", "", "OAuth2 Client ID (overrides config)")
	cmd.Flags().String("client-secret", "", "OAuth2 Client Secret (overrides config)")
	cmd.Flags().String("callback", google.DefaultCallbackAddr, "local callback address")
	cmd.Flags().Bool("no-browser", false, "print the consent URL instead of opening a browser")

	return cmd
}

func runAuthGoogle(cmd *cobra.Command, _ []string) error {
	cfg := config.LoadGoogleConfig(viper.GetViper())
	if v, _ := cmd.Flags().GetString("client-id"); v != "" {
		cfg.ClientID = v
	}
	if v, _ := cmd.Flags().GetString("client-secret"); v != "" {
		cfg.ClientSecret = v
	}
	if cfg.TokenFile == "" {
		cfg.TokenFile = config.DefaultTokenFile()
	}
	cfg.RefreshToken = ""
	cfg.ServiceAccountPath = ""

	noBrowser, _ := cmd.Flags().GetBool("no-browser")
	addr, _ := cmd.Flags().GetString("callback")

	slog.Info("Starting Google authentication", "token_file", cfg.TokenFile)
	_, err := google.AuthenticateInteractive(cmd.Context(), cfg, google.InteractiveOptions{
		Addr: addr,
		Open: func(url string) {
			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatInfo("Open this URL to authorize textami:"))
			fmt.Fprintln(cmd.ErrOrStderr(), url)
			if !noBrowser {
				openBrowser(url)
			}
		},
	})
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess("Google token saved to "+cfg.TokenFile))
	return nil
}

func openBrowser(url string) {
	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start() //nolint:gosec
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start() //nolint:gosec
	case "darwin":
		err = exec.Command("open", url).Start() //nolint:gosec
	}
	if err != nil {
		slog.Debug("Failed to open browser", "error", err)
	}
}
