// Package config loads textami settings from viper and the environment.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// AppName names the configuration directory and the environment prefix.
const AppName = "textami"

// ExpandPath expands a leading ~ and $VAR references in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}

	return os.ExpandEnv(path)
}

// Dir returns $HOME/.config/textami, or a relative .textami when the home
// directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// DefaultTokenFile is where `textami auth google` saves the OAuth2 token when
// google.token_file is not set.
func DefaultTokenFile() string {
	return filepath.Join(Dir(), "google-token.json")
}
