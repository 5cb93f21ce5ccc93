package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jinzhu/configor"
	homedir "github.com/mitchellh/go-homedir"
)

// AppConfig carries everything the CLI reads from its config file or the
// environment. Environment variables take precedence over file values.
type AppConfig struct {
	ClientID     string `yaml:"client_id" env:"PUTIO_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"PUTIO_CLIENT_SECRET"`
	RelayURL     string `yaml:"relay_url" default:"http://127.0.0.1:5500" env:"PUTIO_RELAY_URL"`
	AccessToken  string `yaml:"access_token" env:"PUTIO_ACCESS_TOKEN"`
	// OAuth polling budget and retry period, in seconds.
	PollTimeout int `yaml:"poll_timeout" default:"180" env:"PUTIO_POLL_TIMEOUT"`
	PollPeriod  int `yaml:"poll_period" default:"3" env:"PUTIO_POLL_PERIOD"`
}

func configDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".putsync"), nil
}

// LoadConfig loads ~/.putsync/config.yml when present, then falls back to
// the cached token file for the access token.
func LoadConfig() (AppConfig, error) {
	var appConfig AppConfig

	dir, err := configDir()
	if err != nil {
		return appConfig, err
	}

	configFile := filepath.Join(dir, "config.yml")
	if _, statErr := os.Stat(configFile); statErr == nil {
		err = configor.Load(&appConfig, configFile)
	} else {
		err = configor.Load(&appConfig)
	}
	if err != nil {
		return appConfig, err
	}

	if appConfig.AccessToken == "" {
		if cached, readErr := os.ReadFile(filepath.Join(dir, "token")); readErr == nil {
			appConfig.AccessToken = strings.TrimSpace(string(cached))
		}
	}

	return appConfig, nil
}

// SaveToken persists a verified access token to ~/.putsync/token.
func SaveToken(token string) error {
	dir, err := configDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "token"), []byte(token+"\n"), 0o600)
}
