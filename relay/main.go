package main

import (
	"flag"
	"fmt"
	"net/http"

	"github.com/jinzhu/configor"
	log "github.com/sirupsen/logrus"
)

// RelayConfig carries the relay's configuration, loaded from an optional
// config file with environment variables taking precedence.
type RelayConfig struct {
	Port         int    `yaml:"port" default:"5500" env:"PORT"`
	BaseURL      string `yaml:"base_url" env:"BASE_URL"`
	HomeURL      string `yaml:"home_url" default:"https://put.io" env:"HOME_URL"`
	ClientID     string `yaml:"client_id" required:"true" env:"PUTIO_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" required:"true" env:"PUTIO_CLIENT_SECRET"`
	APIBase      string `yaml:"api_base" default:"https://api.put.io/v2" env:"PUTIO_API_BASE"`
	// Seconds a stored token stays retrievable.
	TokenTTL int  `yaml:"token_ttl" default:"300" env:"TOKEN_TTL"`
	Debug    bool `yaml:"debug" env:"DEBUG"`
}

func main() {
	configFilePath := flag.String("configfile", "", "Configuration File Path")
	flag.Parse()

	var relayConfig RelayConfig
	var configErr error
	if *configFilePath != "" {
		configErr = configor.Load(&relayConfig, *configFilePath)
	} else {
		configErr = configor.Load(&relayConfig)
	}
	if configErr != nil {
		log.Fatal(fmt.Sprintf("Config error: %s", configErr))
	}

	if relayConfig.BaseURL == "" {
		relayConfig.BaseURL = fmt.Sprintf("http://127.0.0.1:%d", relayConfig.Port)
	}
	if relayConfig.Debug {
		log.SetLevel(log.DebugLevel)
	}

	server := NewServer(relayConfig)
	addr := fmt.Sprintf(":%d", relayConfig.Port)
	log.Info(fmt.Sprintf("Relay listening on %s (base URL %s)", addr, relayConfig.BaseURL))
	log.Fatal(http.ListenAndServe(addr, server.Routes()))
}
