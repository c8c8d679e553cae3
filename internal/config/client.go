package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ClientConfig configures the terminal client.
type ClientConfig struct {
	ServerURL      string
	PlayerColor    string
	RequestTimeout time.Duration
	LogLevel       string
}

// LoadClient reads client settings from .env and the environment.
func LoadClient() (ClientConfig, error) {
	_ = godotenv.Load()

	cfg := ClientConfig{
		ServerURL:      strings.TrimRight(envOr("SERVER_URL", "http://localhost:8080"), "/"),
		PlayerColor:    strings.ToLower(envOr("PLAYER_COLOR", "white")),
		RequestTimeout: time.Duration(envIntOr("REQUEST_TIMEOUT_SEC", 30)) * time.Second,
		LogLevel:       envOr("LOG_LEVEL", "WARN"),
	}
	return cfg, cfg.Validate()
}

// Validate reports the first invalid client setting.
func (c ClientConfig) Validate() error {
	if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		return fmt.Errorf("SERVER_URL must be an http(s) URL, got %q", c.ServerURL)
	}
	switch c.PlayerColor {
	case "white", "black", "random":
	default:
		return fmt.Errorf("PLAYER_COLOR must be white, black or random, got %q", c.PlayerColor)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SEC must be positive")
	}
	return nil
}
