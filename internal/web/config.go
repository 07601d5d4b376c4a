package web

import (
	"github.com/itbi-consulta/internal/config"
)

// Config represents the web server configuration
type Config struct {
	Server   ServerConfig  `json:"server"`
	Auth     AuthConfig    `json:"auth"`
	Features FeatureConfig `json:"features"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// AuthConfig contains authentication settings
type AuthConfig struct {
	APIKey string `json:"-"`
}

// Enabled reports whether API routes require a key.
func (a AuthConfig) Enabled() bool { return a.APIKey != "" }

// FeatureConfig contains feature toggles
type FeatureConfig struct {
	ReportsEnabled bool `json:"reports_enabled"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Features: FeatureConfig{
			ReportsEnabled: true,
		},
	}
}

// ConfigFromSettings maps process settings onto the server configuration.
func ConfigFromSettings(s config.Settings) *Config {
	return &Config{
		Server:   ServerConfig{Port: s.WebPort, Host: s.WebHost},
		Auth:     AuthConfig{APIKey: s.APIKey},
		Features: FeatureConfig{ReportsEnabled: s.Reports},
	}
}
