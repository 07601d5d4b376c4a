package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings holds the process-level configuration read from the environment.
type Settings struct {
	StoreDriver  string
	StoreDSN     string
	DatasetsFile string
	WebHost      string
	WebPort      int
	RedisURL     string
	CacheTTL     time.Duration
	APIKey       string
	LogLevel     string
	Reports      bool

	// PushgatewayURL receives ingest metrics from the CLI when set.
	PushgatewayURL string
}

// FromEnv builds Settings from environment variables, applying defaults.
func FromEnv() Settings {
	return Settings{
		StoreDriver:  GetEnv("ITBI_STORE_DRIVER", "sqlite"),
		StoreDSN:     GetEnv("ITBI_STORE_DSN", "data/itbi.db"),
		DatasetsFile: GetEnv("ITBI_DATASETS", ""),
		WebHost:      GetEnv("WEB_HOST", "0.0.0.0"),
		WebPort:      GetEnvInt("WEB_PORT", 8080),
		RedisURL:     GetEnv("REDIS_URL", ""),
		CacheTTL:     time.Duration(GetEnvInt("CACHE_TTL_MINUTES", 60)) * time.Minute,
		APIKey:       GetEnv("API_KEY", ""),
		LogLevel:     GetEnv("LOG_LEVEL", "info"),
		Reports:      GetEnvBool("ENABLE_REPORTS", true),

		PushgatewayURL: GetEnv("PUSHGATEWAY_URL", ""),
	}
}

// LoadEnv loads environment variables from the first .env file found in the
// current directory or its two parents. Variables already set win.
func LoadEnv() error {
	envPaths := []string{".env", "../.env", "../../.env"}

	for _, envPath := range envPaths {
		data, err := os.ReadFile(envPath)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			key, value, ok := strings.Cut(line, "=")
			if !ok {
				continue
			}
			key = strings.TrimSpace(key)
			value = strings.Trim(strings.TrimSpace(value), `"'`)

			if os.Getenv(key) == "" {
				if err := os.Setenv(key, value); err != nil {
					return err
				}
			}
		}
		break
	}
	return nil
}

// GetEnv gets environment variable with default
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt gets integer environment variable with default
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvFloat gets float environment variable with default
func GetEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvBool gets boolean environment variable with default
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}
