package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Application settings
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Upstream UpstreamConfig
	Amazon   *AmazonConfig
	Walmart  *WalmartConfig
}

// Server settings
type ServerConfig struct {
	Port               string
	RequestTimeout     time.Duration
	RateLimitPerSecond float64
	RateLimitBurst     int
	CORSOrigin         string
}

// Settings shared by every platform client
type UpstreamConfig struct {
	RequestTimeout  time.Duration
	CacheTTL        time.Duration
	CacheMaxEntries int
	RateLimit       int
	RateWindow      time.Duration
}

type AmazonConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	ProfileID    string
	Region       string
	APIURL       string
	AuthURL      string
}

type WalmartConfig struct {
	ClientID     string
	ClientSecret string
	ChannelID    string
	Environment  string
	APIURL       string
	AuthURL      string
}

// Logging settings
type LoggingConfig struct {
	Level string
}

// Load reads the process environment, after merging an optional .env file (ENV_FILE overrides the path).
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			RequestTimeout:     getDurationEnv("HTTP_REQUEST_TIMEOUT", "60s"),
			RateLimitPerSecond: getFloatEnv("HTTP_RATE_LIMIT_PER_SECOND", 10),
			RateLimitBurst:     getIntEnv("HTTP_RATE_LIMIT_BURST", 20),
			CORSOrigin:         getEnv("FRONTEND_URL", ""),
		},
		Upstream: UpstreamConfig{
			RequestTimeout:  getDurationEnv("REQUEST_TIMEOUT", "30s"),
			CacheTTL:        getDurationEnv("CACHE_TTL", "300s"),
			CacheMaxEntries: getIntEnv("CACHE_MAX_ENTRIES", 1024),
			RateLimit:       getIntEnv("UPSTREAM_RATE_LIMIT", 100),
			RateWindow:      getDurationEnv("UPSTREAM_RATE_WINDOW", "60s"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	// a platform counts as configured only when both halves of its client credentials are present
	if os.Getenv("AMAZON_CLIENT_ID") != "" && os.Getenv("AMAZON_CLIENT_SECRET") != "" {
		config.Amazon = &AmazonConfig{
			ClientID:     os.Getenv("AMAZON_CLIENT_ID"),
			ClientSecret: os.Getenv("AMAZON_CLIENT_SECRET"),
			RefreshToken: getEnv("AMAZON_REFRESH_TOKEN", ""),
			ProfileID:    getEnv("AMAZON_PROFILE_ID", ""),
			Region:       getEnv("AMAZON_REGION", "na"),
			APIURL:       getEnv("AMAZON_API_URL", ""),
			AuthURL:      getEnv("AMAZON_AUTH_URL", ""),
		}
	}

	if os.Getenv("WALMART_CLIENT_ID") != "" && os.Getenv("WALMART_CLIENT_SECRET") != "" {
		config.Walmart = &WalmartConfig{
			ClientID:     os.Getenv("WALMART_CLIENT_ID"),
			ClientSecret: os.Getenv("WALMART_CLIENT_SECRET"),
			ChannelID:    getEnv("WALMART_CHANNEL_ID", ""),
			Environment:  getEnv("WALMART_ENVIRONMENT", "sandbox"),
			APIURL:       getEnv("WALMART_API_URL", ""),
			AuthURL:      getEnv("WALMART_AUTH_URL", ""),
		}
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getDurationEnv(key, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
