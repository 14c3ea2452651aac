package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Gemini    GeminiConfig
	SerpAPI   SerpAPIConfig
	Retry     RetryConfig
	Offers    OffersConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// GeminiConfig holds generative-model API configuration
type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// SerpAPIConfig holds search upstream configuration
type SerpAPIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// RetryConfig holds retry/backoff tunables for upstream calls
type RetryConfig struct {
	MaxRetries int           `mapstructure:"max_retries"`
	MaxBackoff time.Duration `mapstructure:"max_backoff"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
}

// OffersConfig holds offer aggregation defaults
type OffersConfig struct {
	DefaultCount int    `mapstructure:"default_count"`
	Country      string `mapstructure:"country"`
	Language     string `mapstructure:"language"`
}

// RateLimitConfig holds inbound rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/aishopping/")

	// Environment variable settings (AISHOP_GEMINI_API_KEY -> gemini.api_key)
	v.SetEnvPrefix("AISHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional - env vars and defaults cover the rest
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Upstream defaults. Keys with no meaningful default are still registered
	// so AutomaticEnv surfaces them to Unmarshal.
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("serpapi.api_key", "")
	v.SetDefault("serpapi.base_url", "https://serpapi.com/search.json")

	// Retry defaults
	v.SetDefault("retry.max_retries", 5)
	v.SetDefault("retry.max_backoff", "20s")
	v.SetDefault("retry.base_delay", "1s")

	// Offer defaults
	v.SetDefault("offers.default_count", 20)
	v.SetDefault("offers.country", "us")
	v.SetDefault("offers.language", "en")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Gemini.APIKey == "" {
		return fmt.Errorf("Gemini API key is required (set AISHOP_GEMINI_API_KEY)")
	}
	if config.SerpAPI.APIKey == "" {
		return fmt.Errorf("SerpAPI API key is required (set AISHOP_SERPAPI_API_KEY)")
	}
	if config.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got: %d", config.Retry.MaxRetries)
	}
	if config.Offers.DefaultCount < 1 || config.Offers.DefaultCount > 100 {
		return fmt.Errorf("offers.default_count must be in [1,100], got: %d", config.Offers.DefaultCount)
	}
	return nil
}
