package config

import (
	"os"
	"strconv"
	"time"

	"datachat/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	AI       AIConfig
	Server   ServerConfig
	Upload   UploadConfig
	Query    QueryConfig
	Cache    CacheConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// AIConfig holds LLM provider settings
type AIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// UploadConfig holds file upload limits and storage location
type UploadConfig struct {
	Dir           string
	MaxFileSize   int64
	MaxNameLength int
}

// QueryConfig holds query execution settings
type QueryConfig struct {
	ContextWindow   int
	MaxPromptLength int
}

// CacheConfig holds dataframe cache settings
type CacheConfig struct {
	Capacity int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.ConfigInvalid("OPENAI_API_KEY is required")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	config := &Config{
		Database: DatabaseConfig{
			URL: dbURL,
		},
		AI: AIConfig{
			APIKey:      apiKey,
			Model:       getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
			BaseURL:     getEnvOrDefault("LLM_BASE_URL", "https://api.openai.com/v1"),
			MaxTokens:   getEnvIntOrDefault("MAX_TOKENS", 4000),
			Temperature: getEnvFloatOrDefault("TEMPERATURE", 0.0),
			Timeout:     getEnvDurationOrDefault("LLM_TIMEOUT", 120*time.Second),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "debug"),
		},
		Upload: UploadConfig{
			Dir:           getEnvOrDefault("UPLOAD_DIR", "uploads/datasets"),
			MaxFileSize:   getEnvInt64OrDefault("MAX_UPLOAD_BYTES", 100*1024*1024),
			MaxNameLength: getEnvIntOrDefault("MAX_DATASET_NAME_LENGTH", 255),
		},
		Query: QueryConfig{
			ContextWindow:   getEnvIntOrDefault("CONTEXT_WINDOW", 10),
			MaxPromptLength: getEnvIntOrDefault("MAX_PROMPT_LENGTH", 2000),
		},
		Cache: CacheConfig{
			Capacity: getEnvIntOrDefault("DATAFRAME_CACHE_SIZE", 32),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Upload.MaxFileSize <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_BYTES must be positive")
	}
	if config.Cache.Capacity <= 0 {
		return errors.ConfigInvalid("DATAFRAME_CACHE_SIZE must be positive")
	}
	if config.Query.ContextWindow < 0 {
		return errors.ConfigInvalid("CONTEXT_WINDOW cannot be negative")
	}
	if config.Query.MaxPromptLength <= 0 {
		return errors.ConfigInvalid("MAX_PROMPT_LENGTH must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
