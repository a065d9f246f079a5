// Package config provides environment configuration for the chat server.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Auth settings
	MasterPasswordHash string
	JWTSecret          string
	SessionTTL         time.Duration
	LoginMaxAttempts   int
	LoginWindow        time.Duration

	// LLM settings
	GroqAPIKey      string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	LLMBaseURL      string
	ModelName       string
	Temperature     float64
	MaxOutputTokens int

	// Conversation window
	WindowSize       int
	DisplayWindow    int
	MessagesMaxChars int

	// File context
	FileContextMaxChars  int
	FileContextMaxTokens int
	MaxFileSizeMB        int

	// Database
	DBPath      string
	PurgeDBDays int

	// Request rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// NATS event feed (optional)
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 300*time.Second),

		// Auth
		MasterPasswordHash: getEnv("MASTER_PASSWORD_HASH", ""),
		JWTSecret:          getEnv("JWT_SECRET", "development-secret-change-in-production"),
		SessionTTL:         getDurationEnv("SESSION_TTL", 12*time.Hour),
		LoginMaxAttempts:   getIntEnv("LOGIN_MAX_ATTEMPTS", 5),
		LoginWindow:        getDurationEnv("LOGIN_WINDOW", 15*time.Minute),

		// LLM
		GroqAPIKey:      getEnv("GROQ_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		LLMBaseURL:      getEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
		ModelName:       getEnv("MODEL_NAME", "moonshotai/kimi-k2-instruct"),
		Temperature:     getFloatEnv("TEMPERATURE", 0.3),
		MaxOutputTokens: getIntEnv("MAX_OUTPUT_TOKENS", 4096),

		// Conversation window
		WindowSize:       getIntEnv("WINDOW_SIZE", 20),
		DisplayWindow:    getIntEnv("DISPLAY_WINDOW", 12),
		MessagesMaxChars: getIntEnv("MESSAGES_MAX_CHARS", 12000),

		// File context
		FileContextMaxChars:  getIntEnv("FILE_CONTEXT_MAX_CHARS", 8000),
		FileContextMaxTokens: getIntEnv("FILE_CONTEXT_MAX_TOKENS", 2000),
		MaxFileSizeMB:        getIntEnv("MAX_FILE_SIZE_MB", 5),

		// Database
		DBPath:      getEnv("DB_PATH", "data/chat_history.db"),
		PurgeDBDays: getIntEnv("PURGE_DB_DAYS", 30),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// NATS
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

// Validate checks the configuration the server cannot run without.
// Missing secrets are fatal at startup, not discovered mid-session.
func (c *Config) Validate() error {
	if c.MasterPasswordHash == "" {
		return errors.New("MASTER_PASSWORD_HASH is required")
	}
	if c.GroqAPIKey == "" && c.OpenAIAPIKey == "" && c.AnthropicAPIKey == "" {
		return errors.New("one of GROQ_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
