// Package config provides environment configuration for the API server.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// NATS settings (session cache)
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// Session store
	SessionTTL    time.Duration
	SessionMaxLen int

	// JWT settings (optional tenant claim extraction)
	JWTSecret string

	// API key guarding vector index mutations
	VectorAPIKey string

	// LLM settings
	AnthropicAPIKey string
	OpenAIAPIKey    string
	DefaultModel    string

	// Knowledge index
	WeaviateURL string
	RetrievalK  int

	// Tenant data layout
	DataDir string

	// Redaction
	SensitiveFields []string
	RedactMaxBody   int

	// Suggestion pipeline
	SuggestWorkers     int
	SuggestGenTimeout  time.Duration
	SuggestStreamLimit time.Duration

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

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
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// NATS
		NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// Sessions
		SessionTTL:    getDurationEnv("SESSION_TTL", 30*time.Minute),
		SessionMaxLen: getIntEnv("SESSION_MAXLEN", 5),

		// Auth
		JWTSecret:    getEnv("JWT_SECRET", ""),
		VectorAPIKey: getEnv("VECTOR_API_KEY", "test"),

		// LLM
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		DefaultModel:    getEnv("DEFAULT_MODEL", "gpt-4o-mini"),

		// Knowledge index
		WeaviateURL: getEnv("WEAVIATE_URL", "http://localhost:8081"),
		RetrievalK:  getIntEnv("RETRIEVAL_K", 2),

		// Tenant data
		DataDir: getEnv("DATA_DIR", "data"),

		// Redaction
		SensitiveFields: getListEnv("SENSITIVE_FIELDS"),
		RedactMaxBody:   getIntEnv("REDACT_MAX_BODY", 1<<20),

		// Suggestions
		SuggestWorkers:     getIntEnv("SUGGEST_WORKERS", 2),
		SuggestGenTimeout:  getDurationEnv("SUGGEST_GEN_TIMEOUT", 10*time.Second),
		SuggestStreamLimit: getDurationEnv("SUGGEST_STREAM_LIMIT", 15*time.Second),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
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

func getListEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
