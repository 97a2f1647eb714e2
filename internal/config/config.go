package config

import (
	"os"
	"time"
)

type Config struct {
	// NATS configuration
	NatsURL           string
	NatsChatSubject   string
	NatsActionSubject string
	NatsTimeout       time.Duration

	// LLM configuration
	LLMProvider string
	LLMAPIKey   string
	LLMModel    string
	LLMTimeout  time.Duration

	// Session store configuration
	RedisURL   string
	SessionTTL time.Duration

	// Action catalog
	CatalogPath string

	// Service configuration
	ServiceName string
	DefaultMode string
}

func Load() *Config {
	return &Config{
		// NATS settings
		NatsURL:           getEnv("NATS_URL", "nats://localhost:4222"),
		NatsChatSubject:   getEnv("NATS_CHAT_SUBJECT", "opsbridge.chat"),
		NatsActionSubject: getEnv("NATS_ACTION_SUBJECT", "opsbridge.action"),
		NatsTimeout:       getDurationEnv("NATS_TIMEOUT", 30*time.Second),

		// LLM settings
		LLMProvider: getEnv("LLM_PROVIDER", "anthropic"),
		LLMAPIKey:   getEnv("LLM_API_KEY", ""),
		LLMModel:    getEnv("LLM_MODEL", "claude-3-5-sonnet-20241022"),
		LLMTimeout:  getDurationEnv("LLM_TIMEOUT", 30*time.Second),

		// Session settings
		RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379/0"),
		SessionTTL: getDurationEnv("SESSION_TTL", 30*time.Minute),

		// Catalog settings
		CatalogPath: getEnv("CATALOG_PATH", ""),

		// Service settings
		ServiceName: getEnv("SERVICE_NAME", "opsbridge"),
		DefaultMode: getEnv("DEFAULT_MODE", "hybrid"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
