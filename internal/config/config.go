package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Engine   EngineConfig
	Session  SessionConfig
	Database DatabaseConfig
	OpenAI   OpenAIConfig
	Gemini   GeminiConfig
}

type EngineConfig struct {
	URL     string        // base URL of the face-reenactment engine
	Timeout time.Duration // per-render round-trip budget
}

type SessionConfig struct {
	TTL time.Duration // idle editing sessions are reaped after this
}

type OpenAIConfig struct {
	Token string
}

type GeminiConfig struct {
	APIKey string
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL; empty disables edit history
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func Load() *Config {
	return &Config{
		Engine: EngineConfig{
			URL:     os.Getenv("ENGINE_URL"),
			Timeout: time.Duration(envInt("ENGINE_TIMEOUT_SECONDS", 60)) * time.Second,
		},
		Session: SessionConfig{
			TTL: time.Duration(envInt("SESSION_TTL_MINUTES", 30)) * time.Minute,
		},
		OpenAI: OpenAIConfig{
			Token: os.Getenv("OPENAI_TOKEN"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
	}
}
