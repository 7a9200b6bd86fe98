// Package config provides environment-driven configuration for the dlsim
// server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/croissant-tools/dlsim/internal/models"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Embedding provider names.
const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// Config holds all application configuration values.
type Config struct {
	ListenHost  string
	Port        string
	LogLevel    string
	LogFormat   string
	CORSOrigins []string

	EmbedProvider         string
	OllamaURL             string
	HeadlineModel         string
	DescriptionModel      string
	GeminiAPIKey          Secret
	GeminiHeadlineModel   string
	GeminiDescriptionModel string

	Defaults models.Params

	SimilarityWorkers int
	JobWorkers        int
	CacheSize         int
	RateLimitPerMin   int

	// DatabaseURL is optional; empty disables the archive store.
	DatabaseURL Secret
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		ListenHost: envOrDefault("LISTEN_HOST", "127.0.0.1"),
		Port:       envOrDefault("PORT", "8000"),
		LogLevel:   envOrDefault("LOG_LEVEL", "info"),
		LogFormat:  envOrDefault("LOG_FORMAT", "text"),

		EmbedProvider:          envOrDefault("EMBED_PROVIDER", ProviderOllama),
		OllamaURL:              envOrDefault("OLLAMA_URL", "http://localhost:11434"),
		HeadlineModel:          envOrDefault("EMBED_HEADLINE_MODEL", "all-minilm"),
		DescriptionModel:       envOrDefault("EMBED_DESCRIPTION_MODEL", "nomic-embed-text"),
		GeminiAPIKey:           Secret(envOrDefault("GEMINI_API_KEY", "")),
		GeminiHeadlineModel:    envOrDefault("GEMINI_HEADLINE_MODEL", "text-embedding-004"),
		GeminiDescriptionModel: envOrDefault("GEMINI_DESCRIPTION_MODEL", "gemini-embedding-001"),

		DatabaseURL: Secret(envOrDefault("DATABASE_URL", "")),
	}

	var err error
	if cfg.Defaults.Weights.Keyword, err = envFloat("DEFAULT_KEYWORD_WEIGHT", models.DefaultKeywordWeight); err != nil {
		return nil, err
	}
	if cfg.Defaults.Weights.Description, err = envFloat("DEFAULT_DESCRIPTION_WEIGHT", models.DefaultDescriptionWeight); err != nil {
		return nil, err
	}
	if cfg.Defaults.Weights.Headline, err = envFloat("DEFAULT_HEADLINE_WEIGHT", models.DefaultHeadlineWeight); err != nil {
		return nil, err
	}
	if cfg.Defaults.Threshold, err = envFloat("DEFAULT_THRESHOLD", models.DefaultThreshold); err != nil {
		return nil, err
	}

	if cfg.SimilarityWorkers, err = envInt("SIMILARITY_WORKERS", 4, 1, 32); err != nil {
		return nil, err
	}
	if cfg.JobWorkers, err = envInt("JOB_WORKERS", 2, 1, 16); err != nil {
		return nil, err
	}
	if cfg.CacheSize, err = envInt("CACHE_SIZE", 4096, 16, 1<<20); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMin, err = envInt("RATE_LIMIT_PER_MIN", 240, 1, 100_000); err != nil {
		return nil, err
	}

	origins := envOrDefault("CORS_ORIGINS", "*")
	cfg.CORSOrigins = strings.Split(origins, ",")
	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// ArchiveEnabled reports whether the optional Postgres archive is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.DatabaseURL.Value() != ""
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func envInt(key string, fallback, min, max int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", key, min, max)
	}

	return v, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", key)
	}

	return v, nil
}
