package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

func (c *Config) validate() error {
	if err := c.validateNetwork(); err != nil {
		return err
	}

	if err := c.validateCORS(); err != nil {
		return err
	}

	if err := c.validateEmbedding(); err != nil {
		return err
	}

	if err := c.validateDefaults(); err != nil {
		return err
	}

	return c.validateDatabase()
}

func (c *Config) validateNetwork() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid integer: %w", err)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error; got %q", c.LogLevel)
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be 'text' or 'json', got %q", c.LogFormat)
	}

	return nil
}

// validateCORS allows either the single wildcard entry or a list of concrete
// origins. Mixing "*" with other entries is ambiguous and rejected.
func (c *Config) validateCORS() error {
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			if len(c.CORSOrigins) != 1 {
				return fmt.Errorf("CORS_ORIGINS wildcard '*' must be the only entry")
			}

			return nil
		}

		if strings.ContainsAny(origin, "*?[]") {
			return fmt.Errorf("CORS_ORIGINS must not contain glob characters (*?[]), got %q", origin)
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CORS_ORIGINS contains invalid origin %q (must have scheme and host)", origin)
		}
	}

	return nil
}

func (c *Config) validateEmbedding() error {
	switch c.EmbedProvider {
	case ProviderOllama:
		u, err := url.ParseRequestURI(c.OllamaURL)
		if err != nil {
			return fmt.Errorf("OLLAMA_URL is not a valid URL: %w", err)
		}

		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("OLLAMA_URL must use http or https")
		}

		if c.HeadlineModel == "" || c.DescriptionModel == "" {
			return fmt.Errorf("EMBED_HEADLINE_MODEL and EMBED_DESCRIPTION_MODEL must not be empty")
		}
	case ProviderGemini:
		if c.GeminiAPIKey.Value() == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when EMBED_PROVIDER is gemini")
		}

		if c.GeminiHeadlineModel == "" || c.GeminiDescriptionModel == "" {
			return fmt.Errorf("GEMINI_HEADLINE_MODEL and GEMINI_DESCRIPTION_MODEL must not be empty")
		}
	default:
		return fmt.Errorf("EMBED_PROVIDER must be 'ollama' or 'gemini', got %q", c.EmbedProvider)
	}

	return nil
}

func (c *Config) validateDefaults() error {
	if err := c.Defaults.Validate(); err != nil {
		return fmt.Errorf("default similarity parameters: %w", err)
	}

	return nil
}

func (c *Config) validateDatabase() error {
	if c.DatabaseURL.Value() == "" {
		return nil // archive store disabled
	}

	dbURL, err := url.Parse(c.DatabaseURL.Value())
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}

	if dbURL.Scheme != "postgres" && dbURL.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL scheme must be postgres:// or postgresql://")
	}

	if dbURL.Hostname() == "" {
		return fmt.Errorf("DATABASE_URL must include a host")
	}

	dbHost := dbURL.Hostname()
	if dbHost != "localhost" && dbHost != "127.0.0.1" && dbHost != "::1" {
		if dbURL.Query().Get("sslmode") == "disable" {
			return fmt.Errorf("DATABASE_URL sslmode=disable is not allowed for non-local host %q", dbHost)
		}
	}

	return nil
}
