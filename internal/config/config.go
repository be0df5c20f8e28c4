package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// DatabaseURL is checked when a pool is opened, not here, so commands
	// that never touch the database run without it.
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`
	DBMinConns  int32  `envconfig:"NF_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"NF_DB_MAX_CONNS" default:"8"`

	LLMEndpoint string `envconfig:"LLM_ENDPOINT" default:""`
	LLMAPIKey   string `envconfig:"LLM_API_KEY" default:""`
	LLMModel    string `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`

	FetchTimeoutSeconds int   `envconfig:"FETCH_TIMEOUT_SECONDS" default:"20"`
	FetchMaxBodyBytes   int64 `envconfig:"FETCH_MAX_BODY_BYTES" default:"4194304"`
	SummaryRetries      int   `envconfig:"SUMMARY_RETRIES" default:"2"`

	// ContentSections optionally overrides the built-in summary layout.
	// JSON array of {"title": "...", "aliases": ["...", ...]} objects.
	ContentSections string `envconfig:"CONTENT_SECTIONS" default:""`

	HTTPAddr           string `envconfig:"HTTP_ADDR" default:":8080"`
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBMinConns < 0 {
		return fmt.Errorf("NF_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("NF_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("NF_DB_MIN_CONNS (%d) cannot exceed NF_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.FetchTimeoutSeconds < 1 {
		return fmt.Errorf("FETCH_TIMEOUT_SECONDS must be >= 1")
	}
	if c.FetchMaxBodyBytes < 1024 {
		return fmt.Errorf("FETCH_MAX_BODY_BYTES must be >= 1024")
	}
	if c.SummaryRetries < 0 {
		return fmt.Errorf("SUMMARY_RETRIES must be >= 0")
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	if raw := strings.TrimSpace(c.ContentSections); raw != "" {
		var probe []struct {
			Title   string   `json:"title"`
			Aliases []string `json:"aliases"`
		}
		if err := json.Unmarshal([]byte(raw), &probe); err != nil {
			return fmt.Errorf("CONTENT_SECTIONS must be a JSON array of sections: %w", err)
		}
	}
	return nil
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	return origins
}
