// Package config loads the service configuration from a YAML file with
// environment variable overrides for the secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server struct {
		Port        int `yaml:"port"`
		MetricsPort int `yaml:"metrics_port"`
	} `yaml:"server"`

	Database struct {
		Dialect string `yaml:"dialect"`
		DSN     string `yaml:"dsn"`
	} `yaml:"database"`

	OpenAI struct {
		APIKey              string `yaml:"api_key"`
		Model               string `yaml:"model"`
		EmbeddingModel      string `yaml:"embedding_model"`
		EmbeddingDimensions int    `yaml:"embedding_dimensions"`
	} `yaml:"openai"`

	Weather struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		City    string `yaml:"city"`
	} `yaml:"weather"`

	Chat struct {
		SessionTTLMinutes int `yaml:"session_ttl_minutes"`
	} `yaml:"chat"`
}

// Load reads the config file, applies defaults and environment overrides.
// The file may be absent; defaults and environment variables then carry the
// whole configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Server.MetricsPort = 9090
	cfg.Database.Dialect = "sqlite3"
	cfg.Database.DSN = "qrmenu.db"
	cfg.OpenAI.Model = "gpt-4-turbo-preview"
	cfg.OpenAI.EmbeddingModel = "text-embedding-3-small"
	cfg.OpenAI.EmbeddingDimensions = 1536
	cfg.Weather.BaseURL = "https://api.openweathermap.org/data/2.5"
	cfg.Chat.SessionTTLMinutes = 30

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// config file optional
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DIALECT"); v != "" {
		cfg.Database.Dialect = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_EMBEDDING_MODEL"); v != "" {
		cfg.OpenAI.EmbeddingModel = v
	}
	if v := os.Getenv("WEATHER_API_KEY"); v != "" {
		cfg.Weather.APIKey = v
	}
}

// SessionTTL returns the chat session inactivity window as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Chat.SessionTTLMinutes) * time.Minute
}
