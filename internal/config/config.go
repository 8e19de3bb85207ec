// Package config loads process-wide settings once at startup: credentials
// and the authorized principal from the environment, tunables from an
// optional YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything the process needs. Credentials come from the
// environment only; the YAML file may override tunables.
type Config struct {
	TelegramToken    string
	NotionKey        string
	DatabaseID       string
	GeminiKey        string
	AuthorizedUserID int64

	Model  ModelConfig  `yaml:"model"`
	Notion NotionConfig `yaml:"notion"`
}

// ModelConfig tunes the language-model client.
type ModelConfig struct {
	Name          string `yaml:"name"`
	MaxConcurrent int64  `yaml:"max_concurrent"`
}

// NotionConfig tunes the store client.
type NotionConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// Required environment variable names.
const (
	EnvTelegramToken = "TELEGRAM_TOKEN"
	EnvNotionKey     = "NOTION_KEY"
	EnvDatabaseID    = "DATABASE_ID"
	EnvGeminiKey     = "GEMINI_KEY"
	EnvTelegramUser  = "TELEGRAM_USERID"
)

// Load reads a .env file when present, then the environment, then the
// optional YAML file at path ("" skips it).
func Load(path string) (*Config, error) {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := &Config{
		Model: ModelConfig{
			Name:          "gemini-2.5-flash",
			MaxConcurrent: 4,
		},
		Notion: NotionConfig{
			Timeout: "30s",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.TelegramToken = os.Getenv(EnvTelegramToken)
	cfg.NotionKey = os.Getenv(EnvNotionKey)
	cfg.DatabaseID = os.Getenv(EnvDatabaseID)
	cfg.GeminiKey = os.Getenv(EnvGeminiKey)

	if raw := os.Getenv(EnvTelegramUser); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be an integer, got %q", EnvTelegramUser, raw)
		}
		cfg.AuthorizedUserID = id
	}

	return cfg, nil
}

// Validate reports every missing required setting in one error, not just the
// first.
func (c *Config) Validate() error {
	var missing []string
	if c.TelegramToken == "" {
		missing = append(missing, EnvTelegramToken)
	}
	if c.NotionKey == "" {
		missing = append(missing, EnvNotionKey)
	}
	if c.DatabaseID == "" {
		missing = append(missing, EnvDatabaseID)
	}
	if c.GeminiKey == "" {
		missing = append(missing, EnvGeminiKey)
	}
	if c.AuthorizedUserID == 0 {
		missing = append(missing, EnvTelegramUser)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// NotionTimeout parses the configured store timeout, falling back to 30s.
func (c *Config) NotionTimeout() time.Duration {
	d, err := time.ParseDuration(c.Notion.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
