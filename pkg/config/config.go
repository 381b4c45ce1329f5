package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	API  APIConfig  `json:"api"`
	Live LiveConfig `json:"live"`
	User UserConfig `json:"user"`
	Log  LogConfig  `json:"log"`
}

// APIConfig points at the REST surface (room directory, history pages,
// profile lookup).
type APIConfig struct {
	BaseURL        string `env:"PARLEY_API_BASE_URL"        json:"base_url"`
	PageSize       int    `env:"PARLEY_API_PAGE_SIZE"       json:"page_size"`
	TimeoutSeconds int    `env:"PARLEY_API_TIMEOUT_SECONDS" json:"timeout_seconds"`
}

// LiveConfig points at the room-scoped WebSocket endpoint.
type LiveConfig struct {
	URL                   string `env:"PARLEY_LIVE_URL"                     json:"url"`
	ConnectTimeoutSeconds int    `env:"PARLEY_LIVE_CONNECT_TIMEOUT_SECONDS" json:"connect_timeout_seconds"`
}

type UserConfig struct {
	ID   string `env:"PARLEY_USER_ID"   json:"id"`
	Name string `env:"PARLEY_USER_NAME" json:"name"`
}

type LogConfig struct {
	Level string `env:"PARLEY_LOG_LEVEL" json:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:8084/api/v1/chats",
			PageSize:       20,
			TimeoutSeconds: 10,
		},
		Live: LiveConfig{
			URL:                   "ws://localhost:8084/ws/chat",
			ConnectTimeoutSeconds: 10,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadConfig reads the JSON config at path, then applies PARLEY_*
// environment overrides. A missing file is not an error; defaults are
// returned so env-only setups work.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.Live.URL == "" {
		return errors.New("live.url is required")
	}
	if c.API.PageSize <= 0 {
		return fmt.Errorf("api.page_size must be positive, got %d", c.API.PageSize)
	}
	return nil
}

func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Live.ConnectTimeoutSeconds) * time.Second
}
