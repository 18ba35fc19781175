package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	// .env is applied to the process environment before overrides are read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const envPrefix = "COLAB"

type Config struct {
	Env       string          `yaml:"env" envconfig:"ENV"`
	LogLevel  string          `yaml:"log_level" envconfig:"LOG_LEVEL"`
	API       APIConfig       `yaml:"api"`
	Server    ServerConfig    `yaml:"server"`
	Paginator PaginatorConfig `yaml:"paginator"`
	Session   SessionConfig   `yaml:"session"`
}

// APIConfig points the client at the question API.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url" envconfig:"BASE_URL"`
	Timeout   time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	UserAgent string        `yaml:"user_agent" envconfig:"USER_AGENT"`
}

// ServerConfig is used by the fake API server in demo mode.
type ServerConfig struct {
	Port      string        `yaml:"port" envconfig:"PORT"`
	JWTSecret string        `yaml:"jwt_secret" envconfig:"JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" envconfig:"TOKEN_TTL"`
}

type PaginatorConfig struct {
	PageSize int   `yaml:"page_size" envconfig:"PAGE_SIZE"`
	GroupID  int64 `yaml:"group_id" envconfig:"GROUP_ID"`
}

// SessionConfig holds the bearer token of the logged-in user, if any.
type SessionConfig struct {
	Token string `yaml:"token" envconfig:"TOKEN"`
}

func Default() *Config {
	return &Config{
		Env:      "development",
		LogLevel: "info",
		API: APIConfig{
			BaseURL:   "http://localhost:8080",
			Timeout:   10 * time.Second,
			UserAgent: "colab-cli",
		},
		Server: ServerConfig{
			Port:      "8080",
			JWTSecret: "colab-demo-secret-change-me-0123456789",
			TokenTTL:  24 * time.Hour,
		},
		Paginator: PaginatorConfig{
			PageSize: 10,
		},
	}
}

// Load reads the YAML file at path on top of the defaults and then applies
// COLAB_* environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Env] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, production, test)", c.Env)
	}
	if c.Paginator.PageSize < 1 {
		return fmt.Errorf("paginator.page_size must be at least 1")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api.base_url: %q", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must be non-negative")
	}
	if len(c.Server.JWTSecret) < 32 {
		return fmt.Errorf("server.jwt_secret must be at least 32 characters")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// GroupID returns the configured group, or nil when listing across groups.
func (c *Config) GroupID() *int64 {
	if c.Paginator.GroupID == 0 {
		return nil
	}
	id := c.Paginator.GroupID
	return &id
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Env=%s, LogLevel=%s, API.BaseURL=%s, API.Timeout=%s, Server.Port=%s, Paginator.PageSize=%d, Paginator.GroupID=%d, Session=%t}",
		c.Env, c.LogLevel, c.API.BaseURL, c.API.Timeout, c.Server.Port,
		c.Paginator.PageSize, c.Paginator.GroupID, c.Session.Token != "")
}
