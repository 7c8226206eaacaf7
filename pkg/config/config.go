package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App       AppConfig                 `yaml:"app"`
	Auth      AuthConfig                `yaml:"auth"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Storage   StorageConfig             `yaml:"storage"`
	Engine    EngineConfig              `yaml:"engine"`
}

type AppConfig struct {
	Name string `yaml:"name"`
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type AuthConfig struct {
	// APIKey protects the report endpoints. Empty disables auth.
	APIKey string `yaml:"api_key"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url,omitempty"`
	Enabled bool   `yaml:"enabled"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type EngineConfig struct {
	// Workers bounds concurrent dispatch of independent sub-tasks.
	Workers int `yaml:"workers"`
	// ModelTimeoutSeconds is the per-call completion timeout.
	ModelTimeoutSeconds int `yaml:"model_timeout_seconds"`
}

// LoadConfig reads the YAML config file and applies environment overrides
// for secrets and deployment settings.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "vita"
	}
	if c.App.Host == "" {
		c.App.Host = "0.0.0.0"
	}
	if c.App.Port == 0 {
		c.App.Port = 8000
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "data/vita.sqlite"
	}
	if c.Engine.Workers == 0 {
		c.Engine.Workers = 4
	}
	if c.Engine.ModelTimeoutSeconds == 0 {
		c.Engine.ModelTimeoutSeconds = 30
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("API_KEY"); v != "" {
		c.Auth.APIKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.App.Port = port
		}
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.Storage.Path = v
	}
	for name, p := range c.Providers {
		if v := os.Getenv("OPENROUTER_API_KEY"); v != "" && p.APIKey == "" {
			p.APIKey = v
		}
		if v := os.Getenv("DEFAULT_MODEL"); v != "" {
			p.Model = v
		}
		c.Providers[name] = p
	}
}

// GetDefaultProvider returns the first enabled provider
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	for name, p := range c.Providers {
		if p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}
