// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/parleylab/parley/internal/oracle"
	"github.com/parleylab/parley/internal/storage"
)

// Config represents the application configuration.
type Config struct {
	Defaults DefaultsConfig `yaml:"defaults"`
	Oracle   OracleConfig   `yaml:"oracle"`
	Storage  StorageConfig  `yaml:"storage"`
	Server   ServerConfig   `yaml:"server,omitempty"`
}

// DefaultsConfig holds default run settings.
type DefaultsConfig struct {
	MaxRounds   int    `yaml:"max_rounds"`
	PersonaA    string `yaml:"persona_a"`
	PersonaB    string `yaml:"persona_b"`
	Scenario    string `yaml:"scenario"`
	ScenarioDir string `yaml:"scenario_dir,omitempty"`
}

// OracleConfig holds LLM backend settings.
type OracleConfig struct {
	Provider   string        `yaml:"provider"`
	Model      string        `yaml:"model"`
	JudgeModel string        `yaml:"judge_model,omitempty"`
	APIKey     string        `yaml:"api_key,omitempty"`
	BaseURL    string        `yaml:"base_url,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	Backend       string `yaml:"backend"`
	MongoURI      string `yaml:"mongo_uri,omitempty"`
	MongoDatabase string `yaml:"mongo_database,omitempty"`
	SQLitePath    string `yaml:"sqlite_path,omitempty"`
}

// ServerConfig holds server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			MaxRounds: 10,
			PersonaA:  "none",
			PersonaB:  "none",
			Scenario:  "used_car",
		},
		Oracle: OracleConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			Timeout:  2 * time.Minute,
		},
		Storage: StorageConfig{
			Backend:       "sqlite",
			MongoDatabase: "parley",
			SQLitePath:    DefaultDBPath(),
		},
		Server: ServerConfig{
			Port: 8183,
		},
	}
}

// Load loads configuration from the default path, then applies any .env
// file in the working directory and process environment overrides.
func Load() (*Config, error) {
	cfg, err := LoadFrom(DefaultConfigPath())
	if err != nil {
		return nil, err
	}
	if env, err := LoadEnv(".env"); err == nil {
		ApplyEnvOverrides(cfg, env)
	}
	ApplyProcessEnv(cfg)
	return cfg, nil
}

// LoadFrom loads configuration from a specific path. A missing file is
// not an error; defaults are used.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	path := DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// CreateOracle builds the configured LLM backend.
func (c *Config) CreateOracle() (oracle.Oracle, error) {
	switch c.Oracle.Provider {
	case "openai", "":
		return oracle.NewOpenAI(oracle.OpenAIOptions{
			APIKey:  c.Oracle.APIKey,
			Model:   c.Oracle.Model,
			BaseURL: c.Oracle.BaseURL,
		}), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider: %s", c.Oracle.Provider)
	}
}

// CreateJudgeOracle builds the backend used for adjudication. It falls
// back to the main model when no judge model is configured.
func (c *Config) CreateJudgeOracle() (oracle.Oracle, error) {
	if c.Oracle.JudgeModel == "" || c.Oracle.JudgeModel == c.Oracle.Model {
		return c.CreateOracle()
	}
	switch c.Oracle.Provider {
	case "openai", "":
		return oracle.NewOpenAI(oracle.OpenAIOptions{
			APIKey:  c.Oracle.APIKey,
			Model:   c.Oracle.JudgeModel,
			BaseURL: c.Oracle.BaseURL,
		}), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider: %s", c.Oracle.Provider)
	}
}

// CreateStorage builds the configured persistence backend.
func (c *Config) CreateStorage() (storage.Storage, error) {
	switch c.Storage.Backend {
	case "mongo", "mongodb":
		if c.Storage.MongoURI == "" {
			return nil, fmt.Errorf("mongo backend requires a connection string")
		}
		return storage.NewMongo(c.Storage.MongoURI, c.Storage.MongoDatabase), nil
	case "sqlite", "":
		path := c.Storage.SQLitePath
		if path == "" {
			path = DefaultDBPath()
		}
		return storage.NewSQLite(path), nil
	case "memory":
		return storage.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".parley", "config.yaml")
}

// DefaultDBPath returns the default SQLite database location.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "parley.db"
	}
	return filepath.Join(home, ".parley", "parley.db")
}
