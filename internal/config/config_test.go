package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Defaults.MaxRounds != 10 {
		t.Errorf("wrong max rounds: %d", cfg.Defaults.MaxRounds)
	}
	if cfg.Defaults.Scenario != "used_car" {
		t.Errorf("wrong default scenario: %s", cfg.Defaults.Scenario)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("wrong default backend: %s", cfg.Storage.Backend)
	}
}

func TestLoadFrom(t *testing.T) {
	t.Run("MissingFileUsesDefaults", func(t *testing.T) {
		cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
		if err != nil {
			t.Fatalf("missing config should not error: %v", err)
		}
		if cfg.Defaults.MaxRounds != 10 {
			t.Errorf("defaults not applied: %+v", cfg.Defaults)
		}
	})

	t.Run("FileOverridesDefaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
defaults:
  max_rounds: 6
  persona_a: aggressive
oracle:
  model: gpt-4o
storage:
  backend: mongo
  mongo_uri: mongodb://localhost:27017
`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadFrom(path)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Defaults.MaxRounds != 6 {
			t.Errorf("max_rounds not overridden: %d", cfg.Defaults.MaxRounds)
		}
		if cfg.Defaults.PersonaA != "aggressive" {
			t.Errorf("persona_a not overridden: %s", cfg.Defaults.PersonaA)
		}
		if cfg.Defaults.PersonaB != "none" {
			t.Errorf("unset fields should keep defaults: %s", cfg.Defaults.PersonaB)
		}
		if cfg.Storage.Backend != "mongo" {
			t.Errorf("backend not overridden: %s", cfg.Storage.Backend)
		}
	})

	t.Run("InvalidYAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("defaults: ["), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadFrom(path); err == nil {
			t.Fatal("expected parse error")
		}
	})
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := `
# credentials
OPENAI_API_KEY=sk-test-123
LLM_MODEL="gpt-4o-mini"
DB_CONNECTION_STRING=mongodb://localhost:27017 # local
MAX_ROUNDS=8

INVALID LINE
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	env, err := LoadEnv(path)
	if err != nil {
		t.Fatal(err)
	}
	if env["OPENAI_API_KEY"] != "sk-test-123" {
		t.Errorf("wrong api key: %q", env["OPENAI_API_KEY"])
	}
	if env["LLM_MODEL"] != "gpt-4o-mini" {
		t.Errorf("quotes not stripped: %q", env["LLM_MODEL"])
	}
	if env["DB_CONNECTION_STRING"] != "mongodb://localhost:27017" {
		t.Errorf("inline comment not stripped: %q", env["DB_CONNECTION_STRING"])
	}
	if _, ok := env["INVALID"]; ok {
		t.Error("malformed line should be skipped")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()
	ApplyEnvOverrides(cfg, map[string]string{
		"OPENAI_API_KEY":       "sk-abc",
		"LLM_MODEL":            "gpt-4o",
		"LLM_TIMEOUT":          "30",
		"STORAGE_BACKEND":      "mongo",
		"DB_CONNECTION_STRING": "mongodb://db:27017",
		"DB_NAME":              "negotiations",
		"MAX_ROUNDS":           "4",
		"SERVER_PORT":          "9000",
	})

	if cfg.Oracle.APIKey != "sk-abc" || cfg.Oracle.Model != "gpt-4o" {
		t.Errorf("oracle overrides not applied: %+v", cfg.Oracle)
	}
	if cfg.Oracle.Timeout != 30*time.Second {
		t.Errorf("timeout not parsed: %v", cfg.Oracle.Timeout)
	}
	if cfg.Storage.Backend != "mongo" || cfg.Storage.MongoURI != "mongodb://db:27017" || cfg.Storage.MongoDatabase != "negotiations" {
		t.Errorf("storage overrides not applied: %+v", cfg.Storage)
	}
	if cfg.Defaults.MaxRounds != 4 {
		t.Errorf("max rounds not applied: %d", cfg.Defaults.MaxRounds)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port not applied: %d", cfg.Server.Port)
	}
}

func TestCreateStorage(t *testing.T) {
	t.Run("Memory", func(t *testing.T) {
		cfg := Default()
		cfg.Storage.Backend = "memory"
		if _, err := cfg.CreateStorage(); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("MongoWithoutURI", func(t *testing.T) {
		cfg := Default()
		cfg.Storage.Backend = "mongo"
		cfg.Storage.MongoURI = ""
		if _, err := cfg.CreateStorage(); err == nil {
			t.Fatal("expected error without connection string")
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		cfg := Default()
		cfg.Storage.Backend = "redis"
		if _, err := cfg.CreateStorage(); err == nil {
			t.Fatal("expected error for unknown backend")
		}
	})
}
