package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadEnv reads a .env file and returns a map of key-value pairs.
// It ignores comments (starting with #) and empty lines.
func LoadEnv(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	env := make(map[string]string)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove inline comments
		if idx := strings.Index(value, " #"); idx != -1 {
			value = strings.TrimSpace(value[:idx])
		}

		// Remove quotes if present
		if len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'')) {
			value = value[1 : len(value)-1]
		}

		env[key] = value
	}

	return env, scanner.Err()
}

// ApplyEnvOverrides updates the configuration from a key-value map.
func ApplyEnvOverrides(cfg *Config, env map[string]string) {
	if val, ok := env["OPENAI_API_KEY"]; ok {
		cfg.Oracle.APIKey = val
	}
	if val, ok := env["OPENAI_BASE_URL"]; ok {
		cfg.Oracle.BaseURL = val
	}
	if val, ok := env["LLM_MODEL"]; ok {
		cfg.Oracle.Model = val
	}
	if val, ok := env["JUDGE_MODEL"]; ok {
		cfg.Oracle.JudgeModel = val
	}
	if val, ok := env["LLM_TIMEOUT"]; ok {
		if seconds, err := strconv.Atoi(val); err == nil {
			cfg.Oracle.Timeout = time.Duration(seconds) * time.Second
		} else if duration, err := time.ParseDuration(val); err == nil {
			cfg.Oracle.Timeout = duration
		}
	}

	if val, ok := env["STORAGE_BACKEND"]; ok {
		cfg.Storage.Backend = val
	}
	if val, ok := env["DB_CONNECTION_STRING"]; ok {
		cfg.Storage.MongoURI = val
	}
	if val, ok := env["DB_NAME"]; ok {
		cfg.Storage.MongoDatabase = val
	}
	if val, ok := env["SQLITE_PATH"]; ok {
		cfg.Storage.SQLitePath = val
	}

	if val, ok := env["MAX_ROUNDS"]; ok {
		if rounds, err := strconv.Atoi(val); err == nil && rounds > 0 {
			cfg.Defaults.MaxRounds = rounds
		}
	}
	if val, ok := env["SERVER_PORT"]; ok {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = port
		}
	}
}

// ApplyProcessEnv applies overrides from the process environment.
func ApplyProcessEnv(cfg *Config) {
	keys := []string{
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "LLM_MODEL", "JUDGE_MODEL", "LLM_TIMEOUT",
		"STORAGE_BACKEND", "DB_CONNECTION_STRING", "DB_NAME", "SQLITE_PATH",
		"MAX_ROUNDS", "SERVER_PORT",
	}
	env := make(map[string]string)
	for _, key := range keys {
		if val, ok := os.LookupEnv(key); ok {
			env[key] = val
		}
	}
	ApplyEnvOverrides(cfg, env)
}
