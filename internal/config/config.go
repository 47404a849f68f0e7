// Package config loads service configuration from a JSON file backend,
// an optional .env file, and COACH_* environment variables, in that
// order of precedence (later wins).
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// DevAPIKey is the development key accepted when no keys are configured.
// Deployments must set COACH_API_KEYS.
const DevAPIKey = "ki-wellness-ai-service-key"

type Config struct {
	Server   ServerConfig
	Ollama   OllamaConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Training TrainingConfig
	Prompt   PromptConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port int
}

type OllamaConfig struct {
	BaseURL    string
	ChatModel  string
	TunedModel string
}

type StorageConfig struct {
	DataDir string
}

type AuthConfig struct {
	// APIKeys is the set of accepted keys, comma-separated in env/file form.
	APIKeys []string
}

type TrainingConfig struct {
	FilesDir string
}

type PromptConfig struct {
	MaxChars int
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 5000,
		},
		Ollama: OllamaConfig{
			BaseURL:    "http://localhost:11434",
			ChatModel:  "mistral",
			TunedModel: "ki-wellness-mistral",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Auth: AuthConfig{
			APIKeys: []string{DevAPIKey},
		},
		Training: TrainingConfig{
			FilesDir: "training_files",
		},
		Prompt: PromptConfig{
			MaxChars: 1000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file at
// $XDG_CONFIG_HOME/coach/config.json, then a .env file in the working
// directory if present, then COACH_* environment variables.
func Load() (Config, error) {
	// Missing .env is the normal case; only populate env from it when present.
	_ = godotenv.Load()
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()
	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "coach-data"
		}
	}
	return filepath.Join(dir, "coach")
}

func configFilePath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "coach", "config.json")
}

func splitKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
