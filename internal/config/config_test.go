package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, data map[string]any) Backend {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatal(err)
	}
	return newFileBackend(path)
}

func TestDefaults(t *testing.T) {
	cfg, err := loadWith(newFileBackend(filepath.Join(t.TempDir(), "missing.json")))
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Ollama.BaseURL != "http://localhost:11434" {
		t.Errorf("base url = %q", cfg.Ollama.BaseURL)
	}
	if cfg.Ollama.ChatModel != "mistral" || cfg.Ollama.TunedModel != "ki-wellness-mistral" {
		t.Errorf("models = %q / %q", cfg.Ollama.ChatModel, cfg.Ollama.TunedModel)
	}
	if len(cfg.Auth.APIKeys) != 1 || cfg.Auth.APIKeys[0] != DevAPIKey {
		t.Errorf("api keys = %v, want dev default", cfg.Auth.APIKeys)
	}
	if cfg.Prompt.MaxChars != 1000 {
		t.Errorf("prompt max chars = %d, want 1000", cfg.Prompt.MaxChars)
	}
}

func TestFileBackendOverridesDefaults(t *testing.T) {
	b := writeConfigFile(t, map[string]any{
		"server.port":       8080,
		"ollama.chat_model": "llama3",
		"log.level":         "debug",
	})

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Ollama.ChatModel != "llama3" {
		t.Errorf("chat model = %q, want llama3", cfg.Ollama.ChatModel)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Log.Level)
	}
	// Untouched keys keep their defaults.
	if cfg.Ollama.TunedModel != "ki-wellness-mistral" {
		t.Errorf("tuned model = %q", cfg.Ollama.TunedModel)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	b := writeConfigFile(t, map[string]any{"server.port": 8080})
	t.Setenv("COACH_SERVER_PORT", "9090")

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want env override 9090", cfg.Server.Port)
	}
}

func TestAPIKeysFromEnv(t *testing.T) {
	t.Setenv("COACH_API_KEYS", "key-one, key-two,,key-three")

	cfg, err := loadWith(newFileBackend(filepath.Join(t.TempDir(), "missing.json")))
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	want := []string{"key-one", "key-two", "key-three"}
	if len(cfg.Auth.APIKeys) != len(want) {
		t.Fatalf("keys = %v, want %v", cfg.Auth.APIKeys, want)
	}
	for i, k := range want {
		if cfg.Auth.APIKeys[i] != k {
			t.Errorf("keys[%d] = %q, want %q", i, cfg.Auth.APIKeys[i], k)
		}
	}
}

func TestInvalidIntEnvKeepsDefault(t *testing.T) {
	t.Setenv("COACH_SERVER_PORT", "not-a-number")

	cfg, err := loadWith(newFileBackend(filepath.Join(t.TempDir(), "missing.json")))
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("port = %d, want default 5000", cfg.Server.Port)
	}
}

func TestFileBackendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	b := newFileBackend(path)

	if err := b.SetString("ollama.base_url", "http://example:11434"); err != nil {
		t.Fatalf("SetString: %v", err)
	}
	if err := b.SetInt("server.port", 7070); err != nil {
		t.Fatalf("SetInt: %v", err)
	}

	// Reload from disk.
	b2 := newFileBackend(path)
	s, ok, err := b2.GetString("ollama.base_url")
	if err != nil || !ok || s != "http://example:11434" {
		t.Errorf("GetString = %q, %v, %v", s, ok, err)
	}
	i, ok, err := b2.GetInt("server.port")
	if err != nil || !ok || i != 7070 {
		t.Errorf("GetInt = %d, %v, %v", i, ok, err)
	}

	if err := b2.Delete("server.port"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := newFileBackend(path).GetInt("server.port"); ok {
		t.Error("deleted key still present after reload")
	}
}

func TestShowAllHidesSecrets(t *testing.T) {
	cfg := defaults()
	for _, info := range ShowAll(cfg) {
		if info.Key == "auth.api_keys" {
			t.Error("secret key exposed by ShowAll")
		}
	}
}

func TestSetKeyRejectsUnknownAndSecret(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if err := SetKey("nope.nothing", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
	if err := SetKey("auth.api_keys", "x"); err == nil {
		t.Error("expected error for secret key")
	}
	if err := SetKey("ollama.chat_model", "llama3"); err != nil {
		t.Errorf("SetKey valid: %v", err)
	}
}
