package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kKeyList
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "COACH_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "ollama.base_url", typ: kString, env: "COACH_OLLAMA_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.BaseURL },
	},
	{
		key: "ollama.chat_model", typ: kString, env: "COACH_OLLAMA_CHAT_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.ChatModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.ChatModel },
	},
	{
		key: "ollama.tuned_model", typ: kString, env: "COACH_OLLAMA_TUNED_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.TunedModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.TunedModel },
	},
	{
		key: "storage.data_dir", typ: kString, env: "COACH_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "auth.api_keys", typ: kKeyList, env: "COACH_API_KEYS",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Auth.APIKeys = v.([]string) },
		extract: func(cfg Config) any { return strings.Join(cfg.Auth.APIKeys, ",") },
	},
	{
		key: "training.files_dir", typ: kString, env: "COACH_TRAINING_FILES_DIR",
		apply:   func(cfg *Config, v any) { cfg.Training.FilesDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Training.FilesDir },
	},
	{
		key: "prompt.max_chars", typ: kInt, env: "COACH_PROMPT_MAX_CHARS",
		apply:   func(cfg *Config, v any) { cfg.Prompt.MaxChars = v.(int) },
		extract: func(cfg Config) any { return cfg.Prompt.MaxChars },
	},
	{
		key: "log.level", typ: kString, env: "COACH_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b Backend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kKeyList:
			if keys := splitKeys(raw); len(keys) > 0 {
				s.apply(cfg, keys)
			}
		}
	}
}
