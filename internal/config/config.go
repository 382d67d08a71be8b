package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	LogLevel string `json:"log_level"`
	Timezone string `json:"timezone"`
	HTTP     struct {
		Listen string `json:"listen"`
	} `json:"http"`
	Events struct {
		DefaultTime            string `json:"default_time"`
		DefaultDurationMinutes int    `json:"default_duration_minutes"`
	} `json:"events"`
	Gemini struct {
		BaseURL          string `json:"base_url"`
		Model            string `json:"model"`
		MaxMessageTokens int    `json:"max_message_tokens"`
	} `json:"gemini"`
	Secrets struct {
		Source string `json:"source"` // "file" or "http"
		Path   string `json:"path"`
		URL    string `json:"url"`
		Token  string `json:"token"`
	} `json:"secrets"`
	GroupMe struct {
		BotID            string `json:"bot_id"`
		PostConfirmation bool   `json:"post_confirmation"`
	} `json:"groupme"`
	Telegram struct {
		Token string `json:"token"`
	} `json:"telegram"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LogLevel = "info"
	cfg.Timezone = "America/New_York"
	cfg.HTTP.Listen = ":8080"
	cfg.Events.DefaultTime = "18:00"
	cfg.Events.DefaultDurationMinutes = 60
	cfg.Gemini.Model = "gemini-2.5-flash"
	cfg.Gemini.MaxMessageTokens = 1000
	cfg.Secrets.Source = "file"
	cfg.Secrets.Path = filepath.Join(os.Getenv("HOME"), ".chatcal", "secrets.json")

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if secretsPath := os.Getenv("CHATCAL_SECRETS_PATH"); secretsPath != "" {
		cfg.Secrets.Source = "file"
		cfg.Secrets.Path = secretsPath
	}
	if secretsURL := os.Getenv("CHATCAL_SECRETS_URL"); secretsURL != "" {
		cfg.Secrets.Source = "http"
		cfg.Secrets.URL = secretsURL
	}
	if botID := os.Getenv("GROUPME_BOT_ID"); botID != "" {
		cfg.GroupMe.BotID = botID
	}
	if tgToken := os.Getenv("TELEGRAM_BOT_TOKEN"); tgToken != "" {
		cfg.Telegram.Token = tgToken
	}
	if baseURL := os.Getenv("GEMINI_BASE_URL"); baseURL != "" {
		cfg.Gemini.BaseURL = baseURL
	}

	return cfg, nil
}

// Save writes the config atomically, creating the directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// ListValues returns the config as a flat key/value map. When mask is true,
// secret values are redacted for display.
func ListValues(cfg *Config, mask bool) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var nested map[string]any
	if err := json.Unmarshal(data, &nested); err != nil {
		return nil, err
	}
	flat := Flatten(nested)
	if mask {
		flat = MaskSecrets(flat)
	}
	return flat, nil
}

// GetValue reads one dot-separated key from the config at path.
func GetValue(path, key string) (any, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	values, err := ListValues(cfg, IsSecretKey(key))
	if err != nil {
		return nil, err
	}
	val, ok := values[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key %q", key)
	}
	return val, nil
}

// SetValue updates one dot-separated key in the config at path.
func SetValue(path, key, value string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	values, err := ListValues(cfg, false)
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	values[key] = coerce(values[key], value)

	nested := Unflatten(values)
	data, err := json.Marshal(nested)
	if err != nil {
		return err
	}
	updated := &Config{}
	if err := json.Unmarshal(data, updated); err != nil {
		return err
	}
	return Save(path, updated)
}

// coerce converts the string form to the existing value's JSON type.
func coerce(existing any, value string) any {
	switch existing.(type) {
	case bool:
		return value == "true"
	case float64:
		var f float64
		if _, err := fmt.Sscanf(value, "%g", &f); err == nil {
			return f
		}
	}
	return value
}
