package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Provider type constants (duplicated from api package to avoid import cycle)
const (
	ProviderDeepSeek = "deepseek"
	ProviderOllama   = "ollama"
	ProviderNone     = "none"
)

type Config struct {
	Provider  string          `koanf:"provider"`
	DeepSeek  DeepSeekConfig  `koanf:"deepseek"`
	Ollama    OllamaConfig    `koanf:"ollama"`
	Model     ModelConfig     `koanf:"model"`
	Telegram  TelegramConfig  `koanf:"telegram"`
	Storage   StorageConfig   `koanf:"storage"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Health    HealthConfig    `koanf:"health"`
	Timezone  string          `koanf:"timezone"`

	// Resolved from Timezone by Load. Not read from the config file.
	Location *time.Location `koanf:"-"`
}

type DeepSeekConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
	Timeout int    `koanf:"timeout"`
}

type OllamaConfig struct {
	BaseURL string `koanf:"base_url"`
	Timeout int    `koanf:"timeout"`
}

type ModelConfig struct {
	Name        string  `koanf:"name"`
	MaxTokens   int     `koanf:"max_tokens"`
	Temperature float64 `koanf:"temperature"`
}

type TelegramConfig struct {
	BotToken    string `koanf:"bot_token"`
	PollTimeout int    `koanf:"poll_timeout"` // getUpdates long-poll timeout, seconds
	PollLimit   int    `koanf:"poll_limit"`   // max updates per getUpdates call
}

type StorageConfig struct {
	DBPath string `koanf:"db_path"`
}

type SchedulerConfig struct {
	Interval    int `koanf:"interval"`     // seconds between sweeps
	SendTimeout int `koanf:"send_timeout"` // per-notification timeout, seconds
}

type HealthConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		configPath = expandPath(configPath)

		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider("REMINDERBOT_", ".", func(s string) string {
		return s
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// Well-known credential variables take precedence over the file.
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		k.Set("telegram.bot_token", token)
	}
	if apiKey := os.Getenv("DEEPSEEK_API_KEY"); apiKey != "" {
		k.Set("deepseek.api_key", apiKey)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("Telegram bot token is required (set TELEGRAM_BOT_TOKEN or add to config file)")
	}

	switch c.Provider {
	case ProviderDeepSeek:
		// A missing key is not fatal here: the AI fallback simply stays disabled.
	case ProviderOllama:
		if c.Ollama.BaseURL == "" {
			c.Ollama.BaseURL = "http://localhost:11434"
		}
	case ProviderNone:
	default:
		return fmt.Errorf("unknown provider: %s (supported: %s, %s, %s)",
			c.Provider, ProviderDeepSeek, ProviderOllama, ProviderNone)
	}

	if c.Provider != ProviderNone {
		if c.Model.Name == "" {
			return fmt.Errorf("model name is required")
		}
		if c.Model.MaxTokens <= 0 {
			return fmt.Errorf("max_tokens must be positive")
		}
		if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
			return fmt.Errorf("temperature must be between 0 and 2")
		}
	}

	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage db_path is required")
	}

	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive")
	}

	if c.Telegram.PollTimeout < 1 || c.Telegram.PollTimeout > 50 {
		return fmt.Errorf("telegram poll_timeout must be between 1 and 50 seconds")
	}

	return nil
}

// AIEnabled reports whether the optional AI interpretation capability is
// configured. A missing credential is a valid configuration, not an error.
func (c *Config) AIEnabled() bool {
	switch c.Provider {
	case ProviderDeepSeek:
		return c.DeepSeek.APIKey != ""
	case ProviderOllama:
		return true
	default:
		return false
	}
}

// ProviderConfig contains provider-specific configuration for the API package.
type ProviderConfig struct {
	Type     string
	DeepSeek DeepSeekConfig
	Ollama   OllamaConfig
	Model    ModelSettings
}

// ModelSettings contains model parameters used by all providers.
type ModelSettings struct {
	Name        string
	MaxTokens   int
	Temperature float64
}

// GetProviderConfig returns the provider configuration for the API package.
func (c *Config) GetProviderConfig() *ProviderConfig {
	return &ProviderConfig{
		Type:     c.Provider,
		DeepSeek: c.DeepSeek,
		Ollama:   c.Ollama,
		Model: ModelSettings{
			Name:        c.Model.Name,
			MaxTokens:   c.Model.MaxTokens,
			Temperature: c.Model.Temperature,
		},
	}
}

func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}

	return path
}
