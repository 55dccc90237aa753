package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	// Pin the timezone so the test does not depend on the host tz database
	// having the default zone.
	path := writeConfigFile(t, "timezone: \"UTC\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderNone, cfg.Provider)
	assert.Equal(t, "deepseek-chat", cfg.Model.Name)
	assert.Equal(t, 1024, cfg.Model.MaxTokens)
	assert.Equal(t, 0.0, cfg.Model.Temperature)
	assert.Equal(t, 30, cfg.Telegram.PollTimeout)
	assert.Equal(t, 100, cfg.Telegram.PollLimit)
	assert.Equal(t, 60, cfg.Scheduler.Interval)
	assert.Equal(t, 10, cfg.Scheduler.SendTimeout)
	assert.True(t, cfg.Health.Enabled)
	assert.Equal(t, ":8080", cfg.Health.Addr)
	assert.NotEmpty(t, cfg.Storage.DBPath)
	assert.Equal(t, time.UTC, cfg.Location)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
provider: "ollama"
timezone: "UTC"
telegram:
  bot_token: "from-file"
  poll_timeout: 10
storage:
  db_path: "/tmp/test.db"
scheduler:
  interval: 30
`)

	// Keep ambient credentials from overriding the file under test.
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("DEEPSEEK_API_KEY", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderOllama, cfg.Provider)
	assert.Equal(t, "from-file", cfg.Telegram.BotToken)
	assert.Equal(t, 10, cfg.Telegram.PollTimeout)
	assert.Equal(t, "/tmp/test.db", cfg.Storage.DBPath)
	assert.Equal(t, 30, cfg.Scheduler.Interval)
	// Untouched keys keep their defaults.
	assert.Equal(t, 100, cfg.Telegram.PollLimit)
}

func TestLoadCredentialEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
timezone: "UTC"
provider: "deepseek"
telegram:
  bot_token: "from-file"
deepseek:
  api_key: "key-from-file"
`)

	t.Setenv("TELEGRAM_BOT_TOKEN", "token-from-env")
	t.Setenv("DEEPSEEK_API_KEY", "key-from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "token-from-env", cfg.Telegram.BotToken)
	assert.Equal(t, "key-from-env", cfg.DeepSeek.APIKey)
}

func TestLoadInvalidTimezone(t *testing.T) {
	path := writeConfigFile(t, "timezone: \"Mars/Olympus_Mons\"\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timezone")
}

func validConfig() *Config {
	return &Config{
		Provider: ProviderNone,
		Telegram: TelegramConfig{BotToken: "token", PollTimeout: 30, PollLimit: 100},
		Storage:  StorageConfig{DBPath: "/tmp/test.db"},
		Scheduler: SchedulerConfig{
			Interval:    60,
			SendTimeout: 10,
		},
		Timezone: "UTC",
		Location: time.UTC,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing bot token", func(c *Config) { c.Telegram.BotToken = "" }, "bot token is required"},
		{"unknown provider", func(c *Config) { c.Provider = "gpt" }, "unknown provider"},
		{"missing db path", func(c *Config) { c.Storage.DBPath = "" }, "db_path is required"},
		{"zero interval", func(c *Config) { c.Scheduler.Interval = 0 }, "interval must be positive"},
		{"poll timeout too high", func(c *Config) { c.Telegram.PollTimeout = 60 }, "poll_timeout"},
		{
			"deepseek without model name",
			func(c *Config) {
				c.Provider = ProviderDeepSeek
				c.Model = ModelConfig{MaxTokens: 1024}
			},
			"model name is required",
		},
		{
			"temperature out of range",
			func(c *Config) {
				c.Provider = ProviderDeepSeek
				c.Model = ModelConfig{Name: "deepseek-chat", MaxTokens: 1024, Temperature: 3}
			},
			"temperature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateDefaultsOllamaBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Provider = ProviderOllama
	cfg.Model = ModelConfig{Name: "llama3", MaxTokens: 1024}

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:11434", cfg.Ollama.BaseURL)
}

func TestAIEnabled(t *testing.T) {
	cfg := validConfig()
	assert.False(t, cfg.AIEnabled())

	cfg.Provider = ProviderDeepSeek
	assert.False(t, cfg.AIEnabled(), "deepseek without a key stays disabled")

	cfg.DeepSeek.APIKey = "key"
	assert.True(t, cfg.AIEnabled())

	cfg.Provider = ProviderOllama
	assert.True(t, cfg.AIEnabled(), "ollama needs no credential")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x.db"), expandPath("~/x.db"))
	assert.Equal(t, "/tmp/x.db", expandPath("/tmp/x.db"))
	assert.Equal(t, "", expandPath(""))
}
