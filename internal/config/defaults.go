package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"provider": "none",
		"deepseek": map[string]interface{}{
			"api_key":  "",
			"base_url": "https://api.deepseek.com",
			"timeout":  30,
		},
		"ollama": map[string]interface{}{
			"base_url": "http://localhost:11434",
			"timeout":  30,
		},
		"model": map[string]interface{}{
			"name":        "deepseek-chat",
			"max_tokens":  1024,
			"temperature": 0.0,
		},
		"telegram": map[string]interface{}{
			"bot_token":    "",
			"poll_timeout": 30,
			"poll_limit":   100,
		},
		"storage": map[string]interface{}{
			"db_path": "~/.reminder-bot/reminders.db",
		},
		"scheduler": map[string]interface{}{
			"interval":     60,
			"send_timeout": 10,
		},
		"health": map[string]interface{}{
			"enabled": true,
			"addr":    ":8080",
		},
		"timezone": "America/Argentina/Buenos_Aires",
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}

func GetDefaultConfigPath() string {
	return "~/.reminder-bot/config.yaml"
}
