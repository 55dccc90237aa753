// Command bot runs the Telegram reminder assistant.
//
// Free-text messages are interpreted as notes or time-based reminders,
// persisted in SQLite, and delivered back when due by a periodic sweep.
//
// Usage:
//
//	./bot                    # Run with default config path
//	./bot -config bot.yaml   # Run with an explicit config file
//
// Environment:
//
//	TELEGRAM_BOT_TOKEN  Bot API token (required)
//	DEEPSEEK_API_KEY    Enables the AI interpretation fallback (optional)
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/notexe/reminder-bot/internal/api"
	"github.com/notexe/reminder-bot/internal/config"
	"github.com/notexe/reminder-bot/internal/health"
	"github.com/notexe/reminder-bot/internal/interpreter"
	"github.com/notexe/reminder-bot/internal/reminder"
	"github.com/notexe/reminder-bot/internal/scheduler"
	"github.com/notexe/reminder-bot/internal/telegram"
)

func main() {
	configPath := flag.String("config", config.GetDefaultConfigPath(), "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		fmt.Fprintf(os.Stderr, "Tip: set TELEGRAM_BOT_TOKEN or add it to the config file\n")
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create data directory: %v\n", err)
		os.Exit(1)
	}

	store, err := reminder.NewStore(cfg.Storage.DBPath, cfg.Location)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	var ai interpreter.AICapability
	if cfg.AIEnabled() {
		provider, err := api.NewProvider(cfg.GetProviderConfig())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create AI provider: %v\n", err)
			os.Exit(1)
		}
		defer provider.Close()

		timeout := time.Duration(cfg.DeepSeek.Timeout) * time.Second
		if cfg.Provider == config.ProviderOllama {
			timeout = time.Duration(cfg.Ollama.Timeout) * time.Second
		}
		ai = interpreter.NewAIInterpreter(provider, cfg.Model.Name, cfg.Model.MaxTokens, cfg.Model.Temperature, timeout)
		log.Printf("[main] AI fallback enabled (provider: %s)", provider.Name())
	} else {
		log.Println("[main] AI fallback disabled")
	}

	interp := interpreter.New(ai)
	client := telegram.NewClient(cfg.Telegram.BotToken)
	bot := telegram.NewBot(client, store, interp, cfg.Location, cfg.Telegram)
	sched := scheduler.New(store, client,
		time.Duration(cfg.Scheduler.Interval)*time.Second,
		time.Duration(cfg.Scheduler.SendTimeout)*time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("[main] Timezone: %s", cfg.Location)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bot.Run(ctx) })
	g.Go(func() error { return sched.Run(ctx) })
	if cfg.Health.Enabled {
		srv := health.NewServer(store, cfg.Health.Addr)
		g.Go(func() error { return srv.Run(ctx) })
	}

	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
