// ====================================
// File: cmd/bot/main.go
// ====================================
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"indodax-bot/internal/bot"
	"indodax-bot/internal/config"
	"indodax-bot/internal/indodax"
	"indodax-bot/internal/logger"
	"indodax-bot/internal/telegram"
	"indodax-bot/internal/trading"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "path to configuration file")
	flag.Parse()

	// A .env file is handy in development; its absence is fine.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(&logger.Config{
		LogFile:    cfg.LogFile,
		Level:      cfg.LogLevel,
		MaxSize:    100,
		MaxAge:     7,
		MaxBackups: 3,
		Compress:   true,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync()
	zl.Info("Starting indodax bot")

	client, err := indodax.New(indodax.Credentials{
		APIKey:    cfg.APIKey,
		SecretKey: cfg.SecretKey,
	}, zl.Logger,
		indodax.WithBaseURL(cfg.BaseURL),
		indodax.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.RequestTimeout) * time.Second}))
	if err != nil {
		zl.Fatal("Failed to create exchange client", zap.Error(err))
	}

	transport, err := telegram.New(cfg.TelegramToken, zl.Logger)
	if err != nil {
		zl.Fatal("Failed to connect to Telegram", zap.Error(err))
	}

	svc := trading.New(client, zl.Logger)
	b := bot.New(transport, svc, cfg.OwnerID, zl.WithUser(cfg.OwnerID))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zl.Fatal("Bot execution error", zap.Error(err))
	}
	zl.Info("Shutdown complete")
}
