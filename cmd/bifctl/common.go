package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"bif_backend/internal/app"
	"bif_backend/internal/config"
	"bif_backend/internal/logger"
)

var configPath string

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		if err := os.Setenv("CONFIG_PATH", configPath); err != nil {
			return nil, err
		}
	}
	config.LoadConfig()
	cfg := config.AppConfig

	logger.Init(cfg.Server.Env, cfg.Log.Level)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bootstrap поднимает приложение без HTTP сервера и воркеров
func bootstrap(ctx context.Context, migrate bool) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.Bootstrap(ctx, cfg, migrate)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
