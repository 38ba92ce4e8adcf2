package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/AstroAssist-core/server/internal/core"
	"github.com/AstroAssist-core/server/internal/mission/model"
	logx "github.com/AstroAssist-core/server/pkg/logger"
	pkgredis "github.com/AstroAssist-core/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the server,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Server model.ServerConfig
	Redis  pkgredis.Config
	Events model.EventsConfig

	// Mission
	Sensor      model.SensorConfig
	Classifier  model.ClassifierConfig
	IntentModel model.IntentModelConfig
	History     model.HistoryConfig
	Hazard      model.HazardConfig
}

func loadConfig() (AppConfig, error) {
	if err := godotenv.Load(".env"); err != nil {
		logx.Debug().Err(err).Msg("no .env file loaded")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logx.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
