package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/symptom-intake-server/internal/api"
	"github.com/symptom-intake-server/internal/app"
	"github.com/symptom-intake-server/internal/config"
	"github.com/symptom-intake-server/internal/logging"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize symptom intake pipeline")
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.WithError(err).Warn("Failed to release resources")
		}
	}()

	logger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"production":  configManager.IsProduction(),
		"gin_mode":    cfg.Server.Mode,
	}).Infof("Starting symptom intake server on %s:%d", cfg.Server.Host, cfg.Server.Port)

	server := api.NewServer(cfg, application.Service, logger)
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Error("Server failed")
		return
	}

	logger.Info("Server stopped")
}
