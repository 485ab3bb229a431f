package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/symptom-intake-server/internal/app"
	"github.com/symptom-intake-server/internal/config"
	"github.com/symptom-intake-server/internal/logging"
	"github.com/symptom-intake-server/internal/mcp"
)

func main() {
	_ = godotenv.Load()

	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	// stdout carries the MCP protocol
	if cfg.Logging.Output == "" || cfg.Logging.Output == logging.OutputStdout {
		cfg.Logging.Output = logging.OutputStderr
	}
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

	server := mcp.NewServer(cfg.MCP, application.Service, logger)
	if err := server.Run(ctx); err != nil {
		logger.WithError(err).Error("MCP server failed")
		return
	}

	logger.Info("Symptom intake MCP server stopped")
}
