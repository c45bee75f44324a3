package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gdg-garage/badge-api/internal/app"
	"github.com/gdg-garage/badge-api/internal/config"
	"github.com/gdg-garage/badge-api/internal/handlers"
	"github.com/gdg-garage/badge-api/internal/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func main() {
	// Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Service
	svc, err := app.NewService(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize badge service", zap.Error(err))
	}

	// Initialize Router
	r := chi.NewRouter()

	// Register Routes
	handlers.RegisterRoutes(r, cfg, logger, handlers.NewBadgeHandler(svc), handlers.NewHealthHandler(cfg))

	// Start Server
	logger.Info("Starting server", zap.String("port", cfg.Port), zap.String("store", cfg.RecordStore))
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
