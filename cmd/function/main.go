package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/gdg-garage/badge-api/internal/app"
	"github.com/gdg-garage/badge-api/internal/config"
	"github.com/gdg-garage/badge-api/internal/function"
	"github.com/gdg-garage/badge-api/internal/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	svc, err := app.NewService(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize badge service", zap.Error(err))
	}

	lambda.Start(function.NewHandler(svc, cfg.HasAirtable(), logger).Handle)
}
