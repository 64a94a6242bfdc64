package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"WikiPagesBot/internal/app"
	"WikiPagesBot/internal/config"
	"WikiPagesBot/internal/logging"
)

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application := app.New(cfg, logger)

	if err := application.RunExport(ctx); err != nil {
		logger.Error("catalog export failed", "error", err)
		os.Exit(1)
	}
}
