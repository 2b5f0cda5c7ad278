package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"DigestMailer/internal/app"
	"DigestMailer/internal/config"
	"DigestMailer/internal/logging"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application init failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	result, err := application.Run(ctx)
	if err != nil {
		logger.Error("run failed", "outcome", string(result.Outcome), "error", err)
		os.Exit(1)
	}

	logger.Info("run finished",
		"outcome", string(result.Outcome),
		"articles_sent", result.ArticlesSent,
		"attempts", len(result.DeliveryAttempts),
	)
}
