// Command migrate-favorites copies the favorite lists embedded in user
// records into the favorites collection. Rerunning it is safe.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"gamegroup-backend/infrastructure/config"
	"gamegroup-backend/infrastructure/di"

	"go.uber.org/zap"
)

func main() {
	timeout := flag.Duration("timeout", 10*time.Minute, "abort the migration after this long")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	result, err := container.Commands.MigrateFavorites(ctx)
	if err != nil {
		container.Logger.Error("Favorite migration failed", zap.Error(err))
		_ = container.Close(context.Background())
		os.Exit(1)
	}
	defer container.Close(context.Background())

	container.Logger.Info("Favorite migration finished",
		zap.Int("users", result.Users),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)
}
