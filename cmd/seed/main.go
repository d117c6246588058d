package main

import (
	"context"
	"log"
	"path/filepath"

	"scm-chat/internal/repository"
	"scm-chat/pkg/config"
	"scm-chat/pkg/logger"
	"scm-chat/pkg/postgres"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(&cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	// Connect to database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	knowledgeRepo := repository.NewKnowledgeRepository(db, appLogger)

	appLogger.Info("Starting knowledge seeding...")

	seedDir := filepath.Join("cmd", "seed", "data")
	cacheFile := filepath.Join("cmd", "seed", ".seed_cache.json")
	if err := seedKnowledge(ctx, seedDir, cacheFile, knowledgeRepo, appLogger); err != nil {
		appLogger.Fatal("Failed to seed knowledge table", zap.Error(err))
	}

	appLogger.Info("Knowledge seeding completed successfully!")
}
