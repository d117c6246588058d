package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"scm-chat/internal/api"
	"scm-chat/internal/api/handlers"
	"scm-chat/internal/repository"
	"scm-chat/internal/service"
	"scm-chat/pkg/config"
	"scm-chat/pkg/logger"
	"scm-chat/pkg/postgres"
	"scm-chat/pkg/redis"

	"go.uber.org/zap"
)

// @title SCM Chat API
// @version 1.0
// @description Supply chain support assistant: knowledge matching, automation scripts and model fallback

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting SCM chat service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	knowledgeRepo := repository.NewKnowledgeRepository(db, appLogger)
	conversationRepo := repository.NewConversationRepository(db, appLogger)
	feedbackRepo := repository.NewFeedbackRepository(db, appLogger)

	var sessionState service.SessionStateStore
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		sessionState = repository.NewRedisSessionStateRepository(redisClient, cfg.Redis.StateTTL, appLogger)
	} else {
		sessionState = repository.NewSessionStateRepository(db, appLogger)
	}

	// Initialize model provider
	var completer service.Completer
	switch cfg.AI.Provider {
	case config.ProviderGigaChat:
		gigaChat, err := service.NewGigaChatClient(ctx, &cfg.GigaChat, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize GigaChat client", zap.Error(err))
		}
		defer gigaChat.Close()
		completer = gigaChat
	default:
		if cfg.AI.APIKey == "" {
			appLogger.Warn("AI_GATEWAY_API_KEY is not set, model replies will fail")
		}
		completer = service.NewGatewayClient(&cfg.AI, &http.Client{Timeout: cfg.Server.WriteTimeout}, appLogger)
	}
	appLogger.Info("Model provider selected", zap.String("provider", cfg.AI.Provider))

	// Initialize services
	catalog := service.DefaultScriptCatalog()
	matcher := service.NewKnowledgeMatcher(knowledgeRepo, cfg.Knowledge.IssueLimit, appLogger)
	chatService := service.NewChatService(
		matcher,
		catalog,
		conversationRepo,
		feedbackRepo,
		sessionState,
		completer,
		service.ChatOptions{
			FeedbackLimit: cfg.Knowledge.FeedbackLimit,
			PublicBaseURL: cfg.Server.PublicBaseURL,
		},
		appLogger,
	)
	feedbackService := service.NewFeedbackService(feedbackRepo, appLogger)

	// Setup router
	app := api.SetupRouter(api.Handlers{
		Chat:     handlers.NewChatHandler(chatService, appLogger),
		Feedback: handlers.NewFeedbackHandler(feedbackService, appLogger),
		Script:   handlers.NewScriptHandler(catalog, appLogger),
		Health:   handlers.NewHealthHandler(db, appLogger),
	}, &cfg.Server, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
