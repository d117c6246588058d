package api

import (
	"os"
	"path/filepath"

	"scm-chat/docs"
	"scm-chat/internal/api/handlers"
	"scm-chat/pkg/config"
	"scm-chat/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

type Handlers struct {
	Chat     *handlers.ChatHandler
	Feedback *handlers.FeedbackHandler
	Script   *handlers.ScriptHandler
	Health   *handlers.HealthHandler
}

func SetupRouter(h Handlers, serverCfg *config.ServerConfig, appLogger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  serverCfg.ReadTimeout,
		WriteTimeout: serverCfg.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "authorization, x-client-info, apikey, content-type",
	}))
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger(appLogger))

	// Swagger - importing docs registers the API description in init()
	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", h.Health.Health)

	// Script downloads are registered before the static documents directory
	app.Get("/documents/scripts/:file", h.Script.Download)

	if documentsPath := findAssetPath("documents"); documentsPath != "" {
		appLogger.Info("Serving documents", zap.String("path", documentsPath))
		app.Static("/documents", documentsPath)
	} else {
		appLogger.Warn("Documents directory not found, execution documents will not be served")
	}
	if screenshotsPath := findAssetPath("screenshots"); screenshotsPath != "" {
		appLogger.Info("Serving screenshots", zap.String("path", screenshotsPath))
		app.Static("/screenshots", screenshotsPath)
	}

	// API routes
	api := app.Group("/api/v1")

	api.Post("/chat", h.Chat.Chat)
	api.Get("/chat/:sessionId/history", h.Chat.History)
	api.Post("/feedback", h.Feedback.Submit)
	api.Get("/scripts/:file", h.Script.Download)

	return app
}

// findAssetPath looks for a static asset directory relative to the working directory
func findAssetPath(name string) string {
	paths := []string{
		filepath.Join("public", name),
		name,
		filepath.Join("..", "public", name),
		filepath.Join("..", "..", "public", name),
	}

	for _, path := range paths {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return path
		}
	}

	return ""
}
