package main

import (
	"context"
	"log"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"technova/config"
	"technova/middleware"
	"technova/routes"
	"technova/utils"
	"technova/worker"
)

func main() {
	logger := log.New(os.Stdout, "TECHNOVA: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Error reporting is optional; everything still logs locally
	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Printf("Sentry initialization failed: %v", err)
		}
	}

	// Initialize database connection
	db, err := config.ConnectDB()
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Initialize blob storage
	storage, err := utils.NewStorage(config.AppConfig.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 25 << 20, // largest allowed upload plus headroom
	})

	// Add CORS middleware
	app.Use(middleware.CORS())

	// Start the pass confirmation notifier
	notifier := worker.NewPassNotifier(db, log.New(os.Stdout, "NOTIFIER: ", log.LstdFlags))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go notifier.Start(ctx)

	// Setup routes
	if err := routes.SetupRoutes(app, db, storage); err != nil {
		logger.Fatalf("Failed to set up routes: %v", err)
	}

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Start server
	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
