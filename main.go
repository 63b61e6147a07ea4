package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/vecinomarket/publicar-flow/database"
	"github.com/vecinomarket/publicar-flow/internal/backend"
	"github.com/vecinomarket/publicar-flow/internal/cli"
	"github.com/vecinomarket/publicar-flow/internal/flowstore"
	"github.com/vecinomarket/publicar-flow/internal/models"
	"github.com/vecinomarket/publicar-flow/internal/routes"
	"github.com/vecinomarket/publicar-flow/internal/services"
	"github.com/vecinomarket/publicar-flow/internal/storage"
)

func main() {
	// Load .env file for local development
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found - using environment variables")
	}

	if len(os.Args) > 1 && os.Args[1] == "twin" {
		runTwin()
		return
	}
	runFlow()
}

// runFlow starts the interactive publish flow against the configured backend.
func runFlow() {
	apiURL := os.Getenv("PUBLICAR_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}

	draftPath := os.Getenv("PUBLICAR_DRAFT_PATH")
	if draftPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal("Cannot resolve home directory:", err)
		}
		draftPath = filepath.Join(home, ".publicar-flow", "draft.json")
	}

	client, err := backend.NewClient(apiURL)
	if err != nil {
		log.Fatal("Failed to create backend client:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := cli.New(flowstore.NewFileStore(draftPath), client)
	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

// runTwin starts the local verification backend stand-in.
func runTwin() {
	// Initialize storage
	var store storage.Store
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.OTPCode{},
			&models.PublishSession{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(database.DB)
	}

	whatsappService := services.NewWhatsAppService()
	otpService := services.NewOTPService(store, whatsappService)

	app := fiber.New(fiber.Config{
		AppName: "VecinoMarket Verification Twin v1.0.0",
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
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:5173",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: true,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
			"storage": storageType(),
		})
	})

	routes.SetupRoutes(app, store, otpService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	log.Println("========================================")
	log.Printf("🚀 Verification twin starting on port %s", port)
	log.Printf("📊 Storage: %s", storageType())
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func storageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}
