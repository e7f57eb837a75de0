package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"butik/internal/handlers"
	"butik/internal/repositories"
	"butik/internal/services"
	"butik/pkg/cloudinary"
	"butik/pkg/rabbitmq"
)

const uploadDir = "uploads"

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":3001")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DB", "butik")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.AutomaticEnv() // Load environment variables

	appPort := viper.GetString("APP_PORT")

	// --- MongoDB Connection ---
	// The catalog cannot serve anything without its store, so a failed
	// connection terminates the process.
	connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(viper.GetString("MONGO_URI")))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	if err := mongoClient.Ping(connectCtx, nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}
	cancel()
	log.Println("MongoDB connected")
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	// --- Cloudinary Client ---
	mediaClient, err := cloudinary.NewClient(cloudinary.Config{
		CloudName: viper.GetString("CLOUDINARY_CLOUD_NAME"),
		APIKey:    viper.GetString("CLOUDINARY_API_KEY"),
		APISecret: viper.GetString("CLOUDINARY_API_SECRET"),
	})
	if err != nil {
		log.Fatalf("Failed to initialize Cloudinary client: %v", err)
	}

	// --- RabbitMQ Client (optional) ---
	var publisher services.EventPublisher
	if mqURL := viper.GetString("RABBITMQ_URL"); mqURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: mqURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
		publisher = mqClient
	} else {
		log.Println("RABBITMQ_URL not set, product event publishing disabled")
	}

	// --- Upload staging directory ---
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}

	// --- Initialize Repositories, Services and Handlers ---
	productRepo := repositories.NewMongoProductRepository(mongoClient.Database(viper.GetString("MONGO_DB")))
	productService := services.NewProductService(productRepo, mediaClient, publisher)
	productHandler := handlers.NewProductHandler(productService, uploadDir)

	// --- Initialize Fiber App ---
	// The body limit leaves room for the maximum multipart submission of
	// ten 2MB images plus the form fields.
	app := fiber.New(fiber.Config{
		BodyLimit: 25 * 1024 * 1024,
	})

	// --- Middleware ---
	app.Use(logger.New())
	app.Use(cors.New())

	// --- API Routes ---
	api := app.Group("/api")
	productHandler.RegisterRoutes(api)

	// --- Liveness Endpoint ---
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("API is running")
	})

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", appPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}
