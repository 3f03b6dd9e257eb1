package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"resep/internal/handlers"
	"resep/internal/middleware"
	"resep/internal/models"
	"resep/internal/repositories"
	"resep/internal/services"
	"resep/pkg/imagestore"
	"resep/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	// Set up Viper to read configuration from environment variables
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("UPLOAD_DIR", "./static/uploads/recipes")
	viper.SetDefault("SESSION_EXPIRATION_HOURS", 24)
	viper.AutomaticEnv() // Load environment variables

	appPort := viper.GetString("APP_PORT")
	uploadDir := viper.GetString("UPLOAD_DIR")
	sessionHours := viper.GetInt("SESSION_EXPIRATION_HOURS")

	dsn := viper.GetString("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not found in environment variables")
	}

	// --- Initialize Database ---
	// TranslateError maps driver unique-violation errors to
	// gorm.ErrDuplicatedKey, which the repositories rely on.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Recipe{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- Initialize Image Store ---
	images, err := imagestore.NewStore(uploadDir)
	if err != nil {
		log.Fatalf("Failed to initialize image store: %v", err)
	}

	// --- Initialize RabbitMQ Client (optional) ---
	// Activity events are published only when a broker URL is configured.
	var mqClient *rabbitmq.Client
	if mqURL := viper.GetString("RABBITMQ_URL"); mqURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: mqURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close() // Ensure the connection is closed on exit
	} else {
		log.Println("RABBITMQ_URL not set, activity events disabled")
	}

	// --- Initialize Session Store ---
	sessions := session.New(session.Config{
		Expiration:     time.Duration(sessionHours) * time.Hour,
		CookieHTTPOnly: true,
	})

	// --- Initialize Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	recipeRepo := repositories.NewGORMRecipeRepository(db)

	// --- Initialize Services ---
	authService := services.NewAuthService(userRepo, mqClient)
	recipeService := services.NewRecipeService(recipeRepo, images, mqClient)

	// --- Initialize Handlers ---
	authHandler := handlers.NewAuthHandler(authService, sessions)
	recipeHandler := handlers.NewRecipeHandler(recipeService, authService, sessions)

	// --- Initialize Fiber App ---
	app := fiber.New()

	// --- Middleware ---
	app.Use(logger.New()) // Request logger

	// Serve stored recipe images
	app.Static("/static/uploads/recipes", images.Dir())

	// --- Routes ---
	// Public routes
	authHandler.RegisterRoutes(app)

	// Protected routes (require a logged-in session)
	protected := app.Group("", middleware.AuthRequired(sessions))
	recipeHandler.RegisterRoutes(protected)
	authHandler.RegisterProtectedRoutes(protected)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start RabbitMQ Consumer in a Goroutine ---
	// The consumer logs recipe and account lifecycle events. Downstream
	// integrations (search indexing, notifications) would hook in here.
	if mqClient != nil {
		go func() {
			log.Println("Starting RabbitMQ consumer for recipe events...")
			messageHandler := func(msg amqp.Delivery) error {
				log.Printf("Received recipe event (Tag: %d): %s", msg.DeliveryTag, string(msg.Body))
				return nil // Return nil to acknowledge
			}
			if consumerErr := mqClient.ConsumeRecipeEvents(messageHandler); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	}

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

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	// RabbitMQ connection close is handled by defer in main
	log.Println("Server gracefully stopped")
}
