package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	httpAdapter "github.com/dumu-tech/wa-relay/internal/adapters/http"
	redisAdapter "github.com/dumu-tech/wa-relay/internal/adapters/redis"
	"github.com/dumu-tech/wa-relay/internal/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slogger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Connect to Redis
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	if cfg.RedisPassword != "" {
		redisOpts.Password = cfg.RedisPassword
	}

	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Redis connection established")

	topic := redisAdapter.NewTopic(rdb, cfg.TopicChannel)

	// Initialize HTTP handler
	handler := httpAdapter.NewHandler(topic, cfg.WhatsAppVerifyToken, cfg.WhatsAppAppSecret, slogger)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "WhatsApp Relay Ingress",
		ServerHeader: "Fiber",
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Health check route
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"project": "wa-relay",
		})
	})

	// WhatsApp webhook routes
	// GET for webhook verification (WhatsApp requires this)
	app.Get("/webhook", handler.VerifyWebhook)
	// POST for receiving messages
	app.Post("/webhook", handler.ReceiveMessage)
	// Anything else gets a plain OK
	app.All("/webhook", handler.Default)

	log.Println("Routes registered:")
	log.Println("  GET  /webhook - WhatsApp webhook verification")
	log.Println("  POST /webhook - WhatsApp message webhook")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.AppPort)
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
