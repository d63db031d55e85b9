package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	AppPort string `envconfig:"APP_PORT" default:"8080"`
	AppEnv  string `envconfig:"APP_ENV" default:"development"`

	// Redis (topic, queue and secret store all live here)
	RedisURL      string `envconfig:"REDIS_URL" default:"redis://localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`

	// Topic the ingress server publishes webhook payloads to
	TopicChannel string `envconfig:"TOPIC_CHANNEL" default:"wa:webhook"`

	// Ordered queue
	QueueStream   string `envconfig:"QUEUE_STREAM" default:"wa:inbound"`
	QueueGroup    string `envconfig:"QUEUE_GROUP" default:"wa-responder"`
	QueueConsumer string `envconfig:"QUEUE_CONSUMER" default:"wa-responder-1"`
	DedupWindow   int    `envconfig:"DEDUP_WINDOW_SECONDS" default:"300"`

	// WhatsApp
	WhatsAppVerifyToken string `envconfig:"WHATSAPP_VERIFY_TOKEN"`
	WhatsAppAppSecret   string `envconfig:"WHATSAPP_APP_SECRET"`
	WhatsAppAPIVersion  string `envconfig:"WHATSAPP_API_VERSION" default:"v19.0"`

	// Named secret holding the Cloud API bearer token
	TokenSecretName string `envconfig:"WA_TOKEN_SECRET_NAME" default:"wa-token"`

	// Reply generator service
	ProcessorURL string `envconfig:"PROCESSOR_URL"`
}

var instance *Config

// Load initializes and returns the singleton Config instance
func Load() (*Config, error) {
	if instance != nil {
		return instance, nil
	}

	// Load .env file if it exists (for local development)
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("error processing environment variables: %w", err)
	}

	instance = cfg
	return instance, nil
}

// Get returns the singleton Config instance (must call Load first)
func Get() *Config {
	if instance == nil {
		panic("config not loaded: call config.Load() first")
	}
	return instance
}
