package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTP_PORT             string
	DATABASE_URL          string
	BACKUP_FILE           string
	STRIPE_SECRET_KEY     string
	STRIPE_WEBHOOK_SECRET string
	ADMIN_PASSWORD        string
	CURRENCY              string
	STATIC_DIR            string
	KAFKA_BROKERS         string
	KAFKA_TOPIC           string
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // load .env if it exists

	cfg := &Config{
		HTTP_PORT:             getenv("HTTP_PORT", "8080"),
		DATABASE_URL:          os.Getenv("DATABASE_URL"),
		BACKUP_FILE:           getenv("BACKUP_FILE", "orders-backup.json"),
		STRIPE_SECRET_KEY:     os.Getenv("STRIPE_SECRET_KEY"),
		STRIPE_WEBHOOK_SECRET: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		ADMIN_PASSWORD:        os.Getenv("ADMIN_PASSWORD"),
		CURRENCY:              getenv("CURRENCY", "pln"),
		STATIC_DIR:            getenv("STATIC_DIR", "web"),
		KAFKA_BROKERS:         os.Getenv("KAFKA_BROKERS"),
		KAFKA_TOPIC:           getenv("KAFKA_TOPIC", "orders.events"),
	}

	if cfg.STRIPE_SECRET_KEY == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is not set")
	}
	if cfg.ADMIN_PASSWORD == "" {
		return nil, errors.New("ADMIN_PASSWORD is not set")
	}
	return cfg, nil
}
