package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	Environment string

	// DeviceID identifies this engine instance. Sessions opened on this
	// device are scoped to it for the one-open-practice-session rule.
	DeviceID string

	// Event publishing
	EventsPublisher string // "kafka" or "mock"
	KafkaBrokers    []string
	EventsTopic     string

	// Sync coordinator
	SyncInterval   time.Duration
	SyncMaxElapsed time.Duration
}

func LoadConfig() (*Config, error) {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	deviceID := getEnv("DEVICE_ID", "")
	if deviceID == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "unknown-device"
		}
		deviceID = host
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		DatabaseURL:     getEnv("DATABASE_URL", "file:practice.db"),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		DeviceID:        deviceID,
		EventsPublisher: getEnv("EVENTS_PUBLISHER", "mock"),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		EventsTopic:     getEnv("EVENTS_TOPIC", "practice-events"),
		SyncInterval:    getDuration("SYNC_INTERVAL", 30*time.Second),
		SyncMaxElapsed:  getDuration("SYNC_MAX_ELAPSED", 2*time.Minute),
	}, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
