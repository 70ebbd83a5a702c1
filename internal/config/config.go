package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the environment-driven server configuration.
type Config struct {
	Port               string
	JWTSecret          []byte
	AllowedEmailDomain string
	MediaHourlyLimit   int
	TextHourlyLimit    int
}

// Load reads configuration from the environment, with a .env file as a
// development convenience.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	cfg := &Config{
		Port:               port,
		JWTSecret:          []byte(secret),
		AllowedEmailDomain: os.Getenv("ALLOWED_EMAIL_DOMAIN"),
		MediaHourlyLimit:   intEnv("MEDIA_HOURLY_LIMIT", 10),
		TextHourlyLimit:    intEnv("TEXT_HOURLY_LIMIT", 20),
	}
	return cfg, nil
}

func intEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
