package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Security
	AuthSecret      string
	OpsToken        string
	TokenTTLSeconds int

	// Rate limits (fixed-window counters in Redis)
	AuthIPLimit           int
	AuthIPWindowSeconds   int
	AuthPlayerLimit       int
	AuthPlayerWindowSecs  int
	ProgressionLimit      int
	ProgressionWindowSecs int
	RateLimitFailOpen     bool
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/voidrush?sslmode=disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:4321"),

		// Security
		AuthSecret:      getEnv("VOIDRUSH_AUTH_SECRET", ""),
		OpsToken:        getEnv("VOIDRUSH_OPS_TOKEN", ""),
		TokenTTLSeconds: getEnvInt("TOKEN_TTL_SECONDS", 14*24*60*60),

		// Rate limits
		AuthIPLimit:           getEnvInt("AUTH_IP_RATE_LIMIT", 40),
		AuthIPWindowSeconds:   getEnvInt("AUTH_IP_RATE_WINDOW_SECONDS", 60),
		AuthPlayerLimit:       getEnvInt("AUTH_PLAYER_RATE_LIMIT", 15),
		AuthPlayerWindowSecs:  getEnvInt("AUTH_PLAYER_RATE_WINDOW_SECONDS", 300),
		ProgressionLimit:      getEnvInt("PROGRESSION_RATE_LIMIT", 180),
		ProgressionWindowSecs: getEnvInt("PROGRESSION_RATE_WINDOW_SECONDS", 60),
		RateLimitFailOpen:     getEnv("RATE_LIMIT_FAIL_OPEN", "true") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
