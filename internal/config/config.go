package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Port          string
	MongoURI      string
	MongoDB       string
	JWTSecret     string
	TokenExpiry   time.Duration
	PushEndpoint  string
	PushAPIKey    string
	LogFile       string
	AllowedOrigin string
}

// LoadConfig reads configuration from the environment, loading a .env file
// first when one is present.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, relying on environment variables")
	}

	expiryHours, err := strconv.Atoi(getEnv("TOKEN_EXPIRY_HOURS", "24"))
	if err != nil {
		expiryHours = 24
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "crewsync"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		TokenExpiry:   time.Duration(expiryHours) * time.Hour,
		PushEndpoint:  getEnv("PUSH_ENDPOINT", ""),
		PushAPIKey:    getEnv("PUSH_API_KEY", ""),
		LogFile:       getEnv("LOG_FILE", ""),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
