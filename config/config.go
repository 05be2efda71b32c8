package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration settings for the service, loaded from
// a .env file overlaid with real process environment variables.
type Config struct {
	HTTPBindAddress string
	LogLevel        string

	DatabaseURL            string
	DatabaseMaxConnections int

	EthWSURL                      string
	EthSubscriptionTimeoutSeconds int
	EthTokenAddress               string

	JWTSecret string
}

// LoadConfig loads configuration from a .env file (if present) and
// environment variables, validating required fields before returning.
func LoadConfig() (*Config, error) {
	if os.Getenv("ENVIRONMENT") != "production" {
		if err := godotenv.Load(); err != nil {
			_ = godotenv.Load("../.env")
		}
	}

	cfg := &Config{
		HTTPBindAddress:               getEnv("HTTP_BIND_ADDRESS", ":8080"),
		LogLevel:                      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:                   getEnv("DATABASE_URL", ""),
		DatabaseMaxConnections:        getEnvInt("DATABASE_MAX_CONNECTIONS", 20),
		EthWSURL:                      getEnv("ETH_WS_URL", ""),
		EthSubscriptionTimeoutSeconds: getEnvInt("ETH_SUBSCRIPTION_TIMEOUT_SECONDS", 60),
		EthTokenAddress:               getEnv("ETH_TOKEN_ADDRESS", ""),
		JWTSecret:                     getEnv("JWT_SECRET", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.EthWSURL == "" {
		return nil, fmt.Errorf("ETH_WS_URL is required")
	}
	if cfg.EthTokenAddress == "" {
		return nil, fmt.Errorf("ETH_TOKEN_ADDRESS is required")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-do-not-use-in-production"
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns the default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns the
// default value if unset or unparseable.
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
