// Package config loads application settings from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config stores the application configuration.
type Config struct {
	CatalogURL     string        // Base URL of the remote catalog server
	ListenAddr     string        // HTTP listen address
	DBPath         string        // Path to the local cache database
	StaticDir      string        // Directory to serve the web UI from, optional
	StaleThreshold time.Duration // Cache age beyond which a full sync is forced
	SyncRetries    int           // Fetch attempts per catalog request
	Debug          bool
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or
// defaults. godotenv.Load does not override variables already set.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, relying on environment variables and defaults")
	}

	staleDays := getEnvInt("SONORA_STALE_DAYS", 28)

	return &Config{
		CatalogURL:     getEnv("SONORA_CATALOG_URL", "http://localhost:8080"),
		ListenAddr:     getEnv("SONORA_LISTEN_ADDR", ":3001"),
		DBPath:         getEnv("SONORA_DB_PATH", "sonora.db"),
		StaticDir:      getEnv("SONORA_STATIC_DIR", ""),
		StaleThreshold: time.Duration(staleDays) * 24 * time.Hour,
		SyncRetries:    getEnvInt("SONORA_SYNC_RETRIES", 3),
		Debug:          getEnvBool("SONORA_DEBUG", false),
	}
}
