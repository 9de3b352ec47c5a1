// Package config provides configuration for the capture service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the capture service configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// External collaborators
	ParserURL  string
	EntriesURL string

	// Timeouts
	ParserTimeout  time.Duration
	EntriesTimeout time.Duration

	// Event bus
	BusHistorySize int

	// Draft validation policy; empty means the built-in default policy.
	DraftPolicyFile string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:        getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:     getEnv("DATABASE_URL", "file:capture.db?cache=shared&mode=rwc"),
		ParserURL:       getEnv("PARSER_URL", "http://localhost:8090"),
		EntriesURL:      getEnv("ENTRIES_URL", "http://localhost:8091"),
		ParserTimeout:   time.Duration(getEnvInt("PARSER_TIMEOUT_MS", 30000)) * time.Millisecond,
		EntriesTimeout:  time.Duration(getEnvInt("ENTRIES_TIMEOUT_MS", 10000)) * time.Millisecond,
		BusHistorySize:  getEnvInt("BUS_HISTORY_SIZE", 100),
		DraftPolicyFile: getEnv("DRAFT_POLICY_FILE", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
