// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Store backends supported for the trade-event ledger.
const (
	BackendSQLite = "sqlite"
	BackendJSONL  = "jsonl"
)

// Config holds application configuration
type Config struct {
	DataDir         string // Base directory for the ledger database, log files and reports (always absolute)
	Port            int
	LogLevel        string
	DevMode         bool
	StoreBackend    string  // "sqlite" (default) or "jsonl"
	StartingBalance float64 // Starting balance used for overall equity computation
	Backup          *BackupConfig
}

// BackupConfig holds off-site backup configuration.
// S3 uploads are disabled unless all credentials are provided.
type BackupConfig struct {
	S3Endpoint        string // Optional custom endpoint (S3-compatible storage)
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Bucket          string
}

// Enabled reports whether S3 uploads are configured.
func (b *BackupConfig) Enabled() bool {
	return b != nil && b.S3AccessKeyID != "" && b.S3SecretAccessKey != "" && b.S3Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("TRUEEDGE_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		Port:            getEnvAsInt("GO_PORT", 8080),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		StoreBackend:    getEnv("STORE_BACKEND", BackendSQLite),
		StartingBalance: getEnvAsFloat("STARTING_BALANCE", 0.0),
		Backup:          loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendSQLite, BackendJSONL:
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q (expected %q or %q)", c.StoreBackend, BackendSQLite, BackendJSONL)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3Region:          getEnv("S3_REGION", "auto"),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3Bucket:          getEnv("S3_BUCKET", ""),
	}
}
