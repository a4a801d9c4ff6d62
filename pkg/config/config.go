package config

import (
	"fmt"
	"os"
	"strconv"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Upload        UploadConfig
	Parse         ParseConfig
	Classifier    ClassifierConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// UploadConfig controls document upload handling.
type UploadConfig struct {
	// Dir is the base directory for stored documents. The parse router also
	// retries unresolved storage locators relative to this directory.
	Dir          string
	MaxSizeBytes int64
}

// ParseConfig controls the parse worker pool.
type ParseConfig struct {
	Workers   int
	QueueSize int
}

// ClassifierConfig points at the remote transaction categorization service.
type ClassifierConfig struct {
	BaseURL        string
	TimeoutSeconds int
	RatePerSecond  int
	RateBurst      int
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "docparse-dev"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Upload: UploadConfig{
			Dir:          getEnv("UPLOAD_DIR", "./uploads"),
			MaxSizeBytes: int64(getEnvAsInt("UPLOAD_MAX_SIZE_BYTES", 10*1024*1024)),
		},
		Parse: ParseConfig{
			Workers:   getEnvAsInt("PARSE_WORKERS", 4),
			QueueSize: getEnvAsInt("PARSE_QUEUE_SIZE", 64),
		},
		Classifier: ClassifierConfig{
			BaseURL:        getEnv("AI_SERVICE_URL", "http://localhost:8000"),
			TimeoutSeconds: getEnvAsInt("AI_SERVICE_TIMEOUT_SECONDS", 15),
			RatePerSecond:  getEnvAsInt("AI_SERVICE_RATE_PER_SECOND", 5),
			RateBurst:      getEnvAsInt("AI_SERVICE_RATE_BURST", 10),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
