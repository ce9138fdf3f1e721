package config

import (
	"fmt"
	"os"
	"strconv"
)

const defaultSessionSecret = "change_me_to_a_random_secret_of_32_chars"

type Config struct {
	// Database
	DBDriver    string
	DatabaseURL string

	// Sessions
	SessionSecret string

	// Object storage
	S3Bucket    string
	S3Location  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string

	DefaultProfileImage string

	// Messaging
	AMQPURL      string
	LogsExchange string

	// Application
	Port          string
	GRPCAddr      string
	ServiceName   string
	Environment   string
	LogLevel      string
	UploadMaxSize int64
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		DBDriver:    getEnv("DB_DRIVER", "postgres"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		SessionSecret: getEnv("SESSION_SECRET", ""),

		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3Location:  getEnv("S3_LOCATION", ""),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:  getEnv("S3_ENDPOINT", ""),

		DefaultProfileImage: getEnv("DEFAULT_PROFILE_IMAGE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		LogsExchange: getEnv("LOGS_EXCHANGE", "logs.events"),

		Port:          getEnv("PORT", "5000"),
		GRPCAddr:      getEnv("GRPC_ADDR", ":8085"),
		ServiceName:   getEnv("SERVICE_NAME", "postnest"),
		Environment:   getEnv("ENVIRONMENT", "local"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		UploadMaxSize: getEnvInt64("UPLOAD_MAX_SIZE", 10<<20),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters")
	}
	if c.UploadMaxSize <= 0 {
		return fmt.Errorf("UPLOAD_MAX_SIZE must be positive")
	}
	return nil
}

func (c *Config) ValidateProduction() error {
	if c.Environment != "production" {
		return nil
	}

	if c.SessionSecret == defaultSessionSecret {
		return fmt.Errorf("SESSION_SECRET must be changed from default in production")
	}
	if c.DBDriver != "postgres" {
		return fmt.Errorf("DB_DRIVER must be postgres in production")
	}
	if c.S3Bucket == "" || c.S3Location == "" {
		return fmt.Errorf("S3_BUCKET and S3_LOCATION must be set in production")
	}
	if c.S3AccessKey == "" || c.S3SecretKey == "" {
		return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY must be set in production")
	}

	return nil
}

func (c *Config) HTTPAddr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}
