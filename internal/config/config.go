package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config holds the whole application configuration.
// Populated from environment variables.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	MinIO    MinIOConfig
	Source   SourceConfig
	Snapshot SnapshotConfig
	Job      JobConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MinIOConfig struct {
	Endpoint  string // localhost:9000
	AccessKey string
	SecretKey string
	Bucket    string // barcatalog
	UseSSL    bool   // false for local
}

// SourceConfig describes the upstream cocktail catalog API.
// The source has no bulk export, so the fetcher walks it one
// name-prefix partition at a time with explicit pacing.
type SourceConfig struct {
	BaseURL         string
	RequestInterval time.Duration // minimum delay between requests
	RequestTimeout  time.Duration // per-call HTTP timeout
	MaxRetries      int           // retry budget per partition
}

type SnapshotConfig struct {
	SchemaVersion string        // bumped on incompatible artifact layout changes
	Format        string        // json or sqlite
	SignedURLTTL  time.Duration // expiry of issued download links
}

type JobConfig struct {
	PublishCron string // cron spec for the scheduled pipeline run
}

func (c SourceConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.MaxRetries, validation.Min(0)),
	)
}

func (c SnapshotConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SchemaVersion, validation.Required),
		validation.Field(&c.Format, validation.Required, validation.In("json", "sqlite")),
	)
}

// Load reads config from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Barcatalog API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnvInt("PG_PORT", 5432),
			User:     getEnv("PG_USERNAME", "postgres"),
			Password: getEnv("PG_PASSWORD", "postgres"),
			Database: getEnv("PG_DBNAME", "barcatalog"),
			SSLMode:  getEnv("PG_SSLMODE", "disable"),
			MaxConns: getEnvInt("PG_MAX_CONNS", 10),
			MinConns: getEnvInt("PG_MIN_CONNS", 2),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "barcatalog"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Source: SourceConfig{
			BaseURL:         getEnv("SOURCE_BASE_URL", "https://www.thecocktaildb.com/api/json/v1/1"),
			RequestInterval: getEnvDuration("SOURCE_REQUEST_INTERVAL", 1100*time.Millisecond),
			RequestTimeout:  getEnvDuration("SOURCE_REQUEST_TIMEOUT", 15*time.Second),
			MaxRetries:      getEnvInt("SOURCE_MAX_RETRIES", 3),
		},
		Snapshot: SnapshotConfig{
			SchemaVersion: getEnv("SNAPSHOT_SCHEMA_VERSION", "v1"),
			Format:        getEnv("SNAPSHOT_FORMAT", "json"),
			SignedURLTTL:  getEnvDuration("SNAPSHOT_SIGNED_URL_TTL", 15*time.Minute),
		},
		Job: JobConfig{
			PublishCron: getEnv("SNAPSHOT_PUBLISH_CRON", "0 4 * * *"), // daily at 4 AM UTC
		},
	}

	if err := cfg.Source.Validate(); err != nil {
		return nil, fmt.Errorf("invalid source config: %w", err)
	}
	if err := cfg.Snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot config: %w", err)
	}

	return cfg, nil
}

// getEnv reads an environment variable with a fallback default
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
