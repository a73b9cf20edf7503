// Package config loads the environment-variable configuration spec.md
// §6 names, grounded on DrisanJames-project-jarvis's config loading
// (godotenv for local .env files, typed fields with defaults).
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the full set of environment-driven settings the service
// needs to boot: HTTP listen address, catalog endpoint, store
// connection, job pool sizing, and optional scheduler/archive
// extensions.
type Config struct {
	HTTPAddr string

	CatalogBaseURL     string
	CatalogDevFallback bool

	AWSRegion    string
	AWSProfile   string
	DBInstanceID string
	DBEndpoint   string
	DBUser       string
	DBName       string
	DBPort       int

	S3ArchiveBucket string

	WorkerPoolSize int

	SchedulerCronExpr string // empty disables the periodic scheduler

	Environment string // "development" or "production"
}

// Load reads a .env file if present (development convenience only,
// never required in production) then layers real environment
// variables on top, applying sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load() // a missing .env file is not an error

	cfg := Config{
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		CatalogBaseURL:     getEnv("CATALOG_BASE_URL", "http://localhost:9090"),
		CatalogDevFallback: getEnvBool("CATALOG_DEV_FALLBACK", false),
		AWSRegion:          getEnv("AWS_REGION", "eu-central-1"),
		AWSProfile:         getEnv("AWS_PROFILE", ""),
		DBInstanceID:       getEnv("DB_INSTANCE_ID", ""),
		DBEndpoint:         getEnv("DB_ENDPOINT", ""),
		DBUser:             getEnv("DB_USER", ""),
		DBName:             getEnv("DB_NAME", "esgroll"),
		DBPort:             getEnvInt("DB_PORT", 5432),
		S3ArchiveBucket:    getEnv("AWS_JOB_ARCHIVE_BUCKET", ""),
		WorkerPoolSize:     getEnvInt("WORKER_POOL_SIZE", 4),
		SchedulerCronExpr:  getEnv("SCHEDULER_CRON", ""),
		Environment:        getEnv("ENVIRONMENT", "development"),
	}

	if cfg.Environment == "production" && cfg.DBEndpoint == "" {
		return Config{}, fmt.Errorf("config: DB_ENDPOINT is required in production")
	}

	return cfg, nil
}

func (c Config) IsDevelopment() bool {
	return c.Environment != "production"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
