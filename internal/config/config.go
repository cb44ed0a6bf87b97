package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Backend selects where carts are persisted.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendRedis    Backend = "redis"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

type Config struct {
	HTTPAddr string
	GRPCAddr string
	LogLevel string

	Backend     Backend
	StorageKey  string
	RedisAddr   string
	RedisPrefix string
	SQLitePath  string
	DatabaseURL string
	// RegistrySize caps how many visitor carts are held in memory.
	RegistrySize int

	ServiceName     string
	Environment     string
	OTLPEndpoint    string
	TracingDisabled bool
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		GRPCAddr: getEnv("GRPC_ADDR", ":9090"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Backend:     Backend(strings.ToLower(getEnv("CART_BACKEND", string(BackendMemory)))),
		StorageKey:  getEnv("CART_STORAGE_KEY", "necs_cart"),
		RedisAddr:   getEnv("REDIS_ADDR", "redis-cache:6379"),
		RedisPrefix: getEnv("REDIS_PREFIX", "cart"),
		SQLitePath:  getEnv("SQLITE_PATH", "./data/cart.db"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),

		ServiceName:  getEnv("OTEL_SERVICE_NAME", "cart-service"),
		Environment:  getEnv("OTEL_RESOURCE_ATTRIBUTES_ENV", "local"),
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}

	size, err := strconv.Atoi(getEnv("CART_REGISTRY_SIZE", "10000"))
	if err != nil {
		return Config{}, fmt.Errorf("config: CART_REGISTRY_SIZE: %w", err)
	}
	cfg.RegistrySize = size

	tracing, err := strconv.ParseBool(getEnv("TRACING_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("config: TRACING_ENABLED: %w", err)
	}
	cfg.TracingDisabled = !tracing

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Backend {
	case BackendMemory, BackendRedis, BackendSQLite:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for the %s backend", c.Backend)
		}
	default:
		return fmt.Errorf("config: unknown CART_BACKEND %q", c.Backend)
	}
	if c.RegistrySize <= 0 {
		return fmt.Errorf("config: CART_REGISTRY_SIZE must be positive")
	}
	if c.StorageKey == "" {
		return fmt.Errorf("config: CART_STORAGE_KEY must not be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
