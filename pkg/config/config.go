package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage modes.
const (
	StorageModeConsole  = "console"
	StorageModePostgres = "postgres"
	StorageModeNone     = "none"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Chain and indexer
	RPCURL      string
	SubgraphURL string

	// Quoting
	QuoteDebounce time.Duration
	OracleTimeout time.Duration // 0 disables the timeout

	// Exchange rates and pool snapshots
	RateRefreshInterval time.Duration
	PoolCacheTTL        time.Duration
	CacheMaxItems       int

	// HTTP / WebSocket
	CORSAllowedOrigins []string
	WSPingInterval     time.Duration
	WSPongTimeout      time.Duration
	WSWriteTimeout     time.Duration

	// Storage
	StorageMode  string // "postgres", "console" or "none"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Chain defaults
		RPCURL:      getEnvOrDefault("RPC_URL", "https://cloudflare-eth.com"),
		SubgraphURL: getEnvOrDefault("SUBGRAPH_URL", "https://api.thegraph.com/subgraphs/name/gnosis/omen"),

		// Quoting defaults
		QuoteDebounce: getDurationOrDefault("QUOTE_DEBOUNCE", 300*time.Millisecond),
		OracleTimeout: getDurationOrDefault("ORACLE_TIMEOUT", 0),

		// Rate and pool defaults
		RateRefreshInterval: getDurationOrDefault("RATE_REFRESH_INTERVAL", 15*time.Second),
		PoolCacheTTL:        getDurationOrDefault("POOL_CACHE_TTL", 5*time.Second),
		CacheMaxItems:       getIntOrDefault("CACHE_MAX_ITEMS", 10000),

		// HTTP / WebSocket defaults
		CORSAllowedOrigins: getListOrDefault("CORS_ALLOWED_ORIGINS", []string{"*"}),
		WSPingInterval:     getDurationOrDefault("WS_PING_INTERVAL", 30*time.Second),
		WSPongTimeout:      getDurationOrDefault("WS_PONG_TIMEOUT", 60*time.Second),
		WSWriteTimeout:     getDurationOrDefault("WS_WRITE_TIMEOUT", 10*time.Second),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", StorageModeConsole),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "fpmm"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "fpmm123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "fpmm_quoter"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.RPCURL == "" {
		return fmt.Errorf("RPC_URL cannot be empty")
	}

	if c.SubgraphURL == "" {
		return fmt.Errorf("SUBGRAPH_URL cannot be empty")
	}

	if c.QuoteDebounce < 0 {
		return fmt.Errorf("QUOTE_DEBOUNCE must not be negative, got %v", c.QuoteDebounce)
	}

	if c.OracleTimeout < 0 {
		return fmt.Errorf("ORACLE_TIMEOUT must not be negative, got %v", c.OracleTimeout)
	}

	if c.RateRefreshInterval <= 0 {
		return fmt.Errorf("RATE_REFRESH_INTERVAL must be positive, got %v", c.RateRefreshInterval)
	}

	if c.PoolCacheTTL <= 0 {
		return fmt.Errorf("POOL_CACHE_TTL must be positive, got %v", c.PoolCacheTTL)
	}

	if c.CacheMaxItems <= 0 {
		return fmt.Errorf("CACHE_MAX_ITEMS must be positive, got %d", c.CacheMaxItems)
	}

	switch c.StorageMode {
	case StorageModeConsole, StorageModePostgres, StorageModeNone:
	default:
		return fmt.Errorf("STORAGE_MODE must be 'console', 'postgres' or 'none', got %q", c.StorageMode)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

// getListOrDefault parses a comma-separated list, dropping empty entries.
func getListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
