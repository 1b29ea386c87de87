package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Authentication configuration
	Auth AuthConfig

	// Store transaction behaviour
	Store StoreConfig

	// Reputation policy switches
	Policy PolicyConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// Logging configuration
	Log LogConfig

	// Tracing configuration
	Tracing TracingConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MigrationsPath  string
	MaxImportBytes  int64
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// AuthConfig holds token and password hashing settings
type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// StoreConfig bounds every unit of work against the store
type StoreConfig struct {
	OpTimeout       time.Duration
	MaxRetries      int
	RetryInitial    time.Duration
	RetryMaxBackoff time.Duration
}

// PolicyConfig holds reputation policy switches
type PolicyConfig struct {
	AllowSelfVote bool
}

// RateLimitConfig holds request rate limiting settings.
// When RedisAddr is empty an in-process limiter is used.
type RateLimitConfig struct {
	Enabled       bool
	MaxRequests   int
	Window        time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	Enabled     bool
	ServiceName string
}

// Load reads configuration from a .env file (if present) and environment variables
func Load() (*Config, error) {
	// A missing .env file is fine; real environment variables win anyway
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8000"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
			MaxImportBytes:  int64(getIntEnv("MAX_IMPORT_BYTES", 10*1024*1024)),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Name:         getEnv("DB_NAME", "fake_so"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", ""),
			TokenTTL:   getDurationEnv("TOKEN_TTL", 3*time.Hour),
			BcryptCost: getIntEnv("BCRYPT_COST", 10),
		},
		Store: StoreConfig{
			OpTimeout:       getDurationEnv("STORE_OP_TIMEOUT", 5*time.Second),
			MaxRetries:      getIntEnv("STORE_MAX_RETRIES", 3),
			RetryInitial:    getDurationEnv("STORE_RETRY_INITIAL", 50*time.Millisecond),
			RetryMaxBackoff: getDurationEnv("STORE_RETRY_MAX_BACKOFF", time.Second),
		},
		Policy: PolicyConfig{
			AllowSelfVote: getBoolEnv("POLICY_ALLOW_SELF_VOTE", true),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getBoolEnv("RATE_LIMIT_ENABLED", true),
			MaxRequests:   getIntEnv("RATE_LIMIT_MAX", 100),
			Window:        getDurationEnv("RATE_LIMIT_WINDOW", time.Second),
			RedisAddr:     getEnv("REDIS_ADDR", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getIntEnv("REDIS_DB", 0),
			KeyPrefix:     getEnv("REDIS_KEY_PREFIX", "qa:"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Tracing: TracingConfig{
			Enabled:     getBoolEnv("TRACING_ENABLED", false),
			ServiceName: getEnv("TRACING_SERVICE_NAME", "qa-api"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Store.OpTimeout <= 0 {
		return fmt.Errorf("STORE_OP_TIMEOUT must be positive")
	}
	if c.Store.MaxRetries < 0 {
		return fmt.Errorf("STORE_MAX_RETRIES must not be negative")
	}
	if c.RateLimit.Enabled && (c.RateLimit.MaxRequests <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
