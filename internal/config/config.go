package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	AuthModeFirebase = "firebase"
	AuthModeJWT      = "jwt"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Firebase FirebaseConfig
	LLM      LLMConfig
	OTEL     OTELConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           string
	BodyLimitMB    int64
	IdempotencyTTL time.Duration
}

// PostgresConfig selects and addresses the relational store
type PostgresConfig struct {
	Driver     string // postgres or sqlite
	DSN        string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SQLitePath string
}

// ConnectionString returns POSTGRES_DSN when set, otherwise a DSN built from the parts.
func (p PostgresConfig) ConnectionString() string {
	if p.DSN != "" {
		return p.DSN
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		p.Host, p.Port, p.User, p.Password, p.Name)
}

// MongoDBConfig holds MongoDB connection configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	CacheTTL time.Duration
}

// AuthConfig selects how bearer tokens are verified
type AuthConfig struct {
	Mode        string // firebase or jwt
	JWTSecret   string
	TokenExpiry time.Duration
}

// FirebaseConfig holds Firebase Admin SDK configuration
type FirebaseConfig struct {
	ProjectID   string
	PrivateKey  string // Base64 encoded
	ClientEmail string
}

// LLMConfig holds text-completion and retrieval settings
type LLMConfig struct {
	Provider         string
	APIKey           string
	BaseURL          string
	Model            string
	FallbackModel    string
	Timeout          time.Duration
	FallbackTimeout  time.Duration
	RetrieverTimeout time.Duration
	RetrieverTopK    int
}

// OTELConfig holds OpenTelemetry export settings (Grafana Cloud basic auth)
type OTELConfig struct {
	Enabled        bool
	Endpoint       string
	URLPrefix      string
	InstanceID     string
	Token          string
	ServiceName    string
	ServiceVersion string
	Environment    string
}

// LogConfig holds structured logging settings
type LogConfig struct {
	Mode     string
	Level    string
	HashSalt string
}

// Load reads configuration from environment variables
// It attempts to load from .env file first, then falls back to system env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			BodyLimitMB:    getEnvAsInt64("BODY_LIMIT_MB", 2),
			IdempotencyTTL: getEnvAsDuration("IDEMPOTENCY_TTL", 10*time.Minute),
		},
		Postgres: PostgresConfig{
			Driver:     getEnv("DB_DRIVER", DriverPostgres),
			DSN:        getEnv("POSTGRES_DSN", ""),
			Host:       getEnv("POSTGRES_HOST", "localhost"),
			Port:       getEnv("POSTGRES_PORT", "5432"),
			User:       getEnv("POSTGRES_USER", "postgres"),
			Password:   getEnv("POSTGRES_PASSWORD", ""),
			Name:       getEnv("POSTGRES_NAME", "fitcoach"),
			SQLitePath: getEnv("SQLITE_PATH", "fitcoach.db"),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "fitcoach"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			CacheTTL: getEnvAsDuration("CACHE_TTL", 15*time.Minute),
		},
		Auth: AuthConfig{
			Mode:        getEnv("AUTH_MODE", AuthModeFirebase),
			JWTSecret:   getEnv("JWT_SECRET", ""),
			TokenExpiry: getEnvAsDuration("JWT_EXPIRY", 24*time.Hour),
		},
		Firebase: FirebaseConfig{
			ProjectID:   getEnv("FIREBASE_PROJECT_ID", ""),
			PrivateKey:  getEnv("FIREBASE_PRIVATE_KEY", ""),
			ClientEmail: getEnv("FIREBASE_CLIENT_EMAIL", ""),
		},
		LLM: LLMConfig{
			Provider:         getEnv("LLM_PROVIDER", ProviderOpenRouter),
			APIKey:           getEnv("LLM_API_KEY", getEnv("OPENROUTER_API_KEY", "")),
			BaseURL:          getEnv("LLM_BASE_URL", ""),
			Model:            getEnv("LLM_MODEL", "google/gemini-2.0-flash-001"),
			FallbackModel:    getEnv("LLM_FALLBACK_MODEL", ""),
			Timeout:          getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
			FallbackTimeout:  getEnvAsDuration("LLM_FALLBACK_TIMEOUT", 15*time.Second),
			RetrieverTimeout: getEnvAsDuration("RETRIEVER_TIMEOUT", 2*time.Second),
			RetrieverTopK:    int(getEnvAsInt64("RETRIEVER_TOP_K", 4)),
		},
		OTEL: OTELConfig{
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			URLPrefix:      getEnv("OTEL_URL_PREFIX", "/otlp"),
			InstanceID:     getEnv("OTEL_INSTANCE_ID", ""),
			Token:          getEnv("OTEL_TOKEN", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "fitcoach-api"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			Environment:    getEnv("OTEL_ENVIRONMENT", "development"),
		},
		Log: LogConfig{
			Mode:     getEnv("LOG_MODE", "production"),
			Level:    getEnv("LOG_LEVEL", ""),
			HashSalt: getEnv("LOG_HASH_SALT", ""),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	switch c.Auth.Mode {
	case AuthModeFirebase:
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required")
		}
		if c.Firebase.PrivateKey == "" {
			return fmt.Errorf("FIREBASE_PRIVATE_KEY is required")
		}
		if c.Firebase.ClientEmail == "" {
			return fmt.Errorf("FIREBASE_CLIENT_EMAIL is required")
		}
	case AuthModeJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_MODE=jwt")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeFirebase, AuthModeJWT, c.Auth.Mode)
	}

	switch c.LLM.Provider {
	case ProviderOpenRouter:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("LLM_API_KEY is required for the openrouter provider")
		}
	case ProviderOllama:
	default:
		return fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderOpenRouter, ProviderOllama, c.LLM.Provider)
	}

	if c.Postgres.Driver != DriverPostgres && c.Postgres.Driver != DriverSQLite {
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Postgres.Driver)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt64 retrieves an environment variable as int64 or returns a default value
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go duration strings ("30s", "15m")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
