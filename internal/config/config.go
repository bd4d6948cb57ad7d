package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Storage      StorageConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Sentry       SentryConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	CORSOrigins           string
	BodyLimitBytes        int
}

// StorageConfig selects the document backend.
type StorageConfig struct {
	Driver string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines session and admin credentials.
type AuthConfig struct {
	JWTSecret         string
	SessionTTLMinutes int
	BcryptCost        int
	AdminUsername     string
	AdminPassword     string
	CookieName        string
	CookieSecure      bool
}

// NotificationConfig holds notification endpoints. Kafka is used only when brokers are set.
type NotificationConfig struct {
	EmailFrom    string
	WebhookURL   string
	KafkaBrokers []string
	KafkaTopic   string
	// QueueSize bounds events waiting for Kafka delivery.
	QueueSize int
}

// SentryConfig enables error reporting when DSN is non-empty.
type SentryConfig struct {
	DSN string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	driver := strings.ToLower(getEnv("STORAGE_DRIVER", StorageMemory))
	switch driver {
	case StorageMemory, StoragePostgres, StorageRedis:
	default:
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q", driver)
	}

	if driver == StoragePostgres && os.Getenv("POSTGRES_DSN") == "" {
		return nil, fmt.Errorf("POSTGRES_DSN is required for the postgres storage driver")
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "medical-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			CORSOrigins:           getEnv("HTTP_CORS_ORIGINS", "*"),
			BodyLimitBytes:        getEnvAsInt("HTTP_BODY_LIMIT_BYTES", 12*1024*1024),
		},
		Storage: StorageConfig{
			Driver: driver,
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "portal:"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("AUTH_JWT_SECRET", "dev-secret"),
			SessionTTLMinutes: getEnvAsInt("AUTH_SESSION_TTL_MINUTES", 60*24),
			BcryptCost:        getEnvAsInt("AUTH_BCRYPT_COST", 12),
			AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
			AdminPassword:     getEnv("ADMIN_PASSWORD", "admin123"),
			CookieName:        getEnv("AUTH_COOKIE_NAME", "portal_session"),
			CookieSecure:      getEnvAsBool("AUTH_COOKIE_SECURE", false),
		},
		Notification: NotificationConfig{
			EmailFrom:    getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL:   getEnv("NOTIFY_WEBHOOK_URL", ""),
			KafkaBrokers: getEnvAsList("KAFKA_BROKERS"),
			KafkaTopic:   getEnv("KAFKA_TOPIC", "portal.events"),
			QueueSize:    getEnvAsInt("NOTIFY_QUEUE_SIZE", 1024),
		},
		Sentry: SentryConfig{
			DSN: os.Getenv("SENTRY_DSN"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SessionTTL returns how long an issued session token stays valid.
func (a AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
