package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Realtime brokers
const (
	BrokerLocal = "local"
	BrokerRedis = "redis"
)

// Config holds the whole application configuration.
// Populated from environment variables.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Ledger   LedgerConfig
	Realtime RealtimeConfig
	Worker   WorkerConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	LogLevel    string
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
	Enabled      bool
	Host         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry int // minutes
}

// LedgerConfig controls the lending ledger
type LedgerConfig struct {
	StoreDriver string        // postgres | memory
	LoanPeriod  time.Duration // due date offset from loan date
}

// RealtimeConfig controls availability fan-out
type RealtimeConfig struct {
	Broker     string // local | redis
	Channel    string // redis pub/sub channel
	BufferSize int    // per-subscriber queue length
	Heartbeat  time.Duration
}

type WorkerConfig struct {
	Concurrency   int
	ReconcileCron string
	DriftLimit    int           // drifting titles logged per reconcile run
	CacheTTL      time.Duration // lifetime of availability snapshots
	HealthPort    string
}

// Load reads config from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Library Ledger API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "library"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),

			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 5),
			MaxRetries:   getEnvInt("REDIS_MAX_RETRIES", 3),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenExpiry: getEnvInt("JWT_ACCESS_EXPIRY", 15),
		},
		Ledger: LedgerConfig{
			StoreDriver: getEnv("STORE_DRIVER", StoreDriverPostgres),
			LoanPeriod:  getEnvDuration("LOAN_PERIOD", 14*24*time.Hour),
		},
		Realtime: RealtimeConfig{
			Broker:     getEnv("REALTIME_BROKER", BrokerLocal),
			Channel:    getEnv("REALTIME_CHANNEL", "library:events"),
			BufferSize: getEnvInt("REALTIME_BUFFER", 64),
			Heartbeat:  getEnvDuration("REALTIME_HEARTBEAT", 25*time.Second),
		},
		Worker: WorkerConfig{
			Concurrency:   getEnvInt("WORKER_CONCURRENCY", 10),
			ReconcileCron: getEnv("RECONCILE_CRON", "*/15 * * * *"),
			DriftLimit:    getEnvInt("RECONCILE_DRIFT_LIMIT", 50),
			CacheTTL:      getEnvDuration("AVAILABILITY_CACHE_TTL", time.Hour),
			HealthPort:    getEnv("WORKER_HEALTH_PORT", "9999"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the combination of settings
func (c *Config) Validate() error {
	switch c.Ledger.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.Ledger.StoreDriver)
	}

	switch c.Realtime.Broker {
	case BrokerLocal:
	case BrokerRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("REALTIME_BROKER=redis requires REDIS_ENABLED=true")
		}
	default:
		return fmt.Errorf("REALTIME_BROKER must be %q or %q, got %q", BrokerLocal, BrokerRedis, c.Realtime.Broker)
	}

	if c.Ledger.LoanPeriod <= 0 {
		return fmt.Errorf("LOAN_PERIOD must be positive")
	}
	if c.Realtime.BufferSize < 1 {
		return fmt.Errorf("REALTIME_BUFFER must be at least 1")
	}

	if c.App.Environment == "production" {
		if c.JWT.Secret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Ledger.StoreDriver == StoreDriverPostgres && c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
		if c.Ledger.StoreDriver == StoreDriverMemory {
			return fmt.Errorf("STORE_DRIVER=memory is not allowed in production")
		}
	}

	return nil
}

// AccessTokenTTL returns the JWT access token lifetime
func (c JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpiry) * time.Minute
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
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
