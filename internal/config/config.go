package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	AppEnv   string
	Port     string
	LogLevel string

	DB     Database
	Redis  Redis
	Kafka  Kafka
	Ledger Ledger

	JWTSecret          string
	CORSAllowedOrigins []string
	// DefaultReviewerEmployeeID is used when no reviewer is flagged as default.
	DefaultReviewerEmployeeID string
}

type Database struct {
	Driver     string
	Host       string
	User       string
	Password   string
	Name       string
	Port       string
	SSLMode    string
	SQLitePath string
	MaxRetries int
}

type Redis struct {
	Addr string
}

type Kafka struct {
	Broker             string
	OutboxPollInterval time.Duration
	ConsumerGroupID    string
}

type Ledger struct {
	LockTimeout time.Duration
	MaxAttempts int
}

// Load reads .env when present and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		AppEnv:   valueOr(getenv("APP_ENV"), "development"),
		Port:     valueOr(getenv("PORT"), "3000"),
		LogLevel: valueOr(getenv("LOG_LEVEL"), "info"),
		DB: Database{
			Driver:     strings.ToLower(valueOr(getenv("DB_DRIVER"), DriverPostgres)),
			Host:       getenv("DB_HOST"),
			User:       getenv("DB_USER"),
			Password:   getenv("DB_PASSWORD"),
			Name:       getenv("DB_NAME"),
			Port:       valueOr(getenv("DB_PORT"), "5432"),
			SSLMode:    valueOr(getenv("DB_SSLMODE"), "disable"),
			SQLitePath: valueOr(getenv("SQLITE_PATH"), "leavedesk.db"),
		},
		Redis: Redis{Addr: getenv("REDIS_ADDR")},
		Kafka: Kafka{
			Broker:          getenv("KAFKA_BROKER"),
			ConsumerGroupID: valueOr(getenv("KAFKA_CONSUMER_GROUP"), "go-leavedesk-ledger-provisioner"),
		},
		JWTSecret:                 getenv("JWT_SECRET"),
		DefaultReviewerEmployeeID: getenv("DEFAULT_REVIEWER_EMPLOYEE_ID"),
	}

	var err error
	if cfg.DB.MaxRetries, err = intOr(getenv("DB_MAX_RETRIES"), 5); err != nil {
		return Config{}, fmt.Errorf("DB_MAX_RETRIES: %w", err)
	}
	if cfg.Ledger.LockTimeout, err = durationOr(getenv("LEDGER_LOCK_TIMEOUT"), 2*time.Second); err != nil {
		return Config{}, fmt.Errorf("LEDGER_LOCK_TIMEOUT: %w", err)
	}
	if cfg.Ledger.MaxAttempts, err = intOr(getenv("LEDGER_MAX_ATTEMPTS"), 3); err != nil {
		return Config{}, fmt.Errorf("LEDGER_MAX_ATTEMPTS: %w", err)
	}
	if cfg.Kafka.OutboxPollInterval, err = durationOr(getenv("OUTBOX_POLL_INTERVAL"), 3*time.Second); err != nil {
		return Config{}, fmt.Errorf("OUTBOX_POLL_INTERVAL: %w", err)
	}

	if origins := getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	switch cfg.DB.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
	}
	if cfg.Ledger.MaxAttempts < 1 {
		return Config{}, fmt.Errorf("LEDGER_MAX_ATTEMPTS must be at least 1")
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func intOr(v string, fallback int) (int, error) {
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func durationOr(v string, fallback time.Duration) (time.Duration, error) {
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
