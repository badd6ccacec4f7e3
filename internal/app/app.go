package app

import (
	"fmt"

	"go-leavedesk/internal/audit"
	"go-leavedesk/internal/balance"
	"go-leavedesk/internal/config"
	"go-leavedesk/internal/employee"
	"go-leavedesk/internal/leave"
	"go-leavedesk/internal/messaging/kafka"
	"go-leavedesk/internal/reviewer"
	"go-leavedesk/internal/shared/connection"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

// NewLogger builds the process logger: JSON in production, console otherwise.
func NewLogger(cfg config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

// OpenDatabase connects to the configured driver.
func OpenDatabase(cfg config.Config) (*gorm.DB, error) {
	if cfg.DB.Driver == config.DriverSQLite {
		return connection.OpenSQLite(cfg.DB.SQLitePath, cfg.Ledger.LockTimeout)
	}
	return connection.ConnectGORMWithRetry(
		cfg.DB.Host,
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Name,
		cfg.DB.Port,
		cfg.DB.SSLMode,
		cfg.DB.MaxRetries,
	)
}

// Migrate creates or updates every table owned by the service.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&employee.Employee{},
		&balance.Ledger{},
		&leave.Leave{},
		&leave.Validation{},
		&audit.Entry{},
		&reviewer.Reviewer{},
		&kafka.OutboxEvent{},
	)
}

// OpenRedis returns nil when no address is configured; the balance cache and
// the idempotency middleware are then disabled.
func OpenRedis(cfg config.Config, logger *zap.Logger) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		logger.Info("redis not configured, cache and idempotency disabled")
		return nil, nil
	}
	return connection.ConnectRedisWithRetry(cfg.Redis.Addr, cfg.DB.MaxRetries)
}
