package app

import (
	"context"
	"time"

	"go-leavedesk/internal/audit"
	"go-leavedesk/internal/balance"
	"go-leavedesk/internal/config"
	"go-leavedesk/internal/employee"
	"go-leavedesk/internal/leave"
	"go-leavedesk/internal/messaging/kafka"
	"go-leavedesk/internal/rbac"
	"go-leavedesk/internal/rbac/infra"
	"go-leavedesk/internal/reviewer"
	"go-leavedesk/internal/shared/contextutil"
	"go-leavedesk/internal/shared/dbtx"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const balanceCacheTTL = 5 * time.Minute

// BuildApp opens the stores, migrates them and registers every module on router.
// The returned function releases the connections.
func BuildApp(router *gin.Engine, cfg config.Config, logger *zap.Logger) (func(), error) {
	db, err := OpenDatabase(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("database connection established", zap.String("driver", cfg.DB.Driver))

	if err := Migrate(db); err != nil {
		return nil, err
	}

	rdb, err := OpenRedis(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := registerModules(router, cfg, db, rdb, logger); err != nil {
		return nil, err
	}

	return func() {
		if rdb != nil {
			_ = rdb.Close()
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}, nil
}

func newRunner(db *gorm.DB, cfg config.Config, logger *zap.Logger) *dbtx.Runner {
	opts := dbtx.DefaultOptions()
	opts.LockTimeout = cfg.Ledger.LockTimeout
	opts.MaxAttempts = cfg.Ledger.MaxAttempts
	return dbtx.NewRunner(db, opts, logger)
}

func registerModules(
	router *gin.Engine,
	cfg config.Config,
	db *gorm.DB,
	rdb *redis.Client,
	logger *zap.Logger,
) error {
	fallbackReviewer := uuid.Nil
	if cfg.DefaultReviewerEmployeeID != "" {
		id, err := uuid.Parse(cfg.DefaultReviewerEmployeeID)
		if err != nil {
			return err
		}
		fallbackReviewer = id
	}

	// --- Repositories ---
	auditRepo := audit.NewRepository(db)
	balanceRepo := balance.NewRepository(db)
	employeeRepo := employee.NewRepository(db)
	leaveRepo := leave.NewRepository(db)
	outboxRepo := kafka.NewOutboxRepository(db)
	reviewerRepo := reviewer.NewRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService, err := rbac.NewService(enforcer, logger)
	if err != nil {
		return err
	}

	// --- Services ---
	tx := newRunner(db, cfg, logger)
	keeper := balance.NewKeeper(balanceRepo, balance.DefaultPolicyTable(), logger)
	cache := balance.NewCache(rdb, balanceCacheTTL, logger)
	reviewers := reviewer.NewResolver(reviewerRepo, fallbackReviewer, logger)

	balanceService := balance.NewService(tx, balanceRepo, keeper, cache, logger)
	employeeService := employee.NewService(tx, employeeRepo, keeper, outboxRepo, cache, logger)
	leaveService := leave.NewService(tx, leaveRepo, keeper, auditRepo, reviewers, outboxRepo, cache, logger)

	// --- Handlers ---
	balanceHandler := balance.NewHandler(balanceService, logger)
	employeeHandler := employee.NewHandler(employeeService, logger)
	leaveHandler := leave.NewHandler(leaveService, employeeService, rbacService, logger)
	rbacHandler := rbac.NewHandler(rbacService, logger)

	resolveEmployee := func(ctx context.Context, actor contextutil.Actor) (string, error) {
		empl, err := employeeService.EnsureForIdentity(ctx, actor)
		if err != nil {
			return "", err
		}
		return empl.ID, nil
	}

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		rbac.RegisterRoutes(api, rbacHandler, cfg.JWTSecret)
		employee.RegisterRoutes(api, employeeHandler, rbacService, cfg.JWTSecret, logger)
		balance.RegisterRoutes(api, balanceHandler, rbacService, cfg.JWTSecret, resolveEmployee, logger)
		leave.RegisterRoutes(api, leaveHandler, rbacService, cfg.JWTSecret, rdb, logger)
	}

	return nil
}
