package dbtx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-leavedesk/internal/shared/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	pgLockNotAvailable     = "55P03"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

type Options struct {
	// LockTimeout bounds how long a statement waits for a row lock (postgres).
	LockTimeout time.Duration
	// MaxAttempts is the number of times a transaction is tried before the
	// contention is reported as apperror.ErrConflict.
	MaxAttempts int
	// Backoff is the base delay between attempts; it grows linearly.
	Backoff time.Duration
}

func DefaultOptions() Options {
	return Options{
		LockTimeout: 2 * time.Second,
		MaxAttempts: 3,
		Backoff:     50 * time.Millisecond,
	}
}

// Runner runs functions inside a database transaction and retries them when
// they lose a lock race.
type Runner struct {
	db     *gorm.DB
	opts   Options
	logger *zap.Logger
}

func NewRunner(db *gorm.DB, opts Options, logger ...*zap.Logger) *Runner {
	l := zap.L().Named("dbtx.runner")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("dbtx.runner")
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Runner{db: db, opts: opts, logger: l}
}

func (r *Runner) DB() *gorm.DB {
	return r.db
}

// Run executes fn in a transaction. Business errors returned by fn roll the
// transaction back and are returned unchanged. Lock timeouts, serialization
// failures and deadlocks are retried; when the budget is spent the caller
// gets apperror.ErrConflict.
func (r *Runner) Run(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.opts.MaxAttempts; attempt++ {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := r.setLockTimeout(tx); err != nil {
				return err
			}
			return fn(tx)
		})
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}

		lastErr = err
		r.logger.Warn("transaction lost lock race",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.opts.MaxAttempts),
			zap.Error(err),
		)
		if attempt == r.opts.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.opts.Backoff * time.Duration(attempt)):
		}
	}

	return apperror.ErrConflict.WithCause(lastErr)
}

func (r *Runner) setLockTimeout(tx *gorm.DB) error {
	if r.opts.LockTimeout <= 0 || tx.Dialector.Name() != "postgres" {
		return nil
	}
	stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.opts.LockTimeout.Milliseconds())
	return tx.Exec(stmt).Error
}

// IsTransient reports whether err comes from lock contention that a retry
// may resolve.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgSerializationFailure, pgDeadlockDetected:
			return true
		}
		return false
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}

	return false
}
