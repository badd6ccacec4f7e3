package reviewer

import (
	"context"
	"errors"
	"strings"

	reviewererrors "go-leavedesk/internal/reviewer/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Resolver picks who validates a request and records who decided it. It is
// injected into the lifecycle engine and always runs inside the engine's
// transaction.
type Resolver interface {
	WithTx(tx *gorm.DB) Resolver
	AssignReviewer(ctx context.Context, employeeID uuid.UUID) (*Reviewer, error)
	EnsureReviewer(ctx context.Context, employeeID uuid.UUID, fullName string) (*Reviewer, error)
}

type resolver struct {
	repo     Repository
	fallback uuid.UUID
	logger   *zap.Logger
}

// NewResolver returns the default resolver. fallbackEmployeeID is used when
// no reviewer is flagged as default; uuid.Nil disables the fallback.
func NewResolver(repo Repository, fallbackEmployeeID uuid.UUID, logger ...*zap.Logger) Resolver {
	l := zap.L().Named("reviewer.resolver")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("reviewer.resolver")
	}
	return &resolver{repo: repo, fallback: fallbackEmployeeID, logger: l}
}

func (r *resolver) WithTx(tx *gorm.DB) Resolver {
	return &resolver{repo: r.repo.WithTx(tx), fallback: r.fallback, logger: r.logger}
}

func (r *resolver) AssignReviewer(ctx context.Context, employeeID uuid.UUID) (*Reviewer, error) {
	rv, err := r.repo.FindDefault(ctx)
	if err == nil {
		return rv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if r.fallback == uuid.Nil {
		r.logger.Warn("no default reviewer configured", zap.String("employee_id", employeeID.String()))
		return nil, reviewererrors.ErrNoReviewer
	}

	name, err := r.repo.EmployeeFullName(ctx, r.fallback)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Warn("fallback reviewer employee missing", zap.String("reviewer_employee_id", r.fallback.String()))
			return nil, reviewererrors.ErrNoReviewer
		}
		return nil, err
	}
	return r.EnsureReviewer(ctx, r.fallback, name)
}

func (r *resolver) EnsureReviewer(ctx context.Context, employeeID uuid.UUID, fullName string) (*Reviewer, error) {
	if employeeID == uuid.Nil {
		return nil, reviewererrors.ErrInvalidReviewerEmployee
	}

	rv, err := r.repo.FindByEmployeeID(ctx, employeeID)
	if err == nil {
		return rv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		fullName = employeeID.String()
	}
	if err := r.repo.CreateIfAbsent(ctx, &Reviewer{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		FullName:   fullName,
	}); err != nil {
		return nil, err
	}
	r.logger.Info("reviewer registered",
		zap.String("employee_id", employeeID.String()),
		zap.String("full_name", fullName),
	)
	return r.repo.FindByEmployeeID(ctx, employeeID)
}
