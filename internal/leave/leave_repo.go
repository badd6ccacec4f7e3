package leave

import (
	"context"
	"time"

	"go-leavedesk/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var activeStatuses = []string{StatusPending, StatusApproved}

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, l *Leave) error
	FindAll(ctx context.Context, filter ListFilter) ([]Leave, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Leave, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*Leave, error)
	Update(ctx context.Context, l *Leave) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountActiveByType(ctx context.Context, employeeID uuid.UUID, leaveType domain.LeaveType, excludeID *uuid.UUID) (int64, error)
	HasOverlappingPeriod(ctx context.Context, employeeID uuid.UUID, startDate, endDate time.Time, excludeID *uuid.UUID) (bool, error)

	CreateValidation(ctx context.Context, v *Validation) error
	FindValidation(ctx context.Context, leaveID uuid.UUID) (*Validation, error)
	SaveValidation(ctx context.Context, v *Validation) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, l *Leave) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *repository) FindAll(ctx context.Context, filter ListFilter) ([]Leave, error) {
	q := r.db.WithContext(ctx).Model(&Leave{})
	if filter.EmployeeID != "" {
		q = q.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.LeaveType != "" {
		q = q.Where("leave_type = ?", filter.LeaveType)
	}
	if filter.Year > 0 {
		from := time.Date(filter.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		q = q.Where("start_date >= ? AND start_date < ?", from, from.AddDate(1, 0, 0))
	}

	var leaves []Leave
	err := q.Order("start_date DESC").Order("created_at DESC").Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Leave, error) {
	var l Leave
	if err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// FindForUpdate reads the request and locks its row on postgres until the
// transaction ends.
func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*Leave, error) {
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var l Leave
	if err := q.First(&l, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) Update(ctx context.Context, l *Leave) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&Leave{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CountActiveByType(ctx context.Context, employeeID uuid.UUID, leaveType domain.LeaveType, excludeID *uuid.UUID) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&Leave{}).
		Where("employee_id = ?", employeeID).
		Where("leave_type = ?", leaveType).
		Where("status IN ?", activeStatuses)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var count int64
	err := q.Count(&count).Error
	return count, err
}

func (r *repository) HasOverlappingPeriod(ctx context.Context, employeeID uuid.UUID, startDate, endDate time.Time, excludeID *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&Leave{}).
		Where("employee_id = ?", employeeID).
		Where("status IN ?", activeStatuses).
		Where("start_date <= ? AND end_date >= ?", endDate, startDate)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *repository) CreateValidation(ctx context.Context, v *Validation) error {
	return r.db.WithContext(ctx).Create(v).Error
}

// FindValidation returns the most recent validation of the request.
func (r *repository) FindValidation(ctx context.Context, leaveID uuid.UUID) (*Validation, error) {
	var v Validation
	err := r.db.WithContext(ctx).
		Where("leave_id = ?", leaveID).
		Order("created_at DESC").
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repository) SaveValidation(ctx context.Context, v *Validation) error {
	return r.db.WithContext(ctx).Save(v).Error
}
