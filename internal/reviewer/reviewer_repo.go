package reviewer

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=reviewer_repo.go -destination=mock/reviewer_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindDefault(ctx context.Context) (*Reviewer, error)
	FindByEmployeeID(ctx context.Context, employeeID uuid.UUID) (*Reviewer, error)
	CreateIfAbsent(ctx context.Context, r *Reviewer) error
	EmployeeFullName(ctx context.Context, employeeID uuid.UUID) (string, error)
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

func (r *repository) FindDefault(ctx context.Context) (*Reviewer, error) {
	var rv Reviewer
	err := r.db.WithContext(ctx).
		Where("is_default = ?", true).
		Order("created_at ASC").
		First(&rv).Error
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *repository) FindByEmployeeID(ctx context.Context, employeeID uuid.UUID) (*Reviewer, error) {
	var rv Reviewer
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		First(&rv).Error
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *repository) CreateIfAbsent(ctx context.Context, rv *Reviewer) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "employee_id"}},
			DoNothing: true,
		}).
		Create(rv).Error
}

func (r *repository) EmployeeFullName(ctx context.Context, employeeID uuid.UUID) (string, error) {
	var row struct {
		FirstName string
		LastName  string
	}
	err := r.db.WithContext(ctx).
		Table("employees").
		Select("first_name, last_name").
		Where("id = ?", employeeID).
		Where("deleted_at IS NULL").
		Take(&row).Error
	if err != nil {
		return "", err
	}
	return row.FirstName + " " + row.LastName, nil
}
