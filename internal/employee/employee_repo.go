package employee

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, empl *Employee) error
	FindAll(ctx context.Context, q string) ([]Employee, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	FindByUserID(ctx context.Context, userID string) (*Employee, error)
	MatriculeExists(ctx context.Context, matricule string) (bool, error)
	CountActiveLeaves(ctx context.Context, id uuid.UUID) (int64, error)
	Update(ctx context.Context, empl *Employee) error
	Delete(ctx context.Context, id uuid.UUID) error
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

func (r *repository) Create(ctx context.Context, empl *Employee) error {
	return r.db.WithContext(ctx).Create(empl).Error
}

func (r *repository) FindAll(ctx context.Context, q string) ([]Employee, error) {
	var emps []Employee
	query := r.db.WithContext(ctx).Order("last_name ASC, first_name ASC")
	if q != "" {
		like := "%" + q + "%"
		query = query.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR matricule LIKE ?", like, like, like)
	}
	err := query.Find(&emps).Error
	return emps, err
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Employee, error) {
	var empl Employee
	if err := r.db.WithContext(ctx).First(&empl, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &empl, nil
}

func (r *repository) FindByUserID(ctx context.Context, userID string) (*Employee, error) {
	var empl Employee
	if err := r.db.WithContext(ctx).First(&empl, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &empl, nil
}

// MatriculeExists also sees soft-deleted employees; a registration number is
// never handed out twice.
func (r *repository) MatriculeExists(ctx context.Context, matricule string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Unscoped().
		Model(&Employee{}).
		Where("matricule = ?", matricule).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) CountActiveLeaves(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("leaves").
		Where("employee_id = ?", id).
		Where("status IN ?", []string{"PENDING", "APPROVED"}).
		Where("deleted_at IS NULL").
		Count(&count).Error
	return count, err
}

func (r *repository) Update(ctx context.Context, empl *Employee) error {
	return r.db.WithContext(ctx).Save(empl).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&Employee{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
