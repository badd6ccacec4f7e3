package balance

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=balance_repo.go -destination=mock/balance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindForUpdate(ctx context.Context, employeeID uuid.UUID, year int) (*Ledger, error)
	FindByEmployeeAndYear(ctx context.Context, employeeID uuid.UUID, year int) (*Ledger, error)
	ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]Ledger, error)
	CreateIfAbsent(ctx context.Context, l *Ledger) error
	Save(ctx context.Context, l *Ledger) error
	EmployeeProfile(ctx context.Context, employeeID uuid.UUID) (Profile, error)
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

// FindForUpdate reads the ledger row and holds a row lock on it until the
// surrounding transaction ends. sqlite has no row locks; there the
// transaction itself is opened with BEGIN IMMEDIATE.
func (r *repository) FindForUpdate(ctx context.Context, employeeID uuid.UUID, year int) (*Ledger, error) {
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var l Ledger
	err := q.Where("employee_id = ? AND year = ?", employeeID, year).First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) FindByEmployeeAndYear(ctx context.Context, employeeID uuid.UUID, year int) (*Ledger, error) {
	var l Ledger
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND year = ?", employeeID, year).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]Ledger, error) {
	var ledgers []Ledger
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("year DESC").
		Find(&ledgers).Error
	return ledgers, err
}

// CreateIfAbsent inserts l unless a ledger for the same employee and year
// already exists; a concurrent first access therefore never fails.
func (r *repository) CreateIfAbsent(ctx context.Context, l *Ledger) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "employee_id"}, {Name: "year"}},
			DoNothing: true,
		}).
		Create(l).Error
}

func (r *repository) Save(ctx context.Context, l *Ledger) error {
	return r.db.WithContext(ctx).
		Model(l).
		Select("annual_remaining", "absence_remaining", "annual_ceiling", "absence_ceiling", "updated_at").
		Updates(l).Error
}

func (r *repository) EmployeeProfile(ctx context.Context, employeeID uuid.UUID) (Profile, error) {
	var p Profile
	err := r.db.WithContext(ctx).
		Table("employees").
		Select("role, grade").
		Where("id = ?", employeeID).
		Where("deleted_at IS NULL").
		Take(&p).Error
	return p, err
}
