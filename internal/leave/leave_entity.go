package leave

import (
	"time"

	"go-leavedesk/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

const (
	DecisionApproved = "APPROVED"
	DecisionRejected = "REJECTED"
)

type Leave struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID  uuid.UUID `gorm:"type:uuid;not null;index:idx_leaves_employee_dates,priority:1"`
	RequesterID string    `gorm:"type:varchar(64);not null"`
	ReviewerID  uuid.UUID `gorm:"type:uuid;not null"`

	LeaveType      domain.LeaveType `gorm:"type:varchar(20);not null;default:'ANNUAL'"`
	StartDate      time.Time        `gorm:"type:date;not null;index:idx_leaves_employee_dates,priority:2"`
	EndDate        time.Time        `gorm:"type:date;not null;index:idx_leaves_employee_dates,priority:3"`
	TotalDays      int              `gorm:"type:int;not null"`
	Reason         string           `gorm:"type:text"`
	AttachmentPath *string          `gorm:"type:varchar(255)"`

	Status      string `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_leaves_status"`
	SubmittedAt *time.Time
	DecidedAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index:idx_leaves_deleted_at"`
}

// Year is the ledger year the request is charged to.
func (l *Leave) Year() int {
	return l.StartDate.Year()
}

// HoldsBalance reports whether the days of the request are still reserved
// on the ledger.
func (l *Leave) HoldsBalance() bool {
	return l.Status == StatusPending || l.Status == StatusApproved
}

// Validation is the reviewer decision paired with a request. It is created
// undecided together with the request.
type Validation struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	LeaveID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	ReviewerID uuid.UUID  `gorm:"type:uuid;not null"`
	Decision   *string    `gorm:"type:varchar(20)"`
	Comment    string     `gorm:"type:text"`
	DecidedAt  *time.Time
	CreatedAt  time.Time
}

func (Validation) TableName() string {
	return "leave_validations"
}
