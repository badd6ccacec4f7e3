package reviewer

import (
	"time"

	"github.com/google/uuid"
)

// Reviewer is the responsable who validates leave requests.
type Reviewer struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	FullName   string    `gorm:"type:varchar(150);not null"`
	IsDefault  bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Reviewer) TableName() string {
	return "reviewers"
}
