package employee

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Employee struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID           *string    `gorm:"type:varchar(64);uniqueIndex:uq_employee_user"`
	Matricule        string     `gorm:"type:varchar(8);not null;uniqueIndex:uq_employee_matricule"`
	FirstName        string     `gorm:"type:varchar(100);not null"`
	LastName         string     `gorm:"type:varchar(100)"`
	Role             string     `gorm:"type:varchar(20);not null"`
	Grade            string     `gorm:"type:varchar(10)"`
	PersonnelType    string     `gorm:"type:varchar(50)"`
	ServiceStartDate *time.Time `gorm:"type:date"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

func (Employee) TableName() string {
	return "employees"
}

func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// splitName turns a display name from the identity provider into first and
// last name; everything after the first word is the last name.
func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
