package balance

import (
	"time"

	"go-leavedesk/internal/domain"

	"github.com/google/uuid"
)

// Ledger holds the remaining leave and absence days of one employee for one
// calendar year. Remaining counters are never negative at rest; ceilings are
// the policy-derived maxima a credit may restore up to.
type Ledger struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_balance_ledger_employee_year"`
	Year       int       `gorm:"not null;uniqueIndex:uq_balance_ledger_employee_year"`

	AnnualRemaining  int `gorm:"not null"`
	AbsenceRemaining int `gorm:"not null"`
	AnnualCeiling    int `gorm:"not null"`
	AbsenceCeiling   int `gorm:"not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Ledger) TableName() string {
	return "balance_ledgers"
}

// Remaining returns the counter debited by leaveType; ok is false for types
// that are not balance tracked.
func (l *Ledger) Remaining(leaveType domain.LeaveType) (days int, ok bool) {
	switch leaveType {
	case domain.LeaveTypeAnnual:
		return l.AnnualRemaining, true
	case domain.LeaveTypeAbsence:
		return l.AbsenceRemaining, true
	default:
		return 0, false
	}
}

func (l *Ledger) ceiling(leaveType domain.LeaveType) int {
	if leaveType == domain.LeaveTypeAnnual {
		return l.AnnualCeiling
	}
	return l.AbsenceCeiling
}

func (l *Ledger) set(leaveType domain.LeaveType, days int) {
	if leaveType == domain.LeaveTypeAnnual {
		l.AnnualRemaining = days
		return
	}
	l.AbsenceRemaining = days
}

// Profile is the part of an employee record the allotment policy reads.
type Profile struct {
	Role  string
	Grade string
}
