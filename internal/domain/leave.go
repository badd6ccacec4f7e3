package domain

type LeaveType string

const (
	LeaveTypeAnnual    LeaveType = "ANNUAL"
	LeaveTypeAbsence   LeaveType = "ABSENCE"
	LeaveTypeSick      LeaveType = "SICK"
	LeaveTypeMaternity LeaveType = "MATERNITY"
)

func (t LeaveType) IsValid() bool {
	switch t {
	case LeaveTypeAnnual, LeaveTypeAbsence, LeaveTypeSick, LeaveTypeMaternity:
		return true
	default:
		return false
	}
}

// BalanceTracked reports whether requests of this type consume ledger days.
// Sick and maternity leave are not counted against any quota.
func (t LeaveType) BalanceTracked() bool {
	return t == LeaveTypeAnnual || t == LeaveTypeAbsence
}

// FirstRequestDays is the exact duration the first request of a tracked type
// must have. ok is false for types without such a rule.
func (t LeaveType) FirstRequestDays() (days int, ok bool) {
	switch t {
	case LeaveTypeAnnual:
		return 15, true
	case LeaveTypeAbsence:
		return 3, true
	default:
		return 0, false
	}
}
