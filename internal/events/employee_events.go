package events

import "time"

const EmployeeLifecycleTopic = "hr.employee.lifecycle.v1"

const (
	EmployeeCreated        = "employee_created"
	EmployeeProfileChanged = "employee_profile_changed"
)

const AggregateEmployee = "employee"

// SourceLeaveDesk marks events this service emitted itself; their ledger
// effects were already applied in the emitting transaction.
const SourceLeaveDesk = "leavedesk"

// EmployeeLifecycleEvent is published by this service and by the external
// HR directory. Previous* fields are only set on employee_profile_changed.
type EmployeeLifecycleEvent struct {
	EventType     string    `json:"event_type"`
	Source        string    `json:"source,omitempty"`
	EmployeeID    string    `json:"employee_id"`
	Role          string    `json:"role"`
	Grade         string    `json:"grade,omitempty"`
	PreviousRole  string    `json:"previous_role,omitempty"`
	PreviousGrade string    `json:"previous_grade,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// PolicyChanged reports whether the event changes the attributes the
// balance policy depends on.
func (e EmployeeLifecycleEvent) PolicyChanged() bool {
	return e.Role != e.PreviousRole || e.Grade != e.PreviousGrade
}
