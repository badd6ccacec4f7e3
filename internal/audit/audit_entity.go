package audit

import (
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionCreated   Action = "CREATED"
	ActionUpdated   Action = "UPDATED"
	ActionSubmitted Action = "SUBMITTED"
	ActionApproved  Action = "APPROVED"
	ActionRejected  Action = "REJECTED"
	ActionCancelled Action = "CANCELLED"
)

// Entry is one immutable line of a request's history.
type Entry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	LeaveID    uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_audit_entries_leave_time,priority:1"`
	Action     Action    `gorm:"type:varchar(20);not null"`
	ActorID    string    `gorm:"type:varchar(64)"`
	ActorName  string    `gorm:"type:varchar(150)"`
	OccurredAt time.Time `gorm:"not null;index:idx_leave_audit_entries_leave_time,priority:2"`
}

func (Entry) TableName() string {
	return "leave_audit_entries"
}
