package leave

import (
	"time"

	"go-leavedesk/internal/balance"
)

type CreateLeaveRequest struct {
	// EmployeeID defaults to the caller's own employee record.
	EmployeeID     string  `json:"employee_id" binding:"omitempty,uuid"`
	LeaveType      string  `json:"leave_type" binding:"required,oneof=ANNUAL ABSENCE SICK MATERNITY"`
	StartDate      string  `json:"start_date" binding:"required"`
	EndDate        string  `json:"end_date" binding:"required"`
	Reason         string  `json:"reason" binding:"max=2000"`
	AttachmentPath *string `json:"attachment_path" binding:"omitempty,max=255"`
}

type UpdateLeaveRequest struct {
	LeaveType      string  `json:"leave_type" binding:"required,oneof=ANNUAL ABSENCE SICK MATERNITY"`
	StartDate      string  `json:"start_date" binding:"required"`
	EndDate        string  `json:"end_date" binding:"required"`
	Reason         string  `json:"reason" binding:"max=2000"`
	AttachmentPath *string `json:"attachment_path" binding:"omitempty,max=255"`
}

type DecisionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=APPROVED REJECTED"`
	Comment  string `json:"comment" binding:"max=2000"`
}

type CommentRequest struct {
	Comment string `json:"comment" binding:"max=2000"`
}

type ListFilter struct {
	EmployeeID string
	Status     string
	LeaveType  string
	Year       int
}

type ValidationResponse struct {
	ID         string     `json:"id"`
	ReviewerID string     `json:"reviewer_id"`
	Decision   *string    `json:"decision"`
	Comment    string     `json:"comment,omitempty"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
}

type LeaveResponse struct {
	ID             string                  `json:"id"`
	EmployeeID     string                  `json:"employee_id"`
	RequesterID    string                  `json:"requester_id"`
	ReviewerID     string                  `json:"reviewer_id"`
	LeaveType      string                  `json:"leave_type"`
	StartDate      string                  `json:"start_date"`
	EndDate        string                  `json:"end_date"`
	TotalDays      int                     `json:"total_days"`
	Reason         string                  `json:"reason"`
	AttachmentPath *string                 `json:"attachment_path,omitempty"`
	Status         string                  `json:"status"`
	SubmittedAt    *time.Time              `json:"submitted_at,omitempty"`
	DecidedAt      *time.Time              `json:"decided_at,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	Validation     *ValidationResponse     `json:"validation,omitempty"`
	Balance        *balance.LedgerResponse `json:"balance,omitempty"`
}

func mapToResponse(l Leave) LeaveResponse {
	return LeaveResponse{
		ID:             l.ID.String(),
		EmployeeID:     l.EmployeeID.String(),
		RequesterID:    l.RequesterID,
		ReviewerID:     l.ReviewerID.String(),
		LeaveType:      string(l.LeaveType),
		StartDate:      l.StartDate.Format(dateLayout),
		EndDate:        l.EndDate.Format(dateLayout),
		TotalDays:      l.TotalDays,
		Reason:         l.Reason,
		AttachmentPath: l.AttachmentPath,
		Status:         l.Status,
		SubmittedAt:    l.SubmittedAt,
		DecidedAt:      l.DecidedAt,
		CreatedAt:      l.CreatedAt,
	}
}

func mapToListResponse(leaves []Leave) []LeaveResponse {
	resp := make([]LeaveResponse, len(leaves))
	for i, l := range leaves {
		resp[i] = mapToResponse(l)
	}
	return resp
}

func mapValidation(v Validation) *ValidationResponse {
	return &ValidationResponse{
		ID:         v.ID.String(),
		ReviewerID: v.ReviewerID.String(),
		Decision:   v.Decision,
		Comment:    v.Comment,
		DecidedAt:  v.DecidedAt,
	}
}
