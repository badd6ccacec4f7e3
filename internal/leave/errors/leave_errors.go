package leaveerrors

import (
	"net/http"

	"go-leavedesk/internal/shared/apperror"
)

var (
	ErrInvalidLeaveID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave id",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveType = apperror.New(
		apperror.CodeInvalidInput,
		"leave_type must be one of ANNUAL, ABSENCE, SICK, MATERNITY",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrInvalidDecision = apperror.New(
		apperror.CodeInvalidInput,
		"decision must be APPROVED or REJECTED",
		http.StatusBadRequest,
	)
	ErrMissingEmployee = apperror.New(
		apperror.CodeUnauthorized,
		"no employee record is linked to the caller",
		http.StatusUnauthorized,
	)
	ErrFirstRequestDuration = apperror.New(
		apperror.CodeInvalidState,
		"first request of this type must last exactly the mandated number of days",
		http.StatusUnprocessableEntity,
	)
	ErrLeaveOverlap = apperror.New(
		apperror.CodeConflict,
		"leave already exists in overlapping period",
		http.StatusConflict,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave not found",
		http.StatusNotFound,
	)
	ErrLeaveForbidden = apperror.New(
		apperror.CodeForbidden,
		"leave belongs to another employee",
		http.StatusForbidden,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidState,
		"invalid leave status transition",
		http.StatusUnprocessableEntity,
	)
	ErrLeaveAlreadyDecided = apperror.New(
		apperror.CodeInvalidState,
		"leave has already been decided",
		http.StatusUnprocessableEntity,
	)
)
