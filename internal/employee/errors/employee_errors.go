package employeeerrors

import (
	"net/http"

	"go-leavedesk/internal/shared/apperror"
)

var (
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"Employee not found",
		http.StatusNotFound,
	)
	ErrEmployeeAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"An employee is already linked to this identity",
		http.StatusConflict,
	)
	ErrMatriculeAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"Registration number already exists",
		http.StatusConflict,
	)
	ErrMatriculeUnavailable = apperror.New(
		apperror.CodeInternalError,
		"Could not allocate a free registration number",
		http.StatusInternalServerError,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid employee ID",
		http.StatusBadRequest,
	)
	ErrInvalidRole = apperror.New(
		apperror.CodeInvalidInput,
		"Role must be one of admin, rh, employe",
		http.StatusBadRequest,
	)
	ErrInvalidServiceStartDate = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid service_start_date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrMissingIdentity = apperror.New(
		apperror.CodeUnauthorized,
		"No identity to provision an employee for",
		http.StatusUnauthorized,
	)
	ErrEmployeeHasActiveLeaves = apperror.New(
		apperror.CodeInvalidState,
		"Employee still has pending or approved leave requests",
		http.StatusUnprocessableEntity,
	)
)
