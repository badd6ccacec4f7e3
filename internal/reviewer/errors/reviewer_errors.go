package reviewererrors

import (
	"net/http"

	"go-leavedesk/internal/shared/apperror"
)

var (
	ErrNoReviewer = apperror.New(
		apperror.CodeInvalidState,
		"no reviewer is available to validate the request",
		http.StatusUnprocessableEntity,
	)
	ErrInvalidReviewerEmployee = apperror.New(
		apperror.CodeInvalidInput,
		"invalid reviewer employee id",
		http.StatusBadRequest,
	)
)
