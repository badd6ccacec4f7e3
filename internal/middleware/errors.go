package middleware

import (
	"net/http"

	"go-leavedesk/internal/shared/apperror"
)

var (
	ErrTokenMissing = apperror.New(apperror.CodeUnauthorized, "token not found", http.StatusUnauthorized)
	ErrInvalidToken = apperror.New(apperror.CodeUnauthorized, "invalid token", http.StatusUnauthorized)
	ErrTokenExpired = apperror.New(apperror.CodeUnauthorized, "token expired", http.StatusUnauthorized)
	ErrTooManyReqs  = apperror.New("TOO_MANY_REQUESTS", "too many requests", http.StatusTooManyRequests)
	ErrInProgress   = apperror.New("PROCESSING", "a request with this idempotency key is still being processed", http.StatusConflict)
)
