package rbac

import (
	"net/http"

	"go-leavedesk/internal/shared/apperror"
)

type PermissionResponse struct {
	Resource  string `json:"resource"`
	Action    string `json:"action"`
	GrantedBy string `json:"granted_by"`
}

var ErrUnknownRole = apperror.New(apperror.CodeInvalidInput, "unknown role", http.StatusBadRequest)
