package domain

type EnforceRequest struct {
	Role     string `json:"role" binding:"required"`
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}

type EnforceResponse struct {
	Allowed bool `json:"allowed"`
}

const (
	RoleAdmin    = "admin"
	RoleHR       = "rh"
	RoleEmployee = "employe"
)

func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleHR, RoleEmployee:
		return true
	default:
		return false
	}
}
