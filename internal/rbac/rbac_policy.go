package rbac

import "go-leavedesk/internal/domain"

type Permission struct {
	Role     string
	Resource string
	Action   string
}

// Inheritance is child -> parent: rh gets every employe permission and admin
// every rh permission.
var DefaultInheritance = [][2]string{
	{domain.RoleHR, domain.RoleEmployee},
	{domain.RoleAdmin, domain.RoleHR},
}

var DefaultPermissions = []Permission{
	{domain.RoleEmployee, "leave", "create"},
	{domain.RoleEmployee, "leave", "read"},
	{domain.RoleEmployee, "leave", "update"},
	{domain.RoleEmployee, "leave", "cancel"},
	{domain.RoleEmployee, "balance", "read"},

	{domain.RoleHR, "leave", "approve"},
	{domain.RoleHR, "leave", "read_all"},
	{domain.RoleHR, "employee", "read"},
	{domain.RoleHR, "employee", "manage"},
	{domain.RoleHR, "balance", "read_all"},
	{domain.RoleHR, "balance", "reset"},

	{domain.RoleAdmin, "leave", "delete"},
	{domain.RoleAdmin, "employee", "delete"},
}
