package domain

import "slices"

// Role represents a user role in the system
type Role string

const (
	// RolePlatformAdmin operates across tenants and belongs to none
	RolePlatformAdmin Role = "platform_admin"

	// RoleTenantAdmin manages a single tenant: users, settings, onboarding
	RoleTenantAdmin Role = "tenant_admin"

	// RoleFirmAdmin manages an accounting firm's client companies
	RoleFirmAdmin Role = "firm_admin"

	// RoleCFO has full read access plus approval authority
	RoleCFO Role = "cfo"

	// RoleAccountant posts entries and runs reports
	RoleAccountant Role = "accountant"

	// RoleStaff has basic scoped access
	RoleStaff Role = "staff"
)

// ValidRoles contains all valid roles in the system
var ValidRoles = []Role{
	RolePlatformAdmin,
	RoleTenantAdmin,
	RoleFirmAdmin,
	RoleCFO,
	RoleAccountant,
	RoleStaff,
}

// IsValidRole checks if a given role is valid
func IsValidRole(role string) bool {
	return slices.Contains(ValidRoles, Role(role))
}

// RoleIn checks if role is one of the required roles
func RoleIn(role Role, required ...Role) bool {
	return slices.Contains(required, role)
}
