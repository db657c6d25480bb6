package service

import "errors"

// Service-level sentinels. Handlers map them onto the HTTP taxonomy:
// validation 400, authentication 401, authorization 403, not-found 404,
// everything else 500.
var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrTenantExists   = errors.New("tenant already exists")
	ErrTenantInactive = errors.New("tenant account is inactive")

	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email verification required")

	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("permission denied")
	ErrNotFound   = errors.New("resource not found")

	// ErrStepOrder enforces the wizard's strict linearity.
	ErrStepOrder = errors.New("all previous steps must be completed first")
)
