package repository

import "errors"

// Sentinel errors surfaced by the postgres implementations. Services
// translate these into violations and HTTP statuses; the repositories
// themselves never write violation rows.
var (
	// ErrNoTenantScope mirrors tenantctx.ErrNoTenantScope for callers
	// that only import the repository package.
	ErrNoTenantScope = errors.New("operation requires a tenant scope")

	// ErrCrossTenantWrite means a write tried to attach to, or reference,
	// a row owned by another tenant.
	ErrCrossTenantWrite = errors.New("row belongs to another tenant")

	// ErrCrossTenantRead means a scoped lookup missed, but the row exists
	// under another tenant. Handlers answer 404 so the response stays
	// indistinguishable from non-existence, and record the violation.
	ErrCrossTenantRead = errors.New("row exists under another tenant")

	// ErrUserQuotaExceeded means the tenant is at its max_users limit.
	ErrUserQuotaExceeded = errors.New("tenant user quota exceeded")
)
