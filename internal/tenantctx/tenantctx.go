// Package tenantctx carries the per-request scope: which tenant and user
// a piece of code is acting for. The scope travels on context.Context, so
// concurrent requests can never observe each other's values and teardown
// is simply the request context going out of scope. Nested impersonation
// (system jobs acting per tenant) falls out of context nesting: deriving a
// child context shadows the scope, returning restores it.
package tenantctx

import (
	"context"
	"errors"
	"sync/atomic"
)

type ctxKey int

const (
	scopeKey ctxKey = iota
	systemKey
)

// ErrNoTenantScope is returned when tenant identity is required but no
// scope is installed. Callers decide whether that is fatal.
var ErrNoTenantScope = errors.New("no tenant scope in context")

// Scope identifies the tenant and user a request runs for.
type Scope struct {
	TenantID   string
	TenantSlug string
	TenantName string
	TenantPlan string
	UserID     string
	UserRole   string
	RequestID  string
	SessionID  string
	IPAddress  string
	UserAgent  string

	// seq orders audit records within a request without a global lock.
	seq *atomic.Int64
}

// NewScope prepares a scope with its own audit sequence counter.
func NewScope(s Scope) Scope {
	s.seq = new(atomic.Int64)
	return s
}

// NextSequence returns a monotonically increasing ordinal for this scope.
func (s Scope) NextSequence() int64 {
	if s.seq == nil {
		return 0
	}
	return s.seq.Add(1)
}

// With installs the scope on a derived context.
func With(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey, s)
}

// FromContext returns the innermost scope, if any.
func FromContext(ctx context.Context) (Scope, bool) {
	s, ok := ctx.Value(scopeKey).(Scope)
	return s, ok
}

// TenantID returns the scoped tenant or ErrNoTenantScope.
func TenantID(ctx context.Context) (string, error) {
	s, ok := FromContext(ctx)
	if !ok || s.TenantID == "" {
		return "", ErrNoTenantScope
	}
	return s.TenantID, nil
}

// UserID returns the scoped user, empty for system operations.
func UserID(ctx context.Context) string {
	s, _ := FromContext(ctx)
	return s.UserID
}

// RequestID returns the scoped request id, empty outside a request.
func RequestID(ctx context.Context) string {
	s, _ := FromContext(ctx)
	return s.RequestID
}

// WithSystem marks the context as a cross-tenant system scope. Background
// jobs that iterate tenants must still install a per-tenant scope with
// With for each iteration; WithSystem only unlocks the filter bypass.
func WithSystem(ctx context.Context) context.Context {
	return context.WithValue(ctx, systemKey, true)
}

// IsSystem reports whether the context carries the system bypass mark.
func IsSystem(ctx context.Context) bool {
	v, _ := ctx.Value(systemKey).(bool)
	return v
}

// WithTenant derives a context impersonating one tenant. Used by system
// jobs between WithSystem and per-tenant work.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return With(ctx, NewScope(Scope{TenantID: tenantID}))
}
