// Package resolver derives the acting tenant from an incoming request.
// Strategies run in fixed precedence: explicit header, bearer token claim,
// subdomain, custom domain. Explicit signals beat implicit ones and token
// claims beat URL structure; a later strategy is only consulted when the
// earlier ones yield nothing.
package resolver

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/repository"
	"github.com/ledgerstack/tenant-core/pkg/logger"
)

// ErrTenantNotFound means every strategy came up empty. Whether that is
// fatal depends on the endpoint: protected routes reject, platform-admin
// routes proceed tenant-less.
var ErrTenantNotFound = errors.New("no tenant resolved for request")

// reservedSubdomains never resolve to a tenant slug.
var reservedSubdomains = map[string]bool{
	"www":   true,
	"api":   true,
	"admin": true,
	"app":   true,
	"mail":  true,
	"ftp":   true,
}

// publicPathPrefixes bypass resolution entirely. Requests here never carry
// a tenant and must not produce resolution warnings.
var publicPathPrefixes = []string{
	"/admin/",
	"/static/",
	"/media/",
	"/health",
	"/schema",
	"/docs",
	"/redoc",
	"/auth/login",
	"/auth/register",
	"/auth/token",
}

// Request is the transport-neutral slice of an HTTP request the resolver
// needs. The middleware fills it from gin; tests fill it directly.
type Request struct {
	TenantIDHeader string
	BearerToken    string
	Host           string
	Path           string
}

type Resolver struct {
	tenants   repository.TenantRepository
	cache     *Cache
	logger    *logger.Logger
	jwtSecret []byte
}

func New(tenants repository.TenantRepository, cache *Cache, jwtSecret string, log *logger.Logger) *Resolver {
	return &Resolver{
		tenants:   tenants,
		cache:     cache,
		logger:    log,
		jwtSecret: []byte(jwtSecret),
	}
}

// IsReservedSubdomain reports whether the label can never be a tenant slug.
func IsReservedSubdomain(s string) bool {
	return reservedSubdomains[strings.ToLower(s)]
}

// IsPublicPath reports whether the path skips tenant resolution.
func IsPublicPath(path string) bool {
	for _, prefix := range publicPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Resolve runs the strategies in precedence order. A hit on an inactive
// tenant is treated as not found and fails over to the next strategy.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*domain.Tenant, error) {
	if tenant := r.fromHeader(ctx, req.TenantIDHeader); tenant != nil {
		return tenant, nil
	}
	if tenant := r.fromToken(ctx, req.BearerToken); tenant != nil {
		return tenant, nil
	}
	if tenant := r.fromSubdomain(ctx, req.Host); tenant != nil {
		return tenant, nil
	}
	if tenant := r.fromDomain(ctx, req.Host); tenant != nil {
		return tenant, nil
	}
	return nil, ErrTenantNotFound
}

func (r *Resolver) fromHeader(ctx context.Context, tenantID string) *domain.Tenant {
	if tenantID == "" {
		return nil
	}
	tenant, err := r.lookupByID(ctx, tenantID)
	if err != nil {
		r.logger.Debug("header tenant lookup failed",
			zap.String("tenant_id", tenantID),
			zap.Error(err))
		return nil
	}
	return tenant
}

// fromToken decodes the bearer token for its tenant_id claim. Signature
// errors are ignored here: the auth middleware rejects bad tokens with a
// proper 401, the resolver only mines valid ones for routing.
func (r *Resolver) fromToken(ctx context.Context, token string) *domain.Tenant {
	if token == "" {
		return nil
	}

	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return r.jwtSecret, nil
	}); err != nil {
		return nil
	}

	tenantID, _ := claims["tenant_id"].(string)
	if tenantID == "" {
		return nil
	}

	tenant, err := r.lookupByID(ctx, tenantID)
	if err != nil {
		r.logger.Debug("token tenant lookup failed",
			zap.String("tenant_id", tenantID),
			zap.Error(err))
		return nil
	}
	return tenant
}

func (r *Resolver) fromSubdomain(ctx context.Context, host string) *domain.Tenant {
	slug := SubdomainOf(host)
	if slug == "" {
		return nil
	}

	if tenant := r.cache.GetByHost(ctx, host); tenant != nil {
		return tenant
	}

	tenant, err := r.tenants.GetBySlug(ctx, slug)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Warn("subdomain tenant lookup failed",
				zap.String("slug", slug),
				zap.Error(err))
		}
		return nil
	}
	if !tenant.IsActive {
		return nil
	}
	r.cache.PutByHost(ctx, host, tenant)
	return tenant
}

func (r *Resolver) fromDomain(ctx context.Context, host string) *domain.Tenant {
	host = stripPort(host)
	if host == "" {
		return nil
	}

	if tenant := r.cache.GetByHost(ctx, host); tenant != nil {
		return tenant
	}

	d, err := r.tenants.GetDomainByHost(ctx, host)
	if err != nil {
		return nil
	}
	tenant, err := r.lookupByID(ctx, d.TenantID)
	if err != nil {
		return nil
	}
	r.cache.PutByHost(ctx, host, tenant)
	return tenant
}

func (r *Resolver) lookupByID(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	if tenant := r.cache.GetByID(ctx, tenantID); tenant != nil {
		return tenant, nil
	}
	tenant, err := r.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.IsActive {
		return nil, ErrTenantNotFound
	}
	r.cache.PutByID(ctx, tenant)
	return tenant, nil
}

// SubdomainOf extracts a candidate tenant slug from the host. Both
// production (acme.example.com) and local (acme.localhost) forms work: any
// host with at least two labels whose first label is not reserved
// qualifies.
func SubdomainOf(host string) string {
	host = stripPort(host)
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return ""
	}
	first := strings.ToLower(labels[0])
	if first == "" || reservedSubdomains[first] {
		return ""
	}
	return first
}

func stripPort(host string) string {
	if i := strings.LastIndex(host, ":"); i >= 0 {
		return host[:i]
	}
	return host
}
