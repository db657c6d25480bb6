package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/resolver"
	"github.com/ledgerstack/tenant-core/internal/tenantctx"
	"github.com/ledgerstack/tenant-core/pkg/logger"
)

const tenantContextKey = "tenant"

// ViolationRecorder is the slice of the audit service the middleware
// needs. Violations are recorded out-of-band; failures here never change
// the response.
type ViolationRecorder interface {
	RecordViolation(ctx context.Context, kind domain.ViolationKind, severity domain.ViolationSeverity, description string, details map[string]interface{}) error
}

// TenantMiddleware resolves the tenant, installs the request scope, and
// stamps the response headers. It is the only writer of the scope: every
// downstream read goes through tenantctx, and the scope dies with the
// request context.
type TenantMiddleware struct {
	resolver   *resolver.Resolver
	violations ViolationRecorder
	logger     *logger.Logger
}

func NewTenantMiddleware(res *resolver.Resolver, violations ViolationRecorder, log *logger.Logger) *TenantMiddleware {
	return &TenantMiddleware{
		resolver:   res,
		violations: violations,
		logger:     log,
	}
}

// Resolve is installed on every route. Public paths pass through
// untouched. Elsewhere it resolves the tenant and installs the scope;
// requests without a tenant continue tenant-less and the route decides
// (via RequireTenant or RequireRole) whether that is acceptable.
func (m *TenantMiddleware) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header("X-Request-ID", requestID)

		if resolver.IsPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		tenant, err := m.resolver.Resolve(c.Request.Context(), resolver.Request{
			TenantIDHeader: c.GetHeader("X-Tenant-ID"),
			BearerToken:    BearerToken(c),
			Host:           c.Request.Host,
			Path:           c.Request.URL.Path,
		})
		if err != nil {
			// Tenant-less requests are legal on platform-admin routes.
			m.logger.Debug("request resolved no tenant",
				zap.String("host", c.Request.Host),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestID))
			c.Next()
			return
		}

		if !tenant.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Tenant account is inactive"})
			return
		}

		scope := tenantctx.NewScope(tenantctx.Scope{
			TenantID:   tenant.ID,
			TenantSlug: tenant.Slug,
			TenantName: tenant.Name,
			TenantPlan: tenant.Plan,
			RequestID:  requestID,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(tenantctx.With(c.Request.Context(), scope))
		c.Set(tenantContextKey, tenant)

		c.Header("X-Tenant-ID", tenant.ID)
		c.Header("X-Tenant-Name", tenant.Name)
		c.Header("X-Tenant-Plan", tenant.Plan)
		if csp, hsts := tenant.SecurityHeaders(); csp != "" || hsts {
			if csp != "" {
				c.Header("Content-Security-Policy", csp)
			}
			if hsts {
				c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
		}

		c.Next()
	}
}

// BindUser runs after JWTAuth and cross-checks the token against the
// resolved tenant. A token minted for tenant A never succeeds on tenant
// B's subdomain: the mismatch is rejected, the scope dropped, and a
// violation recorded.
func (m *TenantMiddleware) BindUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims == nil {
			c.Next()
			return
		}

		tenant := TenantFrom(c)
		if tenant != nil && claims.TenantID != "" && claims.TenantID != tenant.ID {
			// Record under the token's own tenant so its admins see the
			// attempt; detach the resolved scope first.
			breachCtx := tenantctx.With(c.Request.Context(), tenantctx.NewScope(tenantctx.Scope{
				TenantID:  claims.TenantID,
				UserID:    claims.Subject,
				RequestID: c.Writer.Header().Get("X-Request-ID"),
				IPAddress: c.ClientIP(),
				UserAgent: c.Request.UserAgent(),
			}))
			if err := m.violations.RecordViolation(breachCtx,
				domain.ViolationUnauthorizedAccess,
				domain.SeverityHigh,
				"token tenant does not match resolved tenant",
				map[string]interface{}{
					"token_tenant_id":    claims.TenantID,
					"resolved_tenant_id": tenant.ID,
					"host":               c.Request.Host,
					"path":               c.Request.URL.Path,
				}); err != nil {
				m.logger.Error("failed to record cross-tenant violation", err)
			}

			c.Request = c.Request.WithContext(tenantctx.With(c.Request.Context(), tenantctx.Scope{}))
			c.Set(tenantContextKey, nil)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid tenant access"})
			return
		}

		// Platform admins carry no tenant claim and keep whatever scope
		// the resolver produced.
		scope, ok := tenantctx.FromContext(c.Request.Context())
		if !ok {
			scope = tenantctx.NewScope(tenantctx.Scope{
				RequestID: c.Writer.Header().Get("X-Request-ID"),
				IPAddress: c.ClientIP(),
				UserAgent: c.Request.UserAgent(),
			})
		}
		scope.UserID = claims.Subject
		scope.UserRole = claims.Role
		c.Request = c.Request.WithContext(tenantctx.With(c.Request.Context(), scope))

		c.Next()
	}
}

// RequireTenant guards endpoints that cannot run tenant-less.
func (m *TenantMiddleware) RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if TenantFrom(c) == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid tenant access"})
			return
		}
		c.Next()
	}
}

// RequireOnboarded gates business endpoints behind the dashboard gate.
func (m *TenantMiddleware) RequireOnboarded() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := TenantFrom(c)
		if tenant == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid tenant access"})
			return
		}
		if !tenant.CanAccessDashboard() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Onboarding must be completed first"})
			return
		}
		c.Next()
	}
}

// TenantFrom returns the resolved tenant, nil for tenant-less requests.
func TenantFrom(c *gin.Context) *domain.Tenant {
	v, ok := c.Get(tenantContextKey)
	if !ok {
		return nil
	}
	tenant, _ := v.(*domain.Tenant)
	return tenant
}
