package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/ledgerstack/tenant-core/internal/tenantctx"
)

// tenantScope narrows db to the tenant carried by ctx.
//
// A context without a scope matches nothing: the impossible predicate is
// deliberate so a missing scope surfaces as an empty result instead of a
// cross-tenant leak. System contexts skip the filter only when the
// deployment enables the bypass; a system context that also carries a
// tenant scope stays filtered to that tenant.
func tenantScope(db *gorm.DB, ctx context.Context, allowBypass bool) *gorm.DB {
	if tenantID, err := tenantctx.TenantID(ctx); err == nil {
		return db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	}
	if tenantctx.IsSystem(ctx) && allowBypass {
		return db.WithContext(ctx)
	}
	return db.WithContext(ctx).Where("1 = 0")
}
