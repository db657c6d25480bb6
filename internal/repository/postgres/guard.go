package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/repository"
	"github.com/ledgerstack/tenant-core/internal/tenantctx"
)

// assignTenant fills an empty tenant_id from the context scope and rejects
// a mismatching one. Writes never cross the boundary, even for system
// contexts.
func assignTenant(ctx context.Context, tenantID *string) error {
	scoped, err := tenantctx.TenantID(ctx)
	if err != nil {
		return repository.ErrNoTenantScope
	}
	if *tenantID == "" {
		*tenantID = scoped
		return nil
	}
	if *tenantID != scoped {
		return repository.ErrCrossTenantWrite
	}
	return nil
}

// maxReferenceHops bounds the ownership walk; the longest declared path is
// two hops (line -> order -> company).
const maxReferenceHops = 4

// verifyReference walks the ownership path of the referenced row and
// rejects the write when it resolves to a different tenant. Tables without
// a declared path are tenant-global and always pass.
func verifyReference(ctx context.Context, db *gorm.DB, table, id string) error {
	scoped, err := tenantctx.TenantID(ctx)
	if err != nil {
		return repository.ErrNoTenantScope
	}

	for hop := 0; hop < maxReferenceHops; hop++ {
		rule, ok := domain.TenantPathFor(table)
		if !ok {
			return nil
		}
		if rule.Via == "" {
			var tenantID string
			err := db.WithContext(ctx).
				Table(table).
				Select("tenant_id").
				Where("id = ?", id).
				Scan(&tenantID).Error
			if err != nil {
				return fmt.Errorf("resolve owner of %s/%s: %w", table, id, err)
			}
			if tenantID != scoped {
				return repository.ErrCrossTenantWrite
			}
			return nil
		}

		var next string
		err := db.WithContext(ctx).
			Table(table).
			Select(rule.Via).
			Where("id = ?", id).
			Scan(&next).Error
		if err != nil {
			return fmt.Errorf("walk %s.%s: %w", table, rule.Via, err)
		}
		if next == "" {
			return repository.ErrCrossTenantWrite
		}
		table, id = rule.ViaTable, next
	}
	return fmt.Errorf("ownership path for %s exceeds %d hops", table, maxReferenceHops)
}
