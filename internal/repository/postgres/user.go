package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/repository"
	"github.com/ledgerstack/tenant-core/internal/tenantctx"
)

type UserRepository struct {
	writerDB    *gorm.DB
	readerDB    *gorm.DB
	allowBypass bool
}

func NewUserRepository(writerDB, readerDB *gorm.DB, allowBypass bool) *UserRepository {
	return &UserRepository{
		writerDB:    writerDB,
		readerDB:    readerDB,
		allowBypass: allowBypass,
	}
}

// Create inserts a user after enforcing the owning tenant's max_users
// quota. Signup runs before a scope exists, so the tenant comes from the
// user row itself; once a scope is present it must agree.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if scoped, err := tenantctx.TenantID(ctx); err == nil {
		if user.TenantID == nil {
			user.TenantID = &scoped
		} else if *user.TenantID != scoped {
			return repository.ErrCrossTenantWrite
		}
	}
	if user.TenantID == nil {
		// Platform admins have no tenant and no quota.
		return r.writerDB.WithContext(ctx).Create(user).Error
	}

	tenantID := *user.TenantID
	return r.writerDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tenant domain.Tenant
		if err := tx.First(&tenant, "id = ?", tenantID).Error; err != nil {
			return fmt.Errorf("load tenant %s: %w", tenantID, err)
		}

		var active int64
		if err := tx.Model(&domain.User{}).
			Where("tenant_id = ? AND is_active = ?", tenantID, true).
			Count(&active).Error; err != nil {
			return err
		}
		if active >= int64(tenant.MaxUsers) {
			return repository.ErrUserQuotaExceeded
		}

		return tx.Create(user).Error
	})
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	db := tenantScope(r.readerDB, ctx, r.allowBypass)
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail is deliberately unscoped: it serves login, where the tenant
// is not yet known. Email is globally unique.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := r.readerDB.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	if user.TenantID != nil {
		if err := assignTenant(ctx, user.TenantID); err != nil {
			return err
		}
	}
	return r.writerDB.WithContext(ctx).Save(user).Error
}

func (r *UserRepository) CountActive(ctx context.Context, tenantID string) (int64, error) {
	var count int64
	err := r.readerDB.WithContext(ctx).
		Model(&domain.User{}).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Count(&count).Error
	return count, err
}

func (r *UserRepository) ListByTenant(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	db := tenantScope(r.readerDB, ctx, r.allowBypass)
	if err := db.Order("created_at").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
