package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledgerstack/tenant-core/internal/domain"
)

// TenantRepository manages the isolation roots themselves. Lookups by id,
// slug and domain run unscoped: they feed the resolver, which executes
// before any tenant scope exists.
type TenantRepository struct {
	writerDB *gorm.DB
	readerDB *gorm.DB
}

func NewTenantRepository(writerDB, readerDB *gorm.DB) *TenantRepository {
	return &TenantRepository{
		writerDB: writerDB,
		readerDB: readerDB,
	}
}

func (r *TenantRepository) Create(ctx context.Context, tenant *domain.Tenant) (*domain.Tenant, error) {
	if tenant.ID == "" {
		tenant.ID = uuid.New().String()
	}
	if err := r.writerDB.WithContext(ctx).Create(tenant).Error; err != nil {
		return nil, err
	}
	return tenant, nil
}

func (r *TenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	var tenant domain.Tenant
	if err := r.readerDB.WithContext(ctx).First(&tenant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *TenantRepository) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	var tenant domain.Tenant
	if err := r.readerDB.WithContext(ctx).First(&tenant, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *TenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	return r.writerDB.WithContext(ctx).Save(tenant).Error
}

// Deactivate soft-disables a tenant. Rows are never deleted; audit records
// must outlive the tenant for their retention horizon.
func (r *TenantRepository) Deactivate(ctx context.Context, id string) error {
	return r.writerDB.WithContext(ctx).
		Model(&domain.Tenant{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

func (r *TenantRepository) List(ctx context.Context) ([]domain.Tenant, error) {
	var tenants []domain.Tenant
	if err := r.readerDB.WithContext(ctx).Order("created_at").Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

func (r *TenantRepository) ListActive(ctx context.Context) ([]domain.Tenant, error) {
	var tenants []domain.Tenant
	if err := r.readerDB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at").
		Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

func (r *TenantRepository) CreateDomain(ctx context.Context, d *domain.TenantDomain) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return r.writerDB.WithContext(ctx).Create(d).Error
}

func (r *TenantRepository) GetDomainByHost(ctx context.Context, host string) (*domain.TenantDomain, error) {
	var d domain.TenantDomain
	if err := r.readerDB.WithContext(ctx).First(&d, "domain = ?", host).Error; err != nil {
		return nil, err
	}
	return &d, nil
}
