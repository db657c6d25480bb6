package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ledgerstack/tenant-core/internal/domain"
)

// ReferenceRepository persists the reference rows the preset engine
// installs. All reads and counts are scoped through the request context;
// writes auto-assign the scoped tenant and verify foreign references
// resolve inside it.
type ReferenceRepository struct {
	writerDB    *gorm.DB
	readerDB    *gorm.DB
	allowBypass bool
}

func NewReferenceRepository(writerDB, readerDB *gorm.DB, allowBypass bool) *ReferenceRepository {
	return &ReferenceRepository{
		writerDB:    writerDB,
		readerDB:    readerDB,
		allowBypass: allowBypass,
	}
}

func (r *ReferenceRepository) scopedCount(ctx context.Context, model interface{}) (int64, error) {
	var count int64
	db := tenantScope(r.readerDB, ctx, r.allowBypass)
	err := db.Model(model).Count(&count).Error
	return count, err
}

// Currencies

func (r *ReferenceRepository) CountCurrencies(ctx context.Context) (int64, error) {
	return r.scopedCount(ctx, &domain.Currency{})
}

func (r *ReferenceRepository) CreateCurrency(ctx context.Context, c *domain.Currency) error {
	if err := assignTenant(ctx, &c.TenantID); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return r.writerDB.WithContext(ctx).Create(c).Error
}

func (r *ReferenceRepository) GetCurrencyConfig(ctx context.Context) (*domain.CurrencyConfig, error) {
	var cfg domain.CurrencyConfig
	db := tenantScope(r.readerDB, ctx, r.allowBypass)
	if err := db.First(&cfg).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *ReferenceRepository) CreateCurrencyConfig(ctx context.Context, c *domain.CurrencyConfig) error {
	if err := assignTenant(ctx, &c.TenantID); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return r.writerDB.WithContext(ctx).Create(c).Error
}

func (r *ReferenceRepository) CreateExchangeRate(ctx context.Context, rate *domain.ExchangeRate) error {
	if err := assignTenant(ctx, &rate.TenantID); err != nil {
		return err
	}
	if rate.ID == "" {
		rate.ID = uuid.New().String()
	}
	return r.writerDB.WithContext(ctx).Create(rate).Error
}

// Tax

func (r *ReferenceRepository) CountTaxCategories(ctx context.Context) (int64, error) {
	return r.scopedCount(ctx, &domain.TaxCategory{})
}

func (r *ReferenceRepository) CreateTaxCategory(ctx context.Context, c *domain.TaxCategory) error {
	if err := assignTenant(ctx, &c.TenantID); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return r.writerDB.WithContext(ctx).Create(c).Error
}

func (r *ReferenceRepository) GetTaxCategoryByCode(ctx context.Context, code string) (*domain.TaxCategory, error) {
	var category domain.TaxCategory
	db := tenantScope(r.readerDB, ctx, r.allowBypass)
	if err := db.First(&category, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *ReferenceRepository) CountTaxRates(ctx context.Context) (int64, error) {
	return r.scopedCount(ctx, &domain.TaxRate{})
}

func (r *ReferenceRepository) CreateTaxRate(ctx context.Context, rate *domain.TaxRate) error {
	if err := assignTenant(ctx, &rate.TenantID); err != nil {
		return err
	}
	if rate.CategoryID != nil {
		if err := verifyReference(ctx, r.writerDB, domain.TaxCategory{}.TableName(), *rate.CategoryID); err != nil {
			return err
		}
	}
	if rate.ID == "" {
		rate.ID = uuid.New().String()
	}
	return r.writerDB.WithContext(ctx).Create(rate).Error
}

func (r *ReferenceRepository) ListTaxRates(ctx context.Context) ([]domain.TaxRate, error) {
	var rates []domain.TaxRate
	db := tenantScope(r.readerDB, ctx, r.allowBypass)
	if err := db.Order("code").Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}

// Accounts

func (r *ReferenceRepository) CountAccountTypes(ctx context.Context) (int64, error) {
	return r.scopedCount(ctx, &domain.AccountType{})
}

func (r *ReferenceRepository) CreateAccountType(ctx context.Context, t *domain.AccountType) error {
	if err := assignTenant(ctx, &t.TenantID); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return r.writerDB.WithContext(ctx).Create(t).Error
}

func (r *ReferenceRepository) CountAccounts(ctx context.Context) (int64, error) {
	return r.scopedCount(ctx, &domain.ChartOfAccount{})
}

func (r *ReferenceRepository) CreateAccount(ctx context.Context, a *domain.ChartOfAccount) error {
	if err := assignTenant(ctx, &a.TenantID); err != nil {
		return err
	}
	if a.ParentID != nil {
		if err := verifyReference(ctx, r.writerDB, domain.ChartOfAccount{}.TableName(), *a.ParentID); err != nil {
			return err
		}
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return r.writerDB.WithContext(ctx).Create(a).Error
}

func (r *ReferenceRepository) GetAccountByCode(ctx context.Context, code string) (*domain.ChartOfAccount, error) {
	var account domain.ChartOfAccount
	db := tenantScope(r.readerDB, ctx, r.allowBypass)
	if err := db.First(&account, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// Invoicing

func (r *ReferenceRepository) GetInvoiceNumbering(ctx context.Context) (*domain.InvoiceNumbering, error) {
	var numbering domain.InvoiceNumbering
	db := tenantScope(r.readerDB, ctx, r.allowBypass)
	if err := db.First(&numbering).Error; err != nil {
		return nil, err
	}
	return &numbering, nil
}

func (r *ReferenceRepository) CreateInvoiceNumbering(ctx context.Context, n *domain.InvoiceNumbering) error {
	if err := assignTenant(ctx, &n.TenantID); err != nil {
		return err
	}
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return r.writerDB.WithContext(ctx).Create(n).Error
}

func (r *ReferenceRepository) GetEInvoiceConfig(ctx context.Context) (*domain.EInvoiceConfig, error) {
	var cfg domain.EInvoiceConfig
	db := tenantScope(r.readerDB, ctx, r.allowBypass)
	if err := db.First(&cfg).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *ReferenceRepository) UpsertEInvoiceConfig(ctx context.Context, c *domain.EInvoiceConfig) error {
	if err := assignTenant(ctx, &c.TenantID); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return r.writerDB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"provider", "endpoint", "required_fields", "enabled", "updated_at",
			}),
		}).
		Create(c).Error
}

// Company

func (r *ReferenceRepository) GetPrimaryCompany(ctx context.Context) (*domain.Company, error) {
	var company domain.Company
	db := tenantScope(r.readerDB, ctx, r.allowBypass)
	if err := db.First(&company, "is_primary = ?", true).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// UpsertPrimaryCompany creates the tenant's primary company on first call
// and updates it afterwards, keying on the scoped tenant rather than the
// row id so onboarding step three is idempotent.
func (r *ReferenceRepository) UpsertPrimaryCompany(ctx context.Context, c *domain.Company) error {
	if err := assignTenant(ctx, &c.TenantID); err != nil {
		return err
	}
	c.IsPrimary = true

	var existing domain.Company
	err := r.writerDB.WithContext(ctx).
		Where("tenant_id = ? AND is_primary = ?", c.TenantID, true).
		First(&existing).Error
	switch {
	case err == nil:
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
		c.CreatedBy = existing.CreatedBy
		return r.writerDB.WithContext(ctx).Save(c).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		return r.writerDB.WithContext(ctx).Create(c).Error
	default:
		return err
	}
}
