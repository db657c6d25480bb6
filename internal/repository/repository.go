package repository

import (
	"context"
	"time"

	"github.com/ledgerstack/tenant-core/internal/domain"
)

//go:generate mockery --name TenantRepository --output ../mocks
type TenantRepository interface {
	Create(ctx context.Context, tenant *domain.Tenant) (*domain.Tenant, error)
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
	Update(ctx context.Context, tenant *domain.Tenant) error
	Deactivate(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Tenant, error)
	ListActive(ctx context.Context) ([]domain.Tenant, error)
	CreateDomain(ctx context.Context, d *domain.TenantDomain) error
	GetDomainByHost(ctx context.Context, host string) (*domain.TenantDomain, error)
}

//go:generate mockery --name UserRepository --output ../mocks
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByEmail is unscoped: it serves the login path, which runs
	// before any tenant scope exists.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	CountActive(ctx context.Context, tenantID string) (int64, error)
	ListByTenant(ctx context.Context) ([]domain.User, error)
}

//go:generate mockery --name OnboardingRepository --output ../mocks
type OnboardingRepository interface {
	GetOrCreate(ctx context.Context, tenantID string) (*domain.OnboardingProgress, error)
	Get(ctx context.Context, tenantID string) (*domain.OnboardingProgress, error)
	Update(ctx context.Context, progress *domain.OnboardingProgress) error
}

//go:generate mockery --name PresetRepository --output ../mocks
type PresetRepository interface {
	Upsert(ctx context.Context, preset *domain.TenantPreset) error
	Get(ctx context.Context, tenantID string, kind domain.PresetKind) (*domain.TenantPreset, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.TenantPreset, error)
}

// ReferenceRepository persists the reference rows the preset engine
// installs. Every method is tenant-scoped through the request context.
//
//go:generate mockery --name ReferenceRepository --output ../mocks
type ReferenceRepository interface {
	CountCurrencies(ctx context.Context) (int64, error)
	CreateCurrency(ctx context.Context, c *domain.Currency) error
	GetCurrencyConfig(ctx context.Context) (*domain.CurrencyConfig, error)
	CreateCurrencyConfig(ctx context.Context, c *domain.CurrencyConfig) error
	CreateExchangeRate(ctx context.Context, r *domain.ExchangeRate) error

	CountTaxCategories(ctx context.Context) (int64, error)
	CreateTaxCategory(ctx context.Context, c *domain.TaxCategory) error
	GetTaxCategoryByCode(ctx context.Context, code string) (*domain.TaxCategory, error)
	CountTaxRates(ctx context.Context) (int64, error)
	CreateTaxRate(ctx context.Context, r *domain.TaxRate) error
	ListTaxRates(ctx context.Context) ([]domain.TaxRate, error)

	CountAccountTypes(ctx context.Context) (int64, error)
	CreateAccountType(ctx context.Context, t *domain.AccountType) error
	CountAccounts(ctx context.Context) (int64, error)
	CreateAccount(ctx context.Context, a *domain.ChartOfAccount) error
	GetAccountByCode(ctx context.Context, code string) (*domain.ChartOfAccount, error)

	GetInvoiceNumbering(ctx context.Context) (*domain.InvoiceNumbering, error)
	CreateInvoiceNumbering(ctx context.Context, n *domain.InvoiceNumbering) error
	GetEInvoiceConfig(ctx context.Context) (*domain.EInvoiceConfig, error)
	UpsertEInvoiceConfig(ctx context.Context, c *domain.EInvoiceConfig) error

	GetPrimaryCompany(ctx context.Context) (*domain.Company, error)
	UpsertPrimaryCompany(ctx context.Context, c *domain.Company) error
}

//go:generate mockery --name AuditRepository --output ../mocks
type AuditRepository interface {
	Create(ctx context.Context, record *domain.AuditRecord) error
	GetByID(ctx context.Context, id string) (*domain.AuditRecord, error)
	List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditRecord, error)
	GetStats(ctx context.Context, filter domain.AuditFilter) (*domain.AuditStats, error)

	CreateQueryAudit(ctx context.Context, q *domain.QueryAudit) error
	CreateExportAudit(ctx context.Context, e *domain.ExportAudit) error

	// Violations are written in their own short transaction so they
	// survive the parent's rollback.
	CreateViolation(ctx context.Context, v *domain.AuditViolation) error
	CreateComplianceViolation(ctx context.Context, v *domain.ComplianceViolation) error
	ListViolations(ctx context.Context, tenantID string, status domain.ViolationStatus) ([]domain.AuditViolation, error)
	UpdateViolation(ctx context.Context, v *domain.AuditViolation) error

	ListForArchive(ctx context.Context, tenantID string, before time.Time, limit int) ([]domain.AuditRecord, error)
	MarkArchived(ctx context.Context, tenantID string, ids []string) (int64, error)
	DeleteExpiredArchived(ctx context.Context, tenantID string, now time.Time) (int64, error)
}

//go:generate mockery --name OpenSearchRepository --output ../mocks
type OpenSearchRepository interface {
	Index(ctx context.Context, record *domain.AuditRecord) error
	BulkIndex(ctx context.Context, records []domain.AuditRecord) error
	Search(ctx context.Context, filter *domain.AuditFilter) ([]domain.AuditRecord, error)
	CreateIndex(ctx context.Context, tenantID string, t time.Time) error
	DeleteIndex(ctx context.Context, tenantID string) error
}

//go:generate mockery --name PostgresRepository --output ../mocks
type PostgresRepository interface {
	Tenant() TenantRepository
	User() UserRepository
	Onboarding() OnboardingRepository
	Preset() PresetRepository
	Reference() ReferenceRepository
	Audit() AuditRepository
}

//go:generate mockery --name Repository --output ../mocks
type Repository interface {
	PostgresRepository
	OpenSearch() OpenSearchRepository
}
