package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/repository"
)

// Hand-rolled testify mocks for the repository interfaces, shared by the
// service suites in this package.

type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) Create(ctx context.Context, tenant *domain.Tenant) (*domain.Tenant, error) {
	args := m.Called(ctx, tenant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *MockTenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *MockTenantRepository) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	return m.Called(ctx, tenant).Error(0)
}

func (m *MockTenantRepository) Deactivate(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTenantRepository) List(ctx context.Context) ([]domain.Tenant, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Tenant), args.Error(1)
}

func (m *MockTenantRepository) ListActive(ctx context.Context) ([]domain.Tenant, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Tenant), args.Error(1)
}

func (m *MockTenantRepository) CreateDomain(ctx context.Context, d *domain.TenantDomain) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockTenantRepository) GetDomainByHost(ctx context.Context, host string) (*domain.TenantDomain, error) {
	args := m.Called(ctx, host)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TenantDomain), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) CountActive(ctx context.Context, tenantID string) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) ListByTenant(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

type MockOnboardingRepository struct {
	mock.Mock
}

func (m *MockOnboardingRepository) GetOrCreate(ctx context.Context, tenantID string) (*domain.OnboardingProgress, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OnboardingProgress), args.Error(1)
}

func (m *MockOnboardingRepository) Get(ctx context.Context, tenantID string) (*domain.OnboardingProgress, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OnboardingProgress), args.Error(1)
}

func (m *MockOnboardingRepository) Update(ctx context.Context, progress *domain.OnboardingProgress) error {
	return m.Called(ctx, progress).Error(0)
}

type MockPresetRepository struct {
	mock.Mock
}

func (m *MockPresetRepository) Upsert(ctx context.Context, preset *domain.TenantPreset) error {
	return m.Called(ctx, preset).Error(0)
}

func (m *MockPresetRepository) Get(ctx context.Context, tenantID string, kind domain.PresetKind) (*domain.TenantPreset, error) {
	args := m.Called(ctx, tenantID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TenantPreset), args.Error(1)
}

func (m *MockPresetRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.TenantPreset, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]domain.TenantPreset), args.Error(1)
}

type MockReferenceRepository struct {
	mock.Mock
}

func (m *MockReferenceRepository) CountCurrencies(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReferenceRepository) CreateCurrency(ctx context.Context, c *domain.Currency) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockReferenceRepository) GetCurrencyConfig(ctx context.Context) (*domain.CurrencyConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CurrencyConfig), args.Error(1)
}

func (m *MockReferenceRepository) CreateCurrencyConfig(ctx context.Context, c *domain.CurrencyConfig) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockReferenceRepository) CreateExchangeRate(ctx context.Context, r *domain.ExchangeRate) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockReferenceRepository) CountTaxCategories(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReferenceRepository) CreateTaxCategory(ctx context.Context, c *domain.TaxCategory) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockReferenceRepository) GetTaxCategoryByCode(ctx context.Context, code string) (*domain.TaxCategory, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaxCategory), args.Error(1)
}

func (m *MockReferenceRepository) CountTaxRates(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReferenceRepository) CreateTaxRate(ctx context.Context, r *domain.TaxRate) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockReferenceRepository) ListTaxRates(ctx context.Context) ([]domain.TaxRate, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.TaxRate), args.Error(1)
}

func (m *MockReferenceRepository) CountAccountTypes(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReferenceRepository) CreateAccountType(ctx context.Context, t *domain.AccountType) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockReferenceRepository) CountAccounts(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReferenceRepository) CreateAccount(ctx context.Context, a *domain.ChartOfAccount) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockReferenceRepository) GetAccountByCode(ctx context.Context, code string) (*domain.ChartOfAccount, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChartOfAccount), args.Error(1)
}

func (m *MockReferenceRepository) GetInvoiceNumbering(ctx context.Context) (*domain.InvoiceNumbering, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceNumbering), args.Error(1)
}

func (m *MockReferenceRepository) CreateInvoiceNumbering(ctx context.Context, n *domain.InvoiceNumbering) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockReferenceRepository) GetEInvoiceConfig(ctx context.Context) (*domain.EInvoiceConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EInvoiceConfig), args.Error(1)
}

func (m *MockReferenceRepository) UpsertEInvoiceConfig(ctx context.Context, c *domain.EInvoiceConfig) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockReferenceRepository) GetPrimaryCompany(ctx context.Context) (*domain.Company, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Company), args.Error(1)
}

func (m *MockReferenceRepository) UpsertPrimaryCompany(ctx context.Context, c *domain.Company) error {
	return m.Called(ctx, c).Error(0)
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, record *domain.AuditRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockAuditRepository) GetByID(ctx context.Context, id string) (*domain.AuditRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuditRecord), args.Error(1)
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditRecord, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.AuditRecord), args.Error(1)
}

func (m *MockAuditRepository) GetStats(ctx context.Context, filter domain.AuditFilter) (*domain.AuditStats, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuditStats), args.Error(1)
}

func (m *MockAuditRepository) CreateQueryAudit(ctx context.Context, q *domain.QueryAudit) error {
	return m.Called(ctx, q).Error(0)
}

func (m *MockAuditRepository) CreateExportAudit(ctx context.Context, e *domain.ExportAudit) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockAuditRepository) CreateViolation(ctx context.Context, v *domain.AuditViolation) error {
	return m.Called(ctx, v).Error(0)
}

func (m *MockAuditRepository) CreateComplianceViolation(ctx context.Context, v *domain.ComplianceViolation) error {
	return m.Called(ctx, v).Error(0)
}

func (m *MockAuditRepository) ListViolations(ctx context.Context, tenantID string, status domain.ViolationStatus) ([]domain.AuditViolation, error) {
	args := m.Called(ctx, tenantID, status)
	return args.Get(0).([]domain.AuditViolation), args.Error(1)
}

func (m *MockAuditRepository) UpdateViolation(ctx context.Context, v *domain.AuditViolation) error {
	return m.Called(ctx, v).Error(0)
}

func (m *MockAuditRepository) ListForArchive(ctx context.Context, tenantID string, before time.Time, limit int) ([]domain.AuditRecord, error) {
	args := m.Called(ctx, tenantID, before, limit)
	return args.Get(0).([]domain.AuditRecord), args.Error(1)
}

func (m *MockAuditRepository) MarkArchived(ctx context.Context, tenantID string, ids []string) (int64, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAuditRepository) DeleteExpiredArchived(ctx context.Context, tenantID string, now time.Time) (int64, error) {
	args := m.Called(ctx, tenantID, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockOpenSearchRepository struct {
	mock.Mock
}

func (m *MockOpenSearchRepository) Index(ctx context.Context, record *domain.AuditRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockOpenSearchRepository) BulkIndex(ctx context.Context, records []domain.AuditRecord) error {
	return m.Called(ctx, records).Error(0)
}

func (m *MockOpenSearchRepository) Search(ctx context.Context, filter *domain.AuditFilter) ([]domain.AuditRecord, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.AuditRecord), args.Error(1)
}

func (m *MockOpenSearchRepository) CreateIndex(ctx context.Context, tenantID string, t time.Time) error {
	return m.Called(ctx, tenantID, t).Error(0)
}

func (m *MockOpenSearchRepository) DeleteIndex(ctx context.Context, tenantID string) error {
	return m.Called(ctx, tenantID).Error(0)
}

type MockSQSService struct {
	mock.Mock
}

func (m *MockSQSService) SendIndexMessage(ctx context.Context, record *domain.AuditRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockSQSService) SendBulkIndexMessage(ctx context.Context, records []domain.AuditRecord) error {
	return m.Called(ctx, records).Error(0)
}

func (m *MockSQSService) SendArchiveMessage(ctx context.Context, tenantID string, beforeDate time.Time) error {
	return m.Called(ctx, tenantID, beforeDate).Error(0)
}

func (m *MockSQSService) SendCleanupMessage(ctx context.Context, tenantID string, beforeDate time.Time) error {
	return m.Called(ctx, tenantID, beforeDate).Error(0)
}

type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) BroadcastRecord(record *domain.AuditRecord) {
	m.Called(record)
}

// stubRepo stitches the sub-repository mocks into repository.Repository.
type stubRepo struct {
	tenant     *MockTenantRepository
	user       *MockUserRepository
	onboarding *MockOnboardingRepository
	preset     *MockPresetRepository
	reference  *MockReferenceRepository
	audit      *MockAuditRepository
	opensearch *MockOpenSearchRepository
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		tenant:     new(MockTenantRepository),
		user:       new(MockUserRepository),
		onboarding: new(MockOnboardingRepository),
		preset:     new(MockPresetRepository),
		reference:  new(MockReferenceRepository),
		audit:      new(MockAuditRepository),
	}
}

func (r *stubRepo) Tenant() repository.TenantRepository         { return r.tenant }
func (r *stubRepo) User() repository.UserRepository             { return r.user }
func (r *stubRepo) Onboarding() repository.OnboardingRepository { return r.onboarding }
func (r *stubRepo) Preset() repository.PresetRepository         { return r.preset }
func (r *stubRepo) Reference() repository.ReferenceRepository   { return r.reference }
func (r *stubRepo) Audit() repository.AuditRepository           { return r.audit }

func (r *stubRepo) OpenSearch() repository.OpenSearchRepository {
	if r.opensearch == nil {
		return nil
	}
	return r.opensearch
}
