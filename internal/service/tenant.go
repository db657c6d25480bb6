package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/repository"
	"github.com/ledgerstack/tenant-core/internal/resolver"
	"github.com/ledgerstack/tenant-core/internal/tenantctx"
	"github.com/ledgerstack/tenant-core/pkg/logger"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,61}[a-z0-9]$`)

// trialDuration is how long a trial plan runs before expiring. The clock
// restarts whenever the tenant (re-)selects the trial plan.
const trialDuration = 14 * 24 * time.Hour

// TenantService is the platform-admin surface over tenants. Deactivation
// is the only removal: tenant rows and their audit trail are never
// deleted.
type TenantService struct {
	repo     repository.Repository
	cache    *resolver.Cache
	auditSvc *AuditLogService
	logger   *logger.Logger
}

func NewTenantService(repo repository.Repository, cache *resolver.Cache, auditSvc *AuditLogService, log *logger.Logger) *TenantService {
	return &TenantService{
		repo:     repo,
		cache:    cache,
		auditSvc: auditSvc,
		logger:   log,
	}
}

// Create provisions a tenant with its plan quotas applied. The slug must
// be lowercase DNS-label shaped and not a reserved subdomain.
func (s *TenantService) Create(ctx context.Context, slug, name, plan string) (*domain.Tenant, error) {
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}
	if plan == "" {
		plan = "trial"
	}
	if !domain.IsValidPlan(plan) {
		return nil, fmt.Errorf("%w: unknown plan %q", ErrValidation, plan)
	}

	if existing, err := s.repo.Tenant().GetBySlug(ctx, slug); err == nil && existing != nil {
		return nil, ErrTenantExists
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	quota := domain.PlanQuotas[plan]
	tenant := &domain.Tenant{
		Slug:         slug,
		Name:         name,
		IsActive:     true,
		Plan:         plan,
		MaxUsers:     quota.MaxUsers,
		MaxStorageGB: quota.MaxStorageGB,
	}
	if plan == "trial" {
		expires := time.Now().UTC().Add(trialDuration)
		tenant.TrialExpiresAt = &expires
	}

	created, err := s.repo.Tenant().Create(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	s.observe(ctx, created.ID, domain.OpCreate, created, nil, created)
	return created, nil
}

func (s *TenantService) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	tenant, err := s.repo.Tenant().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return tenant, nil
}

func (s *TenantService) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	tenant, err := s.repo.Tenant().GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return tenant, nil
}

func (s *TenantService) List(ctx context.Context) ([]domain.Tenant, error) {
	return s.repo.Tenant().List(ctx)
}

func (s *TenantService) ListActive(ctx context.Context) ([]domain.Tenant, error) {
	return s.repo.Tenant().ListActive(ctx)
}

// UpdateSettings replaces the tenant's settings document and drops any
// cached resolution for it.
func (s *TenantService) UpdateSettings(ctx context.Context, id string, settings map[string]interface{}) (*domain.Tenant, error) {
	tenant, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	old := *tenant

	settingsJSON, err := domain.NewJSONB(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	tenant.Settings = settingsJSON
	if err := s.repo.Tenant().Update(ctx, tenant); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, tenant)
	s.observe(ctx, tenant.ID, domain.OpUpdate, tenant, &old, tenant)
	return tenant, nil
}

// ChangePlan moves the tenant to a new plan and re-applies its quotas.
func (s *TenantService) ChangePlan(ctx context.Context, id, plan, billingCycle string) (*domain.Tenant, error) {
	if !domain.IsValidPlan(plan) {
		return nil, fmt.Errorf("%w: unknown plan %q", ErrValidation, plan)
	}
	tenant, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	old := *tenant

	quota := domain.PlanQuotas[plan]
	tenant.Plan = plan
	tenant.BillingCycle = billingCycle
	tenant.MaxUsers = quota.MaxUsers
	tenant.MaxStorageGB = quota.MaxStorageGB
	if plan == "trial" {
		expires := time.Now().UTC().Add(trialDuration)
		tenant.TrialExpiresAt = &expires
	} else {
		tenant.TrialExpiresAt = nil
	}
	if err := s.repo.Tenant().Update(ctx, tenant); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, tenant)
	s.observe(ctx, tenant.ID, domain.OpUpdate, tenant, &old, tenant)
	return tenant, nil
}

// Deactivate takes a tenant out of service. Its rows, users and audit
// history stay; resolution simply stops finding it.
func (s *TenantService) Deactivate(ctx context.Context, id string) error {
	tenant, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Tenant().Deactivate(ctx, id); err != nil {
		return err
	}

	old := *tenant
	tenant.IsActive = false
	s.cache.Invalidate(ctx, tenant)
	s.observe(ctx, tenant.ID, domain.OpDelete, tenant, &old, tenant)
	return nil
}

// AddDomain registers a hostname for the tenant. Subdomains come in
// already active; custom domains start pending until verified. The
// follow-up tenant update is chained to the domain creation record.
func (s *TenantService) AddDomain(ctx context.Context, tenantID, host string, primary bool, status domain.DomainStatus) (*domain.TenantDomain, error) {
	tenant, err := s.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if status == "" {
		status = domain.DomainPending
	}

	d := &domain.TenantDomain{
		TenantID:  tenant.ID,
		Domain:    host,
		IsPrimary: primary,
		Status:    status,
	}
	if err := s.repo.Tenant().CreateDomain(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to register domain: %w", err)
	}

	var parentID *string
	if s.auditSvc != nil {
		scoped := s.tenantScope(ctx, tenant.ID)
		if record := s.auditSvc.Observe(scoped, Mutation{
			Operation:    domain.OpCreate,
			ResourceType: "tenant_domain",
			ResourceID:   d.ID,
			ResourceName: d.Domain,
			NewImage: map[string]interface{}{
				"domain":     d.Domain,
				"is_primary": d.IsPrimary,
				"status":     string(d.Status),
			},
		}); record != nil {
			parentID = &record.ID
		}
	}

	if primary {
		old := *tenant
		tenant.PrimaryDomain = host
		tenant.DomainStatus = status
		if err := s.repo.Tenant().Update(ctx, tenant); err != nil {
			return nil, err
		}
		s.cache.Invalidate(ctx, tenant)
		s.observeChained(ctx, tenant.ID, domain.OpUpdate, tenant, &old, tenant, parentID)
	}

	return d, nil
}

// observe records the mutation under the affected tenant's own scope so
// platform-admin actions land in that tenant's audit stream.
func (s *TenantService) observe(ctx context.Context, tenantID string, op domain.Operation, tenant *domain.Tenant, before, after *domain.Tenant) {
	s.observeChained(ctx, tenantID, op, tenant, before, after, nil)
}

func (s *TenantService) observeChained(ctx context.Context, tenantID string, op domain.Operation, tenant *domain.Tenant, before, after *domain.Tenant, parentID *string) {
	if s.auditSvc == nil {
		return
	}
	var oldImage, newImage map[string]interface{}
	if before != nil {
		oldImage = tenantImage(before)
	}
	if after != nil {
		newImage = tenantImage(after)
	}
	s.auditSvc.Observe(s.tenantScope(ctx, tenantID), Mutation{
		Operation:     op,
		ResourceType:  "tenant",
		ResourceID:    tenant.ID,
		ResourceName:  tenant.Name,
		OldImage:      oldImage,
		NewImage:      newImage,
		ParentAuditID: parentID,
	})
}

// tenantScope ensures the context names a tenant; platform-admin calls
// arrive without one.
func (s *TenantService) tenantScope(ctx context.Context, tenantID string) context.Context {
	if _, err := tenantctx.TenantID(ctx); err != nil {
		return tenantctx.WithTenant(ctx, tenantID)
	}
	return ctx
}

func tenantImage(t *domain.Tenant) map[string]interface{} {
	return map[string]interface{}{
		"slug":              t.Slug,
		"name":              t.Name,
		"plan":              t.Plan,
		"is_active":         t.IsActive,
		"max_users":         t.MaxUsers,
		"onboarding_status": string(t.OnboardingStatus),
		"primary_domain":    t.PrimaryDomain,
	}
}

// ValidateSlug rejects slugs that cannot serve as a subdomain label.
func ValidateSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: slug must be 3-63 lowercase letters, digits or hyphens", ErrValidation)
	}
	if resolver.IsReservedSubdomain(slug) {
		return fmt.Errorf("%w: slug %q is reserved", ErrValidation, slug)
	}
	return nil
}
