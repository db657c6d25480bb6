package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/repository"
	"github.com/ledgerstack/tenant-core/internal/tenantctx"
	"github.com/ledgerstack/tenant-core/pkg/logger"
)

// Domain types a tenant can choose in step 2.
const (
	DomainTypeSubdomain = "subdomain"
	DomainTypeCustom    = "custom"
)

// SubscriptionStepInput selects the plan (step 1).
type SubscriptionStepInput struct {
	PlanCode       string `json:"plan_code" binding:"required"`
	BillingCycle   string `json:"billing_cycle"`
	SubscriptionID string `json:"subscription_id"`
}

// DomainStepInput confirms the workspace address (step 2). A subdomain
// works immediately; a custom domain stays pending until verified.
type DomainStepInput struct {
	PrimaryDomain string `json:"primary_domain" binding:"required"`
	DomainType    string `json:"domain_type" binding:"required,oneof=subdomain custom"`
}

// CompanyStepInput fills the legal profile (step 3).
type CompanyStepInput struct {
	LegalName    string                 `json:"legal_name" binding:"required"`
	CountryCode  string                 `json:"country_code" binding:"required"`
	IndustryCode string                 `json:"industry_code"`
	Timezone     string                 `json:"timezone"`
	Currency     string                 `json:"currency"`
	TaxID        string                 `json:"tax_id"`
	Address      map[string]interface{} `json:"address"`
}

// OnboardingStatusResult is the wizard summary for the scoped tenant.
type OnboardingStatusResult struct {
	OnboardingStatus   domain.OnboardingStatus `json:"onboarding_status"`
	CurrentStep        int                     `json:"current_step"`
	CompletedSteps     []int                   `json:"completed_steps"`
	CanAccessDashboard bool                    `json:"can_access_dashboard"`
	OnboardedAt        *time.Time              `json:"onboarded_at,omitempty"`
}

// StepStatus is one wizard step in the progress payload.
type StepStatus struct {
	Step        int    `json:"step"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	IsCompleted bool   `json:"is_completed"`
	IsCurrent   bool   `json:"is_current"`
}

// OnboardingProgressResult is the detailed per-step view, including a
// human-readable line for what the current step is doing right now.
type OnboardingProgressResult struct {
	OverallProgress   int                      `json:"overall_progress"`
	CurrentStep       int                      `json:"current_step"`
	CurrentStepDetail string                   `json:"current_step_detail"`
	Steps             []StepStatus             `json:"steps"`
	PresetProgress    domain.PresetProgressMap `json:"preset_progress,omitempty"`
}

// OnboardingService drives the five-step wizard. Steps complete strictly
// in order; completing step n requires every earlier step done.
type OnboardingService struct {
	repo      repository.Repository
	tenantSvc *TenantService
	presetSvc *PresetService
	auditSvc  *AuditLogService
	logger    *logger.Logger
}

func NewOnboardingService(repo repository.Repository, tenantSvc *TenantService, presetSvc *PresetService, auditSvc *AuditLogService, log *logger.Logger) *OnboardingService {
	return &OnboardingService{
		repo:      repo,
		tenantSvc: tenantSvc,
		presetSvc: presetSvc,
		auditSvc:  auditSvc,
		logger:    log,
	}
}

// Status reports wizard state, creating the progress row on first access.
func (s *OnboardingService) Status(ctx context.Context) (*OnboardingStatusResult, error) {
	tenantID, err := tenantctx.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	tenant, err := s.tenantSvc.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	progress, err := s.repo.Onboarding().GetOrCreate(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	completed := make([]int, 0, len(progress.CompletedSteps))
	for n := 1; n <= domain.TotalOnboardingSteps; n++ {
		if progress.CompletedSteps.Contains(n) {
			completed = append(completed, n)
		}
	}

	return &OnboardingStatusResult{
		OnboardingStatus:   tenant.OnboardingStatus,
		CurrentStep:        progress.CurrentStep,
		CompletedSteps:     completed,
		CanAccessDashboard: tenant.CanAccessDashboard(),
		OnboardedAt:        tenant.OnboardedAt,
	}, nil
}

// Progress reports the per-step view for wizard polling, including
// in-flight preset counts while step 4 runs.
func (s *OnboardingService) Progress(ctx context.Context) (*OnboardingProgressResult, error) {
	tenantID, err := tenantctx.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	progress, err := s.repo.Onboarding().GetOrCreate(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	steps := make([]StepStatus, 0, domain.TotalOnboardingSteps)
	for n := 1; n <= domain.TotalOnboardingSteps; n++ {
		st := StepStatus{
			Step:        n,
			Name:        domain.StepNames[n],
			Status:      "pending",
			IsCompleted: progress.CompletedSteps.Contains(n),
			IsCurrent:   n == progress.CurrentStep,
		}
		switch {
		case st.IsCompleted:
			st.Status = "completed"
		case st.IsCurrent:
			st.Status = "processing"
		}
		steps = append(steps, st)
	}

	return &OnboardingProgressResult{
		OverallProgress:   progress.OverallPercent(),
		CurrentStep:       progress.CurrentStep,
		CurrentStepDetail: s.currentStepDetail(progress),
		Steps:             steps,
		PresetProgress:    progress.PresetProgress,
	}, nil
}

func (s *OnboardingService) currentStepDetail(progress *domain.OnboardingProgress) string {
	if progress.CurrentStep > domain.TotalOnboardingSteps {
		return "Onboarding complete"
	}
	if progress.CurrentStep == domain.StepPresets {
		for _, kind := range domain.PresetInstallOrder {
			entry, ok := progress.PresetProgress[string(kind)]
			if !ok || entry.Status != domain.PresetStatusInProgress {
				continue
			}
			if entry.TotalExpected > 0 {
				return progressMessage(kind, entry.RecordsCreated, entry.TotalExpected)
			}
		}
	}
	return domain.StepNames[progress.CurrentStep]
}

// CompleteSubscription finishes step 1.
func (s *OnboardingService) CompleteSubscription(ctx context.Context, in SubscriptionStepInput) (*OnboardingStatusResult, error) {
	tenantID, progress, err := s.beginStep(ctx, domain.StepSubscription)
	if err != nil {
		return nil, err
	}

	tenant, err := s.tenantSvc.ChangePlan(ctx, tenantID, in.PlanCode, in.BillingCycle)
	if err != nil {
		return nil, err
	}
	if in.SubscriptionID != "" {
		tenant.SubscriptionID = in.SubscriptionID
		if err := s.repo.Tenant().Update(ctx, tenant); err != nil {
			return nil, err
		}
	}

	return s.finishStep(ctx, tenantID, progress, domain.StepSubscription, map[string]interface{}{
		"plan_code":       in.PlanCode,
		"billing_cycle":   in.BillingCycle,
		"subscription_id": in.SubscriptionID,
	})
}

// CompleteDomain finishes step 2. A subdomain is live as soon as it is
// recorded; a custom domain is registered pending verification.
func (s *OnboardingService) CompleteDomain(ctx context.Context, in DomainStepInput) (*OnboardingStatusResult, error) {
	tenantID, progress, err := s.beginStep(ctx, domain.StepDomain)
	if err != nil {
		return nil, err
	}

	status := domain.DomainPending
	if in.DomainType == DomainTypeSubdomain {
		status = domain.DomainActive
	}
	if _, err := s.tenantSvc.AddDomain(ctx, tenantID, in.PrimaryDomain, true, status); err != nil {
		return nil, err
	}

	return s.finishStep(ctx, tenantID, progress, domain.StepDomain, map[string]interface{}{
		"primary_domain": in.PrimaryDomain,
		"domain_type":    in.DomainType,
	})
}

// CompleteCompany finishes step 3: the legal profile lands on the primary
// company and the locale fields on the tenant.
func (s *OnboardingService) CompleteCompany(ctx context.Context, in CompanyStepInput) (*OnboardingStatusResult, error) {
	tenantID, progress, err := s.beginStep(ctx, domain.StepCompany)
	if err != nil {
		return nil, err
	}

	addressJSON, err := domain.NewJSONB(in.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	company := &domain.Company{
		TenantID:     tenantID,
		LegalName:    in.LegalName,
		CountryCode:  in.CountryCode,
		IndustryCode: in.IndustryCode,
		Timezone:     in.Timezone,
		Currency:     in.Currency,
		TaxID:        in.TaxID,
		Address:      addressJSON,
		IsPrimary:    true,
		UpdatedBy:    tenantctx.UserID(ctx),
	}
	if err := s.repo.Reference().UpsertPrimaryCompany(ctx, company); err != nil {
		return nil, err
	}

	tenant, err := s.tenantSvc.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	tenant.CountryCode = in.CountryCode
	tenant.IndustryCode = in.IndustryCode
	if in.Timezone != "" {
		tenant.Timezone = in.Timezone
	}
	if in.Currency != "" {
		tenant.BaseCurrency = in.Currency
	}
	if err := s.repo.Tenant().Update(ctx, tenant); err != nil {
		return nil, err
	}

	return s.finishStep(ctx, tenantID, progress, domain.StepCompany, map[string]interface{}{
		"legal_name":    in.LegalName,
		"country_code":  in.CountryCode,
		"industry_code": in.IndustryCode,
	})
}

// RunPresets executes step 4: the preset engine runs for the company's
// country and industry, streaming progress into the wizard row so the
// client can poll it. The step completes only when every engine step
// succeeded; a partial run leaves the step open for a retry, which the
// engine's idempotency makes safe.
func (s *OnboardingService) RunPresets(ctx context.Context) (*OnboardingStatusResult, InstallReport, error) {
	tenantID, progress, err := s.beginStep(ctx, domain.StepPresets)
	if err != nil {
		return nil, nil, err
	}

	tenant, err := s.tenantSvc.GetByID(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	if tenant.CountryCode == "" {
		return nil, nil, fmt.Errorf("%w: company country is not set", ErrValidation)
	}

	report, err := s.presetSvc.Install(ctx, tenant.CountryCode, tenant.IndustryCode, func(kind domain.PresetKind, _, _, _ int, detail ProgressDetail) {
		s.persistPresetProgress(ctx, tenantID, kind, detail)
	})
	if err != nil {
		return nil, report, err
	}
	if !report.Succeeded() {
		status, serr := s.Status(ctx)
		if serr != nil {
			return nil, report, serr
		}
		return status, report, nil
	}

	status, err := s.finishStep(ctx, tenantID, progress, domain.StepPresets, map[string]interface{}{
		"country_code": tenant.CountryCode,
	})
	return status, report, err
}

// CompleteConfirmation finishes step 5 and opens the dashboard.
func (s *OnboardingService) CompleteConfirmation(ctx context.Context) (*OnboardingStatusResult, error) {
	tenantID, progress, err := s.beginStep(ctx, domain.StepConfirmation)
	if err != nil {
		return nil, err
	}

	tenant, err := s.tenantSvc.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	before := *tenant
	now := time.Now().UTC()
	tenant.OnboardingStatus = domain.OnboardingCompleted
	tenant.OnboardedAt = &now
	if err := s.repo.Tenant().Update(ctx, tenant); err != nil {
		return nil, err
	}
	s.auditSvc.Observe(ctx, Mutation{
		Operation:    domain.OpUpdate,
		ResourceType: "tenant",
		ResourceID:   tenant.ID,
		ResourceName: tenant.Name,
		OldImage:     map[string]interface{}{"onboarding_status": string(before.OnboardingStatus)},
		NewImage:     map[string]interface{}{"onboarding_status": string(tenant.OnboardingStatus)},
	})

	return s.finishStep(ctx, tenantID, progress, domain.StepConfirmation, nil)
}

// beginStep loads progress and enforces the strict ordering rule.
func (s *OnboardingService) beginStep(ctx context.Context, step int) (string, *domain.OnboardingProgress, error) {
	tenantID, err := tenantctx.TenantID(ctx)
	if err != nil {
		return "", nil, err
	}
	progress, err := s.repo.Onboarding().GetOrCreate(ctx, tenantID)
	if err != nil {
		return "", nil, err
	}
	if !progress.PriorStepsCompleted(step) {
		return "", nil, ErrStepOrder
	}

	tenant, err := s.tenantSvc.GetByID(ctx, tenantID)
	if err != nil {
		return "", nil, err
	}
	if tenant.OnboardingStatus == domain.OnboardingIncomplete {
		tenant.OnboardingStatus = domain.OnboardingInProgress
		if err := s.repo.Tenant().Update(ctx, tenant); err != nil {
			return "", nil, err
		}
	}
	return tenantID, progress, nil
}

func (s *OnboardingService) finishStep(ctx context.Context, tenantID string, progress *domain.OnboardingProgress, step int, data map[string]interface{}) (*OnboardingStatusResult, error) {
	progress.MarkCompleted(step)
	if data != nil {
		stepData := progress.StepData.AsMap()
		if stepData == nil {
			stepData = map[string]interface{}{}
		}
		stepData[fmt.Sprintf("step_%d", step)] = data
		stepJSON, err := domain.NewJSONB(stepData)
		if err != nil {
			return nil, err
		}
		progress.StepData = stepJSON
	}
	if err := s.repo.Onboarding().Update(ctx, progress); err != nil {
		return nil, err
	}

	s.auditSvc.Observe(ctx, Mutation{
		Operation:    domain.OpUpdate,
		ResourceType: "onboarding_progress",
		ResourceID:   progress.ID,
		ResourceName: domain.StepNames[step],
		NewImage: map[string]interface{}{
			"completed_step": step,
			"current_step":   progress.CurrentStep,
		},
	})

	return s.Status(ctx)
}

// persistPresetProgress writes one engine update into the wizard row,
// counts included, so a polling client sees live import totals.
// Failures are logged only; progress display never blocks provisioning.
func (s *OnboardingService) persistPresetProgress(ctx context.Context, tenantID string, kind domain.PresetKind, detail ProgressDetail) {
	progress, err := s.repo.Onboarding().Get(ctx, tenantID)
	if err != nil {
		s.logger.Error("failed to load onboarding progress for preset update", err)
		return
	}
	if progress.PresetProgress == nil {
		progress.PresetProgress = domain.PresetProgressMap{}
	}
	entry := progress.PresetProgress[string(kind)]
	entry.Status = detail.Status
	entry.UpdatedAt = time.Now().UTC()
	if detail.TotalExpected > 0 {
		entry.RecordsCreated = detail.RecordsCreated
		entry.TotalExpected = detail.TotalExpected
		entry.Percentage = detail.RecordsCreated * 100 / detail.TotalExpected
	}
	if detail.Status == domain.PresetStatusCompleted {
		entry.Percentage = 100
	}
	progress.PresetProgress[string(kind)] = entry
	if err := s.repo.Onboarding().Update(ctx, progress); err != nil {
		s.logger.Error("failed to persist preset progress", err)
	}
}
