package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/preset"
	"github.com/ledgerstack/tenant-core/internal/tenantctx"
	"github.com/ledgerstack/tenant-core/pkg/logger"
)

type OnboardingServiceTestSuite struct {
	suite.Suite
	repo    *stubRepo
	sqs     *MockSQSService
	service *OnboardingService
}

func (s *OnboardingServiceTestSuite) SetupTest() {
	s.repo = newStubRepo()
	s.sqs = new(MockSQSService)
	log := logger.NewLogger("test")
	auditSvc := NewAuditLogService(s.repo, s.sqs, log)
	tenantSvc := NewTenantService(s.repo, nil, nil, log)
	presetSvc := NewPresetService(s.repo, preset.NewLibrary(s.T().TempDir()), log)
	s.service = NewOnboardingService(s.repo, tenantSvc, presetSvc, auditSvc, log)
}

func TestOnboardingService(t *testing.T) {
	suite.Run(t, new(OnboardingServiceTestSuite))
}

func (s *OnboardingServiceTestSuite) scopedCtx() context.Context {
	return tenantctx.With(context.Background(), tenantctx.NewScope(tenantctx.Scope{
		TenantID: "t1",
		UserID:   "u1",
	}))
}

func (s *OnboardingServiceTestSuite) allowAuditWrites() {
	s.repo.audit.On("Create", mock.Anything, mock.Anything).Return(nil)
	s.sqs.On("SendIndexMessage", mock.Anything, mock.Anything).Return(nil)
}

func (s *OnboardingServiceTestSuite) TestStatus_FreshTenant() {
	ctx := s.scopedCtx()
	s.repo.tenant.On("GetByID", mock.Anything, "t1").
		Return(&domain.Tenant{ID: "t1", OnboardingStatus: domain.OnboardingIncomplete}, nil)
	s.repo.onboarding.On("GetOrCreate", mock.Anything, "t1").
		Return(&domain.OnboardingProgress{ID: "p1", TenantID: "t1", CurrentStep: 1}, nil)

	status, err := s.service.Status(ctx)

	s.Require().NoError(err)
	s.Equal(domain.OnboardingIncomplete, status.OnboardingStatus)
	s.Equal(1, status.CurrentStep)
	s.Empty(status.CompletedSteps)
	s.False(status.CanAccessDashboard)
	s.Nil(status.OnboardedAt)
}

func (s *OnboardingServiceTestSuite) TestStatus_NoScope() {
	_, err := s.service.Status(context.Background())
	s.ErrorIs(err, tenantctx.ErrNoTenantScope)
}

func (s *OnboardingServiceTestSuite) TestProgress_FreshTenant() {
	ctx := s.scopedCtx()
	s.repo.onboarding.On("GetOrCreate", mock.Anything, "t1").
		Return(&domain.OnboardingProgress{ID: "p1", TenantID: "t1", CurrentStep: 1}, nil)

	progress, err := s.service.Progress(ctx)

	s.Require().NoError(err)
	s.Equal(0, progress.OverallProgress)
	s.Equal(1, progress.CurrentStep)
	s.Equal("Subscription", progress.CurrentStepDetail)
	s.Require().Len(progress.Steps, domain.TotalOnboardingSteps)
	s.Equal("processing", progress.Steps[0].Status)
	s.True(progress.Steps[0].IsCurrent)
	s.Equal("pending", progress.Steps[1].Status)
}

func (s *OnboardingServiceTestSuite) TestProgress_PresetImportCounts() {
	ctx := s.scopedCtx()
	s.repo.onboarding.On("GetOrCreate", mock.Anything, "t1").
		Return(&domain.OnboardingProgress{
			ID:             "p1",
			TenantID:       "t1",
			CompletedSteps: domain.IntList{1, 2, 3},
			CurrentStep:    4,
			PresetProgress: domain.PresetProgressMap{
				string(domain.PresetCurrency): {Status: domain.PresetStatusCompleted, RecordsCreated: 3, TotalExpected: 3, Percentage: 100},
				string(domain.PresetChartOfAccounts): {
					Status:         domain.PresetStatusInProgress,
					RecordsCreated: 42,
					TotalExpected:  45,
					Percentage:     93,
				},
			},
		}, nil)

	progress, err := s.service.Progress(ctx)

	s.Require().NoError(err)
	s.Equal(60, progress.OverallProgress)
	s.Equal("Importing 42/45 GL Accounts", progress.CurrentStepDetail)
	s.Equal("completed", progress.Steps[0].Status)
	s.Equal("processing", progress.Steps[3].Status)
}

func (s *OnboardingServiceTestSuite) TestProgress_AllDone() {
	ctx := s.scopedCtx()
	s.repo.onboarding.On("GetOrCreate", mock.Anything, "t1").
		Return(&domain.OnboardingProgress{
			ID:             "p1",
			TenantID:       "t1",
			CompletedSteps: domain.IntList{1, 2, 3, 4, 5},
			CurrentStep:    6,
		}, nil)

	progress, err := s.service.Progress(ctx)

	s.Require().NoError(err)
	s.Equal(100, progress.OverallProgress)
	s.Equal("Onboarding complete", progress.CurrentStepDetail)
}

func (s *OnboardingServiceTestSuite) TestCompleteSubscription() {
	ctx := s.scopedCtx()
	s.allowAuditWrites()
	tenant := &domain.Tenant{ID: "t1", Plan: "trial", OnboardingStatus: domain.OnboardingIncomplete}
	progress := &domain.OnboardingProgress{ID: "p1", TenantID: "t1", CurrentStep: 1}
	s.repo.tenant.On("GetByID", mock.Anything, "t1").Return(tenant, nil)
	s.repo.tenant.On("Update", mock.Anything, mock.Anything).Return(nil)
	s.repo.onboarding.On("GetOrCreate", mock.Anything, "t1").Return(progress, nil)
	s.repo.onboarding.On("Update", mock.Anything, progress).Return(nil)

	status, err := s.service.CompleteSubscription(ctx, SubscriptionStepInput{
		PlanCode:       "basic",
		BillingCycle:   "monthly",
		SubscriptionID: "sub_123",
	})

	s.Require().NoError(err)
	s.Equal(2, status.CurrentStep)
	s.Equal([]int{1}, status.CompletedSteps)
	// ChangePlan re-applied the quota for the chosen plan
	s.Equal("basic", tenant.Plan)
	s.Equal(10, tenant.MaxUsers)
	s.Equal("sub_123", tenant.SubscriptionID)
	s.Equal(domain.OnboardingInProgress, tenant.OnboardingStatus)
}

func (s *OnboardingServiceTestSuite) TestCompleteSubscription_TrialExpiry() {
	ctx := s.scopedCtx()
	s.allowAuditWrites()
	tenant := &domain.Tenant{ID: "t1", Plan: "trial", OnboardingStatus: domain.OnboardingInProgress}
	progress := &domain.OnboardingProgress{ID: "p1", TenantID: "t1", CurrentStep: 1}
	s.repo.tenant.On("GetByID", mock.Anything, "t1").Return(tenant, nil)
	s.repo.tenant.On("Update", mock.Anything, mock.Anything).Return(nil)
	s.repo.onboarding.On("GetOrCreate", mock.Anything, "t1").Return(progress, nil)
	s.repo.onboarding.On("Update", mock.Anything, progress).Return(nil)

	_, err := s.service.CompleteSubscription(ctx, SubscriptionStepInput{PlanCode: "trial"})

	s.Require().NoError(err)
	s.Require().NotNil(tenant.TrialExpiresAt)
}

func (s *OnboardingServiceTestSuite) TestCompleteDomain_Subdomain() {
	ctx := s.scopedCtx()
	s.allowAuditWrites()
	tenant := &domain.Tenant{ID: "t1", OnboardingStatus: domain.OnboardingInProgress}
	progress := &domain.OnboardingProgress{ID: "p1", TenantID: "t1", CompletedSteps: domain.IntList{1}, CurrentStep: 2}
	s.repo.tenant.On("GetByID", mock.Anything, "t1").Return(tenant, nil)
	s.repo.tenant.On("Update", mock.Anything, mock.Anything).Return(nil)
	s.repo.onboarding.On("GetOrCreate", mock.Anything, "t1").Return(progress, nil)
	s.repo.onboarding.On("Update", mock.Anything, progress).Return(nil)
	s.repo.tenant.On("CreateDomain", mock.Anything, mock.MatchedBy(func(d *domain.TenantDomain) bool {
		return d.Domain == "acme.ledgerstack.example" && d.IsPrimary && d.Status == domain.DomainActive
	})).Return(nil)

	status, err := s.service.CompleteDomain(ctx, DomainStepInput{
		PrimaryDomain: "acme.ledgerstack.example",
		DomainType:    DomainTypeSubdomain,
	})

	s.Require().NoError(err)
	s.Equal(3, status.CurrentStep)
	s.Equal(domain.DomainActive, tenant.DomainStatus)
	s.Equal("acme.ledgerstack.example", tenant.PrimaryDomain)
	s.repo.tenant.AssertExpectations(s.T())
}

func (s *OnboardingServiceTestSuite) TestCompleteDomain_CustomStaysPending() {
	ctx := s.scopedCtx()
	s.allowAuditWrites()
	tenant := &domain.Tenant{ID: "t1", OnboardingStatus: domain.OnboardingInProgress}
	progress := &domain.OnboardingProgress{ID: "p1", TenantID: "t1", CompletedSteps: domain.IntList{1}, CurrentStep: 2}
	s.repo.tenant.On("GetByID", mock.Anything, "t1").Return(tenant, nil)
	s.repo.tenant.On("Update", mock.Anything, mock.Anything).Return(nil)
	s.repo.onboarding.On("GetOrCreate", mock.Anything, "t1").Return(progress, nil)
	s.repo.onboarding.On("Update", mock.Anything, progress).Return(nil)
	s.repo.tenant.On("CreateDomain", mock.Anything, mock.MatchedBy(func(d *domain.TenantDomain) bool {
		return d.Domain == "books.acme.example" && d.Status == domain.DomainPending
	})).Return(nil)

	_, err := s.service.CompleteDomain(ctx, DomainStepInput{
		PrimaryDomain: "books.acme.example",
		DomainType:    DomainTypeCustom,
	})

	s.Require().NoError(err)
	s.Equal(domain.DomainPending, tenant.DomainStatus)
}

func (s *OnboardingServiceTestSuite) TestCompleteCompany_OutOfOrder() {
	ctx := s.scopedCtx()
	progress := &domain.OnboardingProgress{ID: "p1", TenantID: "t1", CompletedSteps: domain.IntList{1}, CurrentStep: 2}
	s.repo.onboarding.On("GetOrCreate", mock.Anything, "t1").Return(progress, nil)

	_, err := s.service.CompleteCompany(ctx, CompanyStepInput{LegalName: "Acme Sdn Bhd", CountryCode: "MY"})

	s.ErrorIs(err, ErrStepOrder)
	s.repo.reference.AssertNotCalled(s.T(), "UpsertPrimaryCompany", mock.Anything, mock.Anything)
}

func (s *OnboardingServiceTestSuite) TestCompleteCompany_Success() {
	ctx := s.scopedCtx()
	s.allowAuditWrites()
	tenant := &domain.Tenant{ID: "t1", OnboardingStatus: domain.OnboardingInProgress}
	progress := &domain.OnboardingProgress{ID: "p1", TenantID: "t1", CompletedSteps: domain.IntList{1, 2}, CurrentStep: 3}
	s.repo.tenant.On("GetByID", mock.Anything, "t1").Return(tenant, nil)
	s.repo.onboarding.On("GetOrCreate", mock.Anything, "t1").Return(progress, nil)
	s.repo.onboarding.On("Update", mock.Anything, progress).Return(nil)
	s.repo.reference.On("UpsertPrimaryCompany", mock.Anything, mock.MatchedBy(func(c *domain.Company) bool {
		return c.TenantID == "t1" && c.LegalName == "Acme Sdn Bhd" && c.IsPrimary && c.UpdatedBy == "u1"
	})).Return(nil)
	s.repo.tenant.On("Update", mock.Anything, mock.Anything).Return(nil)

	status, err := s.service.CompleteCompany(ctx, CompanyStepInput{
		LegalName:    "Acme Sdn Bhd",
		CountryCode:  "MY",
		IndustryCode: "retail",
		Timezone:     "Asia/Kuala_Lumpur",
		Currency:     "MYR",
	})

	s.Require().NoError(err)
	s.Equal(4, status.CurrentStep)
	s.Equal("MY", tenant.CountryCode)
	s.Equal("retail", tenant.IndustryCode)
	s.Equal("Asia/Kuala_Lumpur", tenant.Timezone)
	s.Equal("MYR", tenant.BaseCurrency)
	s.repo.reference.AssertExpectations(s.T())
}

func (s *OnboardingServiceTestSuite) TestRunPresets_OutOfOrder() {
	ctx := s.scopedCtx()
	progress := &domain.OnboardingProgress{ID: "p1", TenantID: "t1", CurrentStep: 1}
	s.repo.onboarding.On("GetOrCreate", mock.Anything, "t1").Return(progress, nil)

	_, _, err := s.service.RunPresets(ctx)
	s.ErrorIs(err, ErrStepOrder)
}

func (s *OnboardingServiceTestSuite) TestRunPresets_RequiresCompanyCountry() {
	ctx := s.scopedCtx()
	tenant := &domain.Tenant{ID: "t1", OnboardingStatus: domain.OnboardingInProgress}
	progress := &domain.OnboardingProgress{ID: "p1", TenantID: "t1", CompletedSteps: domain.IntList{1, 2, 3}, CurrentStep: 4}
	s.repo.tenant.On("GetByID", mock.Anything, "t1").Return(tenant, nil)
	s.repo.onboarding.On("GetOrCreate", mock.Anything, "t1").Return(progress, nil)

	_, _, err := s.service.RunPresets(ctx)
	s.ErrorIs(err, ErrValidation)
}

func (s *OnboardingServiceTestSuite) TestCompleteConfirmation() {
	ctx := s.scopedCtx()
	s.allowAuditWrites()
	tenant := &domain.Tenant{ID: "t1", Name: "Acme", IsActive: true, OnboardingStatus: domain.OnboardingInProgress}
	progress := &domain.OnboardingProgress{ID: "p1", TenantID: "t1", CompletedSteps: domain.IntList{1, 2, 3, 4}, CurrentStep: 5}
	s.repo.tenant.On("GetByID", mock.Anything, "t1").Return(tenant, nil)
	s.repo.onboarding.On("GetOrCreate", mock.Anything, "t1").Return(progress, nil)
	s.repo.onboarding.On("Update", mock.Anything, progress).Return(nil)
	s.repo.tenant.On("Update", mock.Anything, mock.Anything).Return(nil)

	status, err := s.service.CompleteConfirmation(ctx)

	s.Require().NoError(err)
	s.Equal(domain.OnboardingCompleted, status.OnboardingStatus)
	s.Equal([]int{1, 2, 3, 4, 5}, status.CompletedSteps)
	s.True(status.CanAccessDashboard)
	s.Require().NotNil(status.OnboardedAt)
	s.Equal(domain.OnboardingCompleted, tenant.OnboardingStatus)
	s.NotNil(tenant.OnboardedAt)
}

// persistPresetProgress stores live counts so a polling client sees the
// in-flight import state.
func (s *OnboardingServiceTestSuite) TestPersistPresetProgress_InFlightCounts() {
	ctx := s.scopedCtx()
	progress := &domain.OnboardingProgress{ID: "p1", TenantID: "t1", CurrentStep: 4}
	s.repo.onboarding.On("Get", mock.Anything, "t1").Return(progress, nil)
	s.repo.onboarding.On("Update", mock.Anything, progress).Return(nil)

	s.service.persistPresetProgress(ctx, "t1", domain.PresetChartOfAccounts, ProgressDetail{
		Status:         domain.PresetStatusInProgress,
		RecordsCreated: 42,
		TotalExpected:  45,
	})

	entry := progress.PresetProgress[string(domain.PresetChartOfAccounts)]
	s.Equal(domain.PresetStatusInProgress, entry.Status)
	s.Equal(42, entry.RecordsCreated)
	s.Equal(45, entry.TotalExpected)
	s.Equal(93, entry.Percentage)
}
