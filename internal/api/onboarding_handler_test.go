package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/ledgerstack/tenant-core/internal/api/dto"
	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/service"
	"github.com/ledgerstack/tenant-core/pkg/logger"
)

type OnboardingHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockService *MockOnboardingService
	handler     *OnboardingHandler
}

type MockOnboardingService struct {
	mock.Mock
}

func (m *MockOnboardingService) Status(ctx context.Context) (*service.OnboardingStatusResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.OnboardingStatusResult), args.Error(1)
}

func (m *MockOnboardingService) Progress(ctx context.Context) (*service.OnboardingProgressResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.OnboardingProgressResult), args.Error(1)
}

func (m *MockOnboardingService) CompleteSubscription(ctx context.Context, in service.SubscriptionStepInput) (*service.OnboardingStatusResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.OnboardingStatusResult), args.Error(1)
}

func (m *MockOnboardingService) CompleteDomain(ctx context.Context, in service.DomainStepInput) (*service.OnboardingStatusResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.OnboardingStatusResult), args.Error(1)
}

func (m *MockOnboardingService) CompleteCompany(ctx context.Context, in service.CompanyStepInput) (*service.OnboardingStatusResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.OnboardingStatusResult), args.Error(1)
}

func (m *MockOnboardingService) RunPresets(ctx context.Context) (*service.OnboardingStatusResult, service.InstallReport, error) {
	args := m.Called(ctx)
	var status *service.OnboardingStatusResult
	if args.Get(0) != nil {
		status = args.Get(0).(*service.OnboardingStatusResult)
	}
	var report service.InstallReport
	if args.Get(1) != nil {
		report = args.Get(1).(service.InstallReport)
	}
	return status, report, args.Error(2)
}

func (m *MockOnboardingService) CompleteConfirmation(ctx context.Context) (*service.OnboardingStatusResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.OnboardingStatusResult), args.Error(1)
}

func (s *OnboardingHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.mockService = new(MockOnboardingService)
	s.handler = NewOnboardingHandler(NewBaseHandler(nil, logger.NewLogger("test")), s.mockService)

	s.router.GET("/onboarding/status", s.handler.Status)
	s.router.GET("/onboarding/progress", s.handler.Progress)
	s.router.POST("/onboarding/step/1", s.handler.Subscription)
	s.router.POST("/onboarding/step/2", s.handler.Domain)
	s.router.POST("/onboarding/step/3", s.handler.Company)
	s.router.POST("/onboarding/step/4", s.handler.Presets)
	s.router.POST("/onboarding/step/5", s.handler.Confirmation)
}

func TestOnboardingHandler(t *testing.T) {
	suite.Run(t, new(OnboardingHandlerTestSuite))
}

func (s *OnboardingHandlerTestSuite) do(method, target string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *OnboardingHandlerTestSuite) TestStatus() {
	s.mockService.On("Status", mock.Anything).Return(&service.OnboardingStatusResult{
		OnboardingStatus: domain.OnboardingInProgress,
		CurrentStep:      3,
		CompletedSteps:   []int{1, 2},
	}, nil)

	w := s.do(http.MethodGet, "/onboarding/status", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp service.OnboardingStatusResult
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(3, resp.CurrentStep)
	s.Equal([]int{1, 2}, resp.CompletedSteps)
}

func (s *OnboardingHandlerTestSuite) TestProgress() {
	s.mockService.On("Progress", mock.Anything).Return(&service.OnboardingProgressResult{
		OverallProgress:   60,
		CurrentStep:       4,
		CurrentStepDetail: "Importing 42/45 GL Accounts",
		Steps: []service.StepStatus{
			{Step: 1, Name: "Subscription", Status: "completed", IsCompleted: true},
			{Step: 4, Name: "Presets", Status: "processing", IsCurrent: true},
		},
	}, nil)

	w := s.do(http.MethodGet, "/onboarding/progress", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp service.OnboardingProgressResult
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(60, resp.OverallProgress)
	s.Equal("Importing 42/45 GL Accounts", resp.CurrentStepDetail)
}

func (s *OnboardingHandlerTestSuite) TestSubscription() {
	in := service.SubscriptionStepInput{PlanCode: "basic", BillingCycle: "monthly", SubscriptionID: "sub_123"}
	s.mockService.On("CompleteSubscription", mock.Anything, in).Return(&service.OnboardingStatusResult{CurrentStep: 2}, nil)

	w := s.do(http.MethodPost, "/onboarding/step/1", in)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.OnboardingStepResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.True(resp.Success)
	s.Equal(2, resp.CurrentStep)
}

func (s *OnboardingHandlerTestSuite) TestSubscription_MissingPlanCode() {
	w := s.do(http.MethodPost, "/onboarding/step/1", map[string]string{})

	s.Equal(http.StatusBadRequest, w.Code)
	s.mockService.AssertNotCalled(s.T(), "CompleteSubscription", mock.Anything, mock.Anything)
}

func (s *OnboardingHandlerTestSuite) TestDomain() {
	in := service.DomainStepInput{PrimaryDomain: "acme.ledgerstack.example", DomainType: "subdomain"}
	s.mockService.On("CompleteDomain", mock.Anything, in).Return(&service.OnboardingStatusResult{CurrentStep: 3}, nil)

	w := s.do(http.MethodPost, "/onboarding/step/2", in)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.OnboardingStepResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.True(resp.Success)
	s.Equal(3, resp.CurrentStep)
}

func (s *OnboardingHandlerTestSuite) TestDomain_RejectsUnknownType() {
	w := s.do(http.MethodPost, "/onboarding/step/2", map[string]string{
		"primary_domain": "acme.example",
		"domain_type":    "wildcard",
	})

	s.Equal(http.StatusBadRequest, w.Code)
	s.mockService.AssertNotCalled(s.T(), "CompleteDomain", mock.Anything, mock.Anything)
}

func (s *OnboardingHandlerTestSuite) TestCompany_OutOfOrder() {
	s.mockService.On("CompleteCompany", mock.Anything, mock.Anything).Return(nil, service.ErrStepOrder)

	w := s.do(http.MethodPost, "/onboarding/step/3", service.CompanyStepInput{
		LegalName:   "Acme Sdn Bhd",
		CountryCode: "MY",
	})

	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "All previous steps must be completed first")
}

func (s *OnboardingHandlerTestSuite) TestPresets() {
	report := service.InstallReport{
		domain.PresetCurrency:        service.StepResult{Success: true, RecordCount: 2, Name: "Malaysia Currencies"},
		domain.PresetChartOfAccounts: service.StepResult{Success: false, Error: "db down"},
	}
	s.mockService.On("RunPresets", mock.Anything).Return(&service.OnboardingStatusResult{CurrentStep: 5}, report, nil)

	w := s.do(http.MethodPost, "/onboarding/step/4", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.PresetStepResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.False(resp.Success)
	s.Equal(2, resp.TotalPresets)
	s.Equal(1, resp.SuccessfulPresets)
	s.Equal(5, resp.CurrentStep)
	s.True(resp.Presets[string(domain.PresetCurrency)])
	s.False(resp.Presets[string(domain.PresetChartOfAccounts)])
	s.Equal(2, resp.DetailedResults[string(domain.PresetCurrency)].RecordCount)
	s.Equal("db down", resp.DetailedResults[string(domain.PresetChartOfAccounts)].Error)
}

func (s *OnboardingHandlerTestSuite) TestConfirmation() {
	s.mockService.On("CompleteConfirmation", mock.Anything).Return(&service.OnboardingStatusResult{
		OnboardingStatus:   domain.OnboardingCompleted,
		CurrentStep:        6,
		CanAccessDashboard: true,
	}, nil)

	w := s.do(http.MethodPost, "/onboarding/step/5", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.ConfirmationResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.True(resp.Success)
	s.Equal(string(domain.OnboardingCompleted), resp.OnboardingStatus)
}
