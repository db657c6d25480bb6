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

type TenantHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockService *MockTenantService
	handler     *TenantHandler
}

type MockTenantService struct {
	mock.Mock
}

func (m *MockTenantService) Create(ctx context.Context, slug, name, plan string) (*domain.Tenant, error) {
	args := m.Called(ctx, slug, name, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *MockTenantService) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *MockTenantService) List(ctx context.Context) ([]domain.Tenant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Tenant), args.Error(1)
}

func (m *MockTenantService) UpdateSettings(ctx context.Context, id string, settings map[string]interface{}) (*domain.Tenant, error) {
	args := m.Called(ctx, id, settings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *MockTenantService) Deactivate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTenantService) AddDomain(ctx context.Context, tenantID, host string, primary bool, status domain.DomainStatus) (*domain.TenantDomain, error) {
	args := m.Called(ctx, tenantID, host, primary, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TenantDomain), args.Error(1)
}

func (s *TenantHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.mockService = new(MockTenantService)
	s.handler = NewTenantHandler(NewBaseHandler(nil, logger.NewLogger("test")), s.mockService)

	s.router.POST("/admin/tenants", s.handler.CreateTenant)
	s.router.GET("/admin/tenants", s.handler.ListTenants)
	s.router.GET("/admin/tenants/:id", s.handler.GetTenant)
	s.router.PUT("/admin/tenants/:id/settings", s.handler.UpdateSettings)
	s.router.DELETE("/admin/tenants/:id", s.handler.DeactivateTenant)
	s.router.POST("/admin/tenants/:id/domains", s.handler.AddDomain)
}

func TestTenantHandler(t *testing.T) {
	suite.Run(t, new(TenantHandlerTestSuite))
}

func (s *TenantHandlerTestSuite) do(method, target string, body interface{}) *httptest.ResponseRecorder {
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

func (s *TenantHandlerTestSuite) TestCreateTenant() {
	created := &domain.Tenant{ID: "t1", Slug: "acme", Name: "Acme Sdn Bhd", Plan: "trial", IsActive: true}
	s.mockService.On("Create", mock.Anything, "acme", "Acme Sdn Bhd", "trial").Return(created, nil)

	w := s.do(http.MethodPost, "/admin/tenants", dto.CreateTenantRequest{Slug: "acme", Name: "Acme Sdn Bhd", Plan: "trial"})

	s.Equal(http.StatusCreated, w.Code)
	var resp dto.TenantResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("t1", resp.ID)
	s.Equal("acme", resp.Slug)
}

func (s *TenantHandlerTestSuite) TestCreateTenant_MissingSlug() {
	w := s.do(http.MethodPost, "/admin/tenants", map[string]string{"name": "Acme"})

	s.Equal(http.StatusBadRequest, w.Code)
	s.mockService.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *TenantHandlerTestSuite) TestCreateTenant_Conflict() {
	s.mockService.On("Create", mock.Anything, "acme", "Acme", "").Return(nil, service.ErrTenantExists)

	w := s.do(http.MethodPost, "/admin/tenants", dto.CreateTenantRequest{Slug: "acme", Name: "Acme"})

	s.Equal(http.StatusConflict, w.Code)
}

func (s *TenantHandlerTestSuite) TestListTenants() {
	tenants := []domain.Tenant{{ID: "t1", Slug: "acme"}, {ID: "t2", Slug: "globex"}}
	s.mockService.On("List", mock.Anything).Return(tenants, nil)

	w := s.do(http.MethodGet, "/admin/tenants", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp []dto.TenantResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Len(resp, 2)
}

func (s *TenantHandlerTestSuite) TestGetTenant_NotFound() {
	s.mockService.On("GetByID", mock.Anything, "missing").Return(nil, service.ErrTenantNotFound)

	w := s.do(http.MethodGet, "/admin/tenants/missing", nil)

	s.Equal(http.StatusNotFound, w.Code)
}

func (s *TenantHandlerTestSuite) TestUpdateSettings() {
	settings := map[string]interface{}{"date_format": "DD/MM/YYYY"}
	updated := &domain.Tenant{ID: "t1", Slug: "acme"}
	s.mockService.On("UpdateSettings", mock.Anything, "t1", settings).Return(updated, nil)

	w := s.do(http.MethodPut, "/admin/tenants/t1/settings", dto.UpdateTenantSettingsRequest{Settings: settings})

	s.Equal(http.StatusOK, w.Code)
}

func (s *TenantHandlerTestSuite) TestDeactivateTenant() {
	s.mockService.On("Deactivate", mock.Anything, "t1").Return(nil)

	w := s.do(http.MethodDelete, "/admin/tenants/t1", nil)

	s.Equal(http.StatusNoContent, w.Code)
	s.mockService.AssertExpectations(s.T())
}

func (s *TenantHandlerTestSuite) TestAddDomain() {
	d := &domain.TenantDomain{ID: "d1", TenantID: "t1", Domain: "books.acme.my", IsPrimary: true, Status: domain.DomainPending}
	s.mockService.On("AddDomain", mock.Anything, "t1", "books.acme.my", true, domain.DomainPending).Return(d, nil)

	w := s.do(http.MethodPost, "/admin/tenants/t1/domains", dto.AddDomainRequest{Domain: "books.acme.my", IsPrimary: true})

	s.Equal(http.StatusCreated, w.Code)
	var resp dto.DomainResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("books.acme.my", resp.Domain)
}
