package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/pkg/logger"
)

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
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepository) Deactivate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
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
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockTenantRepository) GetDomainByHost(ctx context.Context, host string) (*domain.TenantDomain, error) {
	args := m.Called(ctx, host)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TenantDomain), args.Error(1)
}

const testSecret = "resolver-test-secret"

type ResolverTestSuite struct {
	suite.Suite
	tenants  *MockTenantRepository
	resolver *Resolver
}

func (s *ResolverTestSuite) SetupTest() {
	s.tenants = new(MockTenantRepository)
	s.resolver = New(s.tenants, nil, testSecret, logger.NewLogger("test"))
}

func TestResolver(t *testing.T) {
	suite.Run(t, new(ResolverTestSuite))
}

func activeTenant(id, slug string) *domain.Tenant {
	return &domain.Tenant{ID: id, Slug: slug, IsActive: true}
}

func signedToken(s *ResolverTestSuite, tenantID string) string {
	claims := jwt.MapClaims{
		"tenant_id": tenantID,
		"exp":       time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	s.Require().NoError(err)
	return token
}

func (s *ResolverTestSuite) TestHeaderWins() {
	s.tenants.On("GetByID", mock.Anything, "t-header").Return(activeTenant("t-header", "header"), nil)

	tenant, err := s.resolver.Resolve(context.Background(), Request{
		TenantIDHeader: "t-header",
		BearerToken:    signedToken(s, "t-token"),
		Host:           "acme.example.com",
	})
	s.Require().NoError(err)
	s.Equal("t-header", tenant.ID)
	s.tenants.AssertNotCalled(s.T(), "GetBySlug", mock.Anything, mock.Anything)
}

func (s *ResolverTestSuite) TestTokenBeatsSubdomain() {
	s.tenants.On("GetByID", mock.Anything, "t-token").Return(activeTenant("t-token", "token"), nil)

	tenant, err := s.resolver.Resolve(context.Background(), Request{
		BearerToken: signedToken(s, "t-token"),
		Host:        "acme.example.com",
	})
	s.Require().NoError(err)
	s.Equal("t-token", tenant.ID)
}

func (s *ResolverTestSuite) TestSubdomainResolution() {
	s.tenants.On("GetBySlug", mock.Anything, "acme").Return(activeTenant("t1", "acme"), nil)

	tenant, err := s.resolver.Resolve(context.Background(), Request{Host: "acme.example.com:8080"})
	s.Require().NoError(err)
	s.Equal("t1", tenant.ID)
}

func (s *ResolverTestSuite) TestReservedSubdomainSkipped() {
	// www must not be treated as a slug; fall through to custom domain
	s.tenants.On("GetDomainByHost", mock.Anything, "www.example.com").
		Return(&domain.TenantDomain{TenantID: "t2"}, nil)
	s.tenants.On("GetByID", mock.Anything, "t2").Return(activeTenant("t2", "acme"), nil)

	tenant, err := s.resolver.Resolve(context.Background(), Request{Host: "www.example.com"})
	s.Require().NoError(err)
	s.Equal("t2", tenant.ID)
	s.tenants.AssertNotCalled(s.T(), "GetBySlug", mock.Anything, mock.Anything)
}

func (s *ResolverTestSuite) TestInactiveTenantIsNotFound() {
	inactive := &domain.Tenant{ID: "t1", Slug: "acme", IsActive: false}
	s.tenants.On("GetBySlug", mock.Anything, "acme").Return(inactive, nil)
	s.tenants.On("GetDomainByHost", mock.Anything, "acme.example.com").
		Return(nil, gorm.ErrRecordNotFound)

	_, err := s.resolver.Resolve(context.Background(), Request{Host: "acme.example.com"})
	s.ErrorIs(err, ErrTenantNotFound)
}

func (s *ResolverTestSuite) TestInvalidTokenSignatureIgnored() {
	claims := jwt.MapClaims{"tenant_id": "t-token"}
	bad, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("wrong-secret"))
	s.Require().NoError(err)

	s.tenants.On("GetBySlug", mock.Anything, "acme").Return(activeTenant("t1", "acme"), nil)

	tenant, rerr := s.resolver.Resolve(context.Background(), Request{
		BearerToken: bad,
		Host:        "acme.example.com",
	})
	s.Require().NoError(rerr)
	s.Equal("t1", tenant.ID)
}

func (s *ResolverTestSuite) TestNothingResolves() {
	s.tenants.On("GetBySlug", mock.Anything, "example").Return(nil, gorm.ErrRecordNotFound)
	s.tenants.On("GetDomainByHost", mock.Anything, "example.com").
		Return(nil, gorm.ErrRecordNotFound)

	_, err := s.resolver.Resolve(context.Background(), Request{Host: "example.com"})
	s.ErrorIs(err, ErrTenantNotFound)
}

func TestSubdomainOf(t *testing.T) {
	cases := map[string]string{
		"acme.example.com":      "acme",
		"acme.example.com:8080": "acme",
		"acme.localhost":        "acme",
		"www.example.com":       "",
		"api.example.com":       "",
		"localhost":             "",
		"example.com":           "example",
	}
	for host, want := range cases {
		if got := SubdomainOf(host); got != want {
			t.Errorf("SubdomainOf(%q) = %q, want %q", host, got, want)
		}
	}
}

func TestIsReservedSubdomain(t *testing.T) {
	for _, s := range []string{"www", "api", "admin", "app", "mail", "ftp", "WWW"} {
		if !IsReservedSubdomain(s) {
			t.Errorf("expected %q to be reserved", s)
		}
	}
	if IsReservedSubdomain("acme") {
		t.Error("acme must not be reserved")
	}
}
