package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/service"
	"github.com/ledgerstack/tenant-core/internal/tenantctx"
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

type MockArchiveEnqueuer struct {
	mock.Mock
}

func (m *MockArchiveEnqueuer) SendArchiveMessage(ctx context.Context, tenantID string, beforeDate time.Time) error {
	return m.Called(ctx, tenantID, beforeDate).Error(0)
}

type MockAuditObserver struct {
	mock.Mock
}

func (m *MockAuditObserver) Observe(ctx context.Context, mut service.Mutation) *domain.AuditRecord {
	args := m.Called(ctx, mut)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.AuditRecord)
}

type ArchiveSchedulerTestSuite struct {
	suite.Suite
	tenants   *MockTenantRepository
	enqueuer  *MockArchiveEnqueuer
	audit     *MockAuditObserver
	scheduler *ArchiveScheduler
}

func (s *ArchiveSchedulerTestSuite) SetupTest() {
	s.tenants = new(MockTenantRepository)
	s.enqueuer = new(MockArchiveEnqueuer)
	s.audit = new(MockAuditObserver)
	s.scheduler = NewArchiveScheduler(s.enqueuer, s.tenants, s.audit, logger.NewLogger("test"), time.Hour, 365*24*time.Hour)
}

func TestArchiveScheduler(t *testing.T) {
	suite.Run(t, new(ArchiveSchedulerTestSuite))
}

func (s *ArchiveSchedulerTestSuite) TestSweep_AuditsEachTenantUnderItsOwnScope() {
	s.tenants.On("ListActive", mock.Anything).Return([]domain.Tenant{{ID: "t1"}, {ID: "t2"}}, nil)
	s.enqueuer.On("SendArchiveMessage", mock.Anything, "t1", mock.Anything).Return(nil)
	s.enqueuer.On("SendArchiveMessage", mock.Anything, "t2", mock.Anything).Return(nil)
	for _, id := range []string{"t1", "t2"} {
		tenantID := id
		s.audit.On("Observe", mock.MatchedBy(func(ctx context.Context) bool {
			scoped, err := tenantctx.TenantID(ctx)
			return err == nil && scoped == tenantID
		}), mock.MatchedBy(func(m service.Mutation) bool {
			return m.Operation == domain.OpSystem &&
				m.ResourceType == "audit_archive" &&
				m.ResourceID == tenantID
		})).Return(&domain.AuditRecord{ID: "a-" + tenantID})
	}

	err := s.scheduler.sweep(context.Background())

	s.Require().NoError(err)
	s.enqueuer.AssertExpectations(s.T())
	s.audit.AssertNumberOfCalls(s.T(), "Observe", 2)
}

func (s *ArchiveSchedulerTestSuite) TestSweep_EnqueueFailureSkipsAudit() {
	s.tenants.On("ListActive", mock.Anything).Return([]domain.Tenant{{ID: "t1"}}, nil)
	s.enqueuer.On("SendArchiveMessage", mock.Anything, "t1", mock.Anything).Return(errors.New("queue down"))

	err := s.scheduler.sweep(context.Background())

	s.Require().NoError(err)
	s.audit.AssertNotCalled(s.T(), "Observe", mock.Anything, mock.Anything)
}

func (s *ArchiveSchedulerTestSuite) TestSweep_NilObserverStillEnqueues() {
	scheduler := NewArchiveScheduler(s.enqueuer, s.tenants, nil, logger.NewLogger("test"), time.Hour, 365*24*time.Hour)
	s.tenants.On("ListActive", mock.Anything).Return([]domain.Tenant{{ID: "t1"}}, nil)
	s.enqueuer.On("SendArchiveMessage", mock.Anything, "t1", mock.Anything).Return(nil)

	s.Require().NoError(scheduler.sweep(context.Background()))
	s.enqueuer.AssertExpectations(s.T())
}
