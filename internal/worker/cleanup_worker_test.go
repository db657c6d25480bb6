package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/repository"
	"github.com/ledgerstack/tenant-core/internal/service"
	"github.com/ledgerstack/tenant-core/internal/service/queue"
	"github.com/ledgerstack/tenant-core/pkg/logger"
)

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

// stubPostgresRepo is the minimal repository the workers touch.
type stubPostgresRepo struct {
	tenant *MockTenantRepository
	audit  *MockAuditRepository
}

func (r *stubPostgresRepo) Tenant() repository.TenantRepository         { return r.tenant }
func (r *stubPostgresRepo) User() repository.UserRepository             { return nil }
func (r *stubPostgresRepo) Onboarding() repository.OnboardingRepository { return nil }
func (r *stubPostgresRepo) Preset() repository.PresetRepository         { return nil }
func (r *stubPostgresRepo) Reference() repository.ReferenceRepository   { return nil }
func (r *stubPostgresRepo) Audit() repository.AuditRepository           { return r.audit }

type CleanupWorkerTestSuite struct {
	suite.Suite
	repo   *stubPostgresRepo
	audit  *MockAuditObserver
	worker *CleanupWorker
}

func (s *CleanupWorkerTestSuite) SetupTest() {
	s.repo = &stubPostgresRepo{
		tenant: new(MockTenantRepository),
		audit:  new(MockAuditRepository),
	}
	s.audit = new(MockAuditObserver)
	s.worker = NewCleanupWorker(nil, s.repo, s.audit, logger.NewLogger("test"), 1, time.Second)
}

func TestCleanupWorker(t *testing.T) {
	suite.Run(t, new(CleanupWorkerTestSuite))
}

func (s *CleanupWorkerTestSuite) TestProcessCleanup_RecordsSystemAudit() {
	s.repo.audit.On("DeleteExpiredArchived", mock.Anything, "t1", mock.Anything).Return(int64(7), nil)
	s.audit.On("Observe", mock.Anything, mock.MatchedBy(func(m service.Mutation) bool {
		return m.Operation == domain.OpSystem &&
			m.ResourceType == "audit_cleanup" &&
			m.ResourceID == "t1" &&
			m.NewImage["deleted_count"] == int64(7)
	})).Return(&domain.AuditRecord{ID: "a1"})

	err := s.worker.processCleanupMessage(context.Background(), queue.Message{
		Type:     queue.MessageTypeCleanup,
		TenantID: "t1",
	})

	s.Require().NoError(err)
	s.audit.AssertExpectations(s.T())
}

func (s *CleanupWorkerTestSuite) TestProcessCleanup_NothingDeletedSkipsAudit() {
	s.repo.audit.On("DeleteExpiredArchived", mock.Anything, "t1", mock.Anything).Return(int64(0), nil)

	err := s.worker.processCleanupMessage(context.Background(), queue.Message{
		Type:     queue.MessageTypeCleanup,
		TenantID: "t1",
	})

	s.Require().NoError(err)
	s.audit.AssertNotCalled(s.T(), "Observe", mock.Anything, mock.Anything)
}
