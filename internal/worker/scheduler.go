package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/repository"
	"github.com/ledgerstack/tenant-core/internal/service"
	"github.com/ledgerstack/tenant-core/internal/tenantctx"
	"github.com/ledgerstack/tenant-core/pkg/logger"
)

// auditObserver records worker activity as SYSTEM operations in the
// affected tenant's audit stream. Satisfied by service.AuditLogService.
type auditObserver interface {
	Observe(ctx context.Context, m service.Mutation) *domain.AuditRecord
}

// archiveEnqueuer sends archive jobs to the queue.
type archiveEnqueuer interface {
	SendArchiveMessage(ctx context.Context, tenantID string, beforeDate time.Time) error
}

// ArchiveScheduler periodically enqueues an archive pass for every active
// tenant, archiving records older than the configured horizon. The sweep
// itself is cheap; the archive workers do the heavy lifting.
type ArchiveScheduler struct {
	enqueuer      archiveEnqueuer
	tenants       repository.TenantRepository
	audit         auditObserver
	logger        *logger.Logger
	sweepInterval time.Duration
	archiveAfter  time.Duration
	shutdownChan  chan struct{}
	waitGroup     sync.WaitGroup
}

func NewArchiveScheduler(
	enqueuer archiveEnqueuer,
	tenants repository.TenantRepository,
	audit auditObserver,
	log *logger.Logger,
	sweepInterval time.Duration,
	archiveAfter time.Duration,
) *ArchiveScheduler {
	return &ArchiveScheduler{
		enqueuer:      enqueuer,
		tenants:       tenants,
		audit:         audit,
		logger:        log,
		sweepInterval: sweepInterval,
		archiveAfter:  archiveAfter,
		shutdownChan:  make(chan struct{}),
	}
}

func (s *ArchiveScheduler) Start() {
	s.logger.Info("Starting archive scheduler...")
	s.waitGroup.Add(1)
	go s.run()
}

func (s *ArchiveScheduler) Stop() {
	s.logger.Info("Stopping archive scheduler...")
	close(s.shutdownChan)
	s.waitGroup.Wait()
}

func (s *ArchiveScheduler) run() {
	defer s.waitGroup.Done()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdownChan:
			return
		case <-ticker.C:
			if err := s.sweep(context.Background()); err != nil {
				s.logger.Errorf("Archive sweep failed: %v", err)
			}
		}
	}
}

// sweep enqueues one archive message per active tenant and leaves a
// SYSTEM audit record in each tenant's stream. Deactivated tenants keep
// their records frozen and are skipped.
func (s *ArchiveScheduler) sweep(ctx context.Context) error {
	systemCtx := tenantctx.WithSystem(ctx)
	tenants, err := s.tenants.ListActive(systemCtx)
	if err != nil {
		return err
	}

	beforeDate := time.Now().UTC().Add(-s.archiveAfter)
	for i := range tenants {
		if err := s.enqueuer.SendArchiveMessage(ctx, tenants[i].ID, beforeDate); err != nil {
			s.logger.Errorf("Failed to enqueue archive sweep for tenant %s: %v", tenants[i].ID, err)
			continue
		}
		if s.audit != nil {
			scoped := tenantctx.WithTenant(systemCtx, tenants[i].ID)
			s.audit.Observe(scoped, service.Mutation{
				Operation:    domain.OpSystem,
				ResourceType: "audit_archive",
				ResourceID:   tenants[i].ID,
				ResourceName: "scheduled archive sweep",
				NewImage: map[string]interface{}{
					"before_date": beforeDate.Format(time.RFC3339),
				},
			})
		}
	}

	s.logger.Infof("Archive sweep enqueued for %d tenants (before %s)", len(tenants), beforeDate.Format(time.RFC3339))
	return nil
}
