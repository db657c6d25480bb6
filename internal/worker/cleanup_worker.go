package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ledgerstack/tenant-core/internal/config"
	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/repository"
	"github.com/ledgerstack/tenant-core/internal/service"
	"github.com/ledgerstack/tenant-core/internal/service/queue"
	"github.com/ledgerstack/tenant-core/internal/tenantctx"
	"github.com/ledgerstack/tenant-core/pkg/logger"
)

// CleanupWorker deletes archived records whose retention horizon has
// passed. Unarchived rows are never deleted here, whatever their age.
type CleanupWorker struct {
	sqsService   *queue.SQSService
	repository   repository.PostgresRepository
	audit        auditObserver
	logger       *logger.Logger
	workerCount  int
	pollInterval time.Duration
	queueURL     string
	shutdownChan chan struct{}
	waitGroup    sync.WaitGroup
}

func NewCleanupWorker(
	sqsService *queue.SQSService,
	repo repository.PostgresRepository,
	audit auditObserver,
	log *logger.Logger,
	workerCount int,
	pollInterval time.Duration,
) *CleanupWorker {
	return &CleanupWorker{
		sqsService:   sqsService,
		repository:   repo,
		audit:        audit,
		logger:       log,
		workerCount:  workerCount,
		pollInterval: pollInterval,
		queueURL:     config.DefaultSQSConfig().CleanupQueueURL,
		shutdownChan: make(chan struct{}),
	}
}

func (w *CleanupWorker) Start() {
	w.logger.Info("Starting cleanup workers...")
	for i := 0; i < w.workerCount; i++ {
		w.waitGroup.Add(1)
		go w.runWorker(i)
	}
}

func (w *CleanupWorker) Stop() {
	w.logger.Info("Stopping cleanup workers...")
	close(w.shutdownChan)
	w.waitGroup.Wait()
	w.logger.Info("All cleanup workers stopped")
}

func (w *CleanupWorker) runWorker(workerID int) {
	defer w.waitGroup.Done()
	w.logger.Infof("Cleanup worker %d started", workerID)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.shutdownChan:
			w.logger.Infof("Cleanup worker %d shutting down", workerID)
			return
		case <-ticker.C:
			if err := w.processMessages(context.Background()); err != nil {
				w.logger.Errorf("Cleanup worker %d failed to process messages: %v", workerID, err)
			}
		}
	}
}

func (w *CleanupWorker) processMessages(ctx context.Context) error {
	messages, err := w.sqsService.ReceiveMessages(ctx, w.queueURL, defaultMaxMessages, defaultWaitTime)
	if err != nil {
		return fmt.Errorf("failed to receive messages: %w", err)
	}

	for _, msg := range messages {
		if msg.Message.Type != queue.MessageTypeCleanup {
			continue
		}
		if err := w.processCleanupMessage(ctx, msg.Message); err != nil {
			w.logger.Errorf("Failed to process cleanup message: %v", err)
			continue
		}
		if err := w.sqsService.DeleteMessage(ctx, w.queueURL, msg.ReceiptHandle); err != nil {
			w.logger.Errorf("Failed to delete message: %v", err)
		}
	}
	return nil
}

func (w *CleanupWorker) processCleanupMessage(ctx context.Context, msg queue.Message) error {
	scoped := tenantctx.WithTenant(tenantctx.WithSystem(ctx), msg.TenantID)

	deleted, err := w.repository.Audit().DeleteExpiredArchived(scoped, msg.TenantID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to delete expired records for tenant %s: %w", msg.TenantID, err)
	}

	if deleted > 0 && w.audit != nil {
		w.audit.Observe(scoped, service.Mutation{
			Operation:    domain.OpSystem,
			ResourceType: "audit_cleanup",
			ResourceID:   msg.TenantID,
			ResourceName: "post-retention cleanup",
			NewImage: map[string]interface{}{
				"deleted_count": deleted,
			},
		})
	}

	w.logger.Infof("Deleted %d expired archived records for tenant %s", deleted, msg.TenantID)
	return nil
}
