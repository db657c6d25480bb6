package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ledgerstack/tenant-core/internal/config"
	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/repository"
	"github.com/ledgerstack/tenant-core/internal/service"
	"github.com/ledgerstack/tenant-core/internal/service/queue"
	"github.com/ledgerstack/tenant-core/internal/tenantctx"
	"github.com/ledgerstack/tenant-core/pkg/logger"
)

const archiveBatchSize = 1000

// ArchiveWorker moves aged audit records to S3 and marks them archived.
// The rows stay in postgres until their retention horizon passes; the
// cleanup worker removes them after that.
type ArchiveWorker struct {
	sqsService   *queue.SQSService
	repository   repository.PostgresRepository
	audit        auditObserver
	logger       *logger.Logger
	workerCount  int
	pollInterval time.Duration
	queueURL     string
	shutdownChan chan struct{}
	waitGroup    sync.WaitGroup
	s3Client     *s3.Client
	s3Config     *config.S3Config
}

func NewArchiveWorker(
	sqsService *queue.SQSService,
	repo repository.PostgresRepository,
	audit auditObserver,
	log *logger.Logger,
	workerCount int,
	pollInterval time.Duration,
	s3Client *s3.Client,
	s3Config *config.S3Config,
) *ArchiveWorker {
	return &ArchiveWorker{
		sqsService:   sqsService,
		repository:   repo,
		audit:        audit,
		logger:       log,
		workerCount:  workerCount,
		pollInterval: pollInterval,
		queueURL:     config.DefaultSQSConfig().ArchiveQueueURL,
		shutdownChan: make(chan struct{}),
		s3Client:     s3Client,
		s3Config:     s3Config,
	}
}

func (w *ArchiveWorker) Start() {
	w.logger.Info("Starting archive workers...")
	for i := 0; i < w.workerCount; i++ {
		w.waitGroup.Add(1)
		go w.runWorker(i)
	}
}

func (w *ArchiveWorker) Stop() {
	w.logger.Info("Stopping archive workers...")
	close(w.shutdownChan)
	w.waitGroup.Wait()
	w.logger.Info("All archive workers stopped")
}

func (w *ArchiveWorker) runWorker(workerID int) {
	defer w.waitGroup.Done()
	w.logger.Infof("Archive worker %d started", workerID)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.shutdownChan:
			w.logger.Infof("Archive worker %d shutting down", workerID)
			return
		case <-ticker.C:
			if err := w.processMessages(context.Background()); err != nil {
				w.logger.Errorf("Archive worker %d failed to process messages: %v", workerID, err)
			}
		}
	}
}

func (w *ArchiveWorker) processMessages(ctx context.Context) error {
	messages, err := w.sqsService.ReceiveMessages(ctx, w.queueURL, defaultMaxMessages, defaultWaitTime)
	if err != nil {
		return fmt.Errorf("failed to receive messages: %w", err)
	}

	for _, msg := range messages {
		if msg.Message.Type != queue.MessageTypeArchive {
			continue
		}
		if err := w.processArchiveMessage(ctx, msg.Message); err != nil {
			w.logger.Errorf("Failed to process archive message: %v", err)
			continue
		}
		if err := w.sqsService.DeleteMessage(ctx, w.queueURL, msg.ReceiptHandle); err != nil {
			w.logger.Errorf("Failed to delete message: %v", err)
		}
	}
	return nil
}

// processArchiveMessage drains one tenant's aged records in batches. Rows
// are marked archived only after the batch landed in S3.
func (w *ArchiveWorker) processArchiveMessage(ctx context.Context, msg queue.Message) error {
	w.logger.Infof("Processing archive message for tenant %s (before: %s)",
		msg.TenantID, msg.BeforeDate.Format(time.RFC3339))

	// Workers run outside any request; the system scope narrowed to the
	// tenant keeps the row filter intact.
	scoped := tenantctx.WithTenant(tenantctx.WithSystem(ctx), msg.TenantID)

	totalArchived := 0
	for {
		records, err := w.repository.Audit().ListForArchive(scoped, msg.TenantID, msg.BeforeDate, archiveBatchSize)
		if err != nil {
			return fmt.Errorf("failed to fetch records for archival for tenant %s: %w", msg.TenantID, err)
		}
		if len(records) == 0 {
			break
		}

		if err := w.uploadBatch(ctx, msg.TenantID, records, msg.BeforeDate, totalArchived); err != nil {
			return fmt.Errorf("failed to archive records for tenant %s: %w", msg.TenantID, err)
		}

		ids := make([]string, len(records))
		for i := range records {
			ids[i] = records[i].ID
		}
		marked, err := w.repository.Audit().MarkArchived(scoped, msg.TenantID, ids)
		if err != nil {
			return fmt.Errorf("failed to mark records archived for tenant %s: %w", msg.TenantID, err)
		}
		totalArchived += int(marked)

		if len(records) < archiveBatchSize {
			break
		}
	}

	if totalArchived == 0 {
		w.logger.Infof("No records to archive for tenant %s before %s", msg.TenantID, msg.BeforeDate.Format(time.RFC3339))
	} else {
		w.logger.Infof("Archived %d records for tenant %s to S3", totalArchived, msg.TenantID)
		if w.audit != nil {
			w.audit.Observe(scoped, service.Mutation{
				Operation:    domain.OpSystem,
				ResourceType: "audit_archive",
				ResourceID:   msg.TenantID,
				ResourceName: "audit record archival",
				NewImage: map[string]interface{}{
					"archived_count": totalArchived,
					"before_date":    msg.BeforeDate.Format(time.RFC3339),
				},
			})
		}
	}

	// Cleanup runs regardless: earlier archived rows may have aged past
	// their retention horizon by now.
	if err := w.sqsService.SendCleanupMessage(ctx, msg.TenantID, msg.BeforeDate); err != nil {
		return fmt.Errorf("failed to enqueue cleanup message: %w", err)
	}
	return nil
}

func (w *ArchiveWorker) uploadBatch(ctx context.Context, tenantID string, records []domain.AuditRecord, beforeDate time.Time, batchOffset int) error {
	s3Key := fmt.Sprintf("audit-archive/%s/records_before_%s_batch_%d.json",
		tenantID,
		beforeDate.Format("2006-01-02"),
		batchOffset)

	archiveData := map[string]interface{}{
		"tenant_id":   tenantID,
		"before_date": beforeDate,
		"archived_at": time.Now().UTC(),
		"records":     records,
	}
	jsonData, err := json.MarshalIndent(archiveData, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records to JSON: %w", err)
	}

	contentType := "application/json"
	_, err = w.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &w.s3Config.BucketName,
		Key:         &s3Key,
		Body:        bytes.NewReader(jsonData),
		ContentType: &contentType,
		Metadata: map[string]string{
			"tenant-id":   tenantID,
			"archived-at": time.Now().UTC().Format(time.RFC3339),
			"before-date": beforeDate.Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload archive to S3: %w", err)
	}

	w.logger.Infof("Uploaded archive batch to s3://%s/%s", w.s3Config.BucketName, s3Key)
	return nil
}
