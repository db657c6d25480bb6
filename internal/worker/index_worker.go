// Package worker holds the background consumers: indexing into
// OpenSearch, archival to S3, post-retention cleanup, and the scheduler
// that feeds the archive queue. Each worker polls its SQS queue with long
// polling and deletes a message only after processing it.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ledgerstack/tenant-core/internal/config"
	"github.com/ledgerstack/tenant-core/internal/repository"
	"github.com/ledgerstack/tenant-core/internal/service/queue"
	"github.com/ledgerstack/tenant-core/pkg/logger"
)

const (
	defaultMaxMessages = 10
	defaultWaitTime    = 20 // long polling, seconds
)

// IndexWorker drains the index queue into OpenSearch. Indexing failures
// leave the message on the queue for redelivery, which makes OpenSearch
// eventually consistent with postgres.
type IndexWorker struct {
	sqsService   *queue.SQSService
	osRepository repository.OpenSearchRepository
	logger       *logger.Logger
	workerCount  int
	pollInterval time.Duration
	queueURL     string
	shutdownChan chan struct{}
	waitGroup    sync.WaitGroup
}

func NewIndexWorker(
	sqsService *queue.SQSService,
	osRepository repository.OpenSearchRepository,
	log *logger.Logger,
	workerCount int,
	pollInterval time.Duration,
) *IndexWorker {
	return &IndexWorker{
		sqsService:   sqsService,
		osRepository: osRepository,
		logger:       log,
		workerCount:  workerCount,
		pollInterval: pollInterval,
		queueURL:     config.DefaultSQSConfig().IndexQueueURL,
		shutdownChan: make(chan struct{}),
	}
}

func (w *IndexWorker) Start() {
	w.logger.Info("Starting index workers...")
	for i := 0; i < w.workerCount; i++ {
		w.waitGroup.Add(1)
		go w.runWorker(i)
	}
}

func (w *IndexWorker) Stop() {
	w.logger.Info("Stopping index workers...")
	close(w.shutdownChan)
	w.waitGroup.Wait()
	w.logger.Info("All index workers stopped")
}

func (w *IndexWorker) runWorker(workerID int) {
	defer w.waitGroup.Done()
	w.logger.Infof("Index worker %d started", workerID)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.shutdownChan:
			w.logger.Infof("Index worker %d shutting down", workerID)
			return
		case <-ticker.C:
			if err := w.processMessages(context.Background()); err != nil {
				w.logger.Errorf("Index worker %d failed to process messages: %v", workerID, err)
			}
		}
	}
}

func (w *IndexWorker) processMessages(ctx context.Context) error {
	messages, err := w.sqsService.ReceiveMessages(ctx, w.queueURL, defaultMaxMessages, defaultWaitTime)
	if err != nil {
		return fmt.Errorf("failed to receive messages: %w", err)
	}

	for _, msg := range messages {
		if err := w.processMessage(ctx, msg.Message); err != nil {
			w.logger.Errorf("Failed to process message: %v", err)
			continue
		}
		if err := w.sqsService.DeleteMessage(ctx, w.queueURL, msg.ReceiptHandle); err != nil {
			w.logger.Errorf("Failed to delete message: %v", err)
		}
	}
	return nil
}

func (w *IndexWorker) processMessage(ctx context.Context, msg queue.Message) error {
	switch msg.Type {
	case queue.MessageTypeIndex:
		if len(msg.Records) != 1 {
			return fmt.Errorf("invalid record count for INDEX message: %d", len(msg.Records))
		}
		return w.osRepository.Index(ctx, &msg.Records[0])

	case queue.MessageTypeBulkIndex:
		if len(msg.Records) == 0 {
			return fmt.Errorf("empty records array for BULK_INDEX message")
		}
		return w.osRepository.BulkIndex(ctx, msg.Records)

	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}
