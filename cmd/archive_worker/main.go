package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ledgerstack/tenant-core/internal/config"
	"github.com/ledgerstack/tenant-core/internal/repository/composite"
	"github.com/ledgerstack/tenant-core/internal/repository/postgres"
	"github.com/ledgerstack/tenant-core/internal/service"
	"github.com/ledgerstack/tenant-core/internal/service/queue"
	"github.com/ledgerstack/tenant-core/internal/worker"
	"github.com/ledgerstack/tenant-core/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	// Initialize logger
	appLogger := logger.NewLogger(os.Getenv("APP_ENV"))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		appLogger.Fatal("Failed to load configuration", err)
	}

	// Initialize PostgreSQL with database connections
	dbConnections, err := config.NewDatabaseConnections()
	if err != nil {
		appLogger.Fatal("Failed to connect to PostgreSQL", err)
	}
	defer dbConnections.Close()

	pgRepo := postgres.NewPostgresRepository(dbConnections, cfg.AllowTenantBypass)
	auditSvc := service.NewAuditLogService(composite.NewPostgresOnly(pgRepo), nil, appLogger)

	// Initialize S3 for the archive bucket
	s3Config := config.DefaultS3Config()
	s3Client, err := s3Config.GetClient(context.Background())
	if err != nil {
		appLogger.Fatal("Failed to connect to S3", err)
	}

	// Initialize SQS
	sqsConfig := config.DefaultSQSConfig()
	sqsClient, err := sqsConfig.GetClient()
	if err != nil {
		appLogger.Fatal("Failed to connect to SQS", err)
	}
	sqsService := queue.NewSQSService(sqsClient, sqsConfig)

	// Create archive worker
	archiveWorker := worker.NewArchiveWorker(
		sqsService,
		pgRepo,
		auditSvc,
		appLogger,
		1,             // worker count
		5*time.Second, // poll interval
		s3Client,
		s3Config,
	)

	// The scheduler sweeps active tenants daily and enqueues archive jobs
	// for records older than the configured horizon.
	scheduler := worker.NewArchiveScheduler(
		sqsService,
		pgRepo.Tenant(),
		auditSvc,
		appLogger,
		24*time.Hour,
		cfg.ArchiveAfter,
	)

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start worker and scheduler
	go func() {
		appLogger.Info("Starting archive worker...")
		archiveWorker.Start()
	}()
	scheduler.Start()

	// Wait for shutdown signal
	<-sigChan
	appLogger.Info("Shutting down archive worker...")

	// Stop scheduler first so no new jobs are enqueued mid-shutdown
	scheduler.Stop()
	archiveWorker.Stop()
	appLogger.Info("Archive worker stopped")
	appLogger.Sync()
}
