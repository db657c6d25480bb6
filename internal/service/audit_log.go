package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledgerstack/tenant-core/internal/audit"
	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/repository"
	"github.com/ledgerstack/tenant-core/internal/tenantctx"
	"github.com/ledgerstack/tenant-core/pkg/logger"
)

//go:generate mockery --name Broadcaster --output ../mocks
type Broadcaster interface {
	BroadcastRecord(record *domain.AuditRecord)
}

//go:generate mockery --name SQSService --output ../mocks
type SQSService interface {
	SendIndexMessage(ctx context.Context, record *domain.AuditRecord) error
	SendBulkIndexMessage(ctx context.Context, records []domain.AuditRecord) error
	SendArchiveMessage(ctx context.Context, tenantID string, beforeDate time.Time) error
	SendCleanupMessage(ctx context.Context, tenantID string, beforeDate time.Time) error
}

// Mutation describes one audited write, images still unmasked.
type Mutation struct {
	Operation     domain.Operation
	ResourceType  string
	ResourceID    string
	ResourceName  string
	OldImage      map[string]interface{}
	NewImage      map[string]interface{}
	ParentAuditID *string
}

// AuditLogService is the audit recorder. Every record passes the same
// pipeline: mask, classify, hash, stamp retention, append. Postgres is
// the source of truth; OpenSearch indexing and websocket fan-out happen
// asynchronously and their failures never surface to the caller.
type AuditLogService struct {
	repo        repository.Repository
	sqsSvc      SQSService
	broadcaster Broadcaster
	logger      *logger.Logger
}

func NewAuditLogService(repo repository.Repository, sqsSvc SQSService, log *logger.Logger) *AuditLogService {
	return &AuditLogService{
		repo:   repo,
		sqsSvc: sqsSvc,
		logger: log,
	}
}

// SetBroadcaster wires the websocket hub. Optional; workers run without.
func (s *AuditLogService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Record appends one audit record for the scoped tenant and returns it.
func (s *AuditLogService) Record(ctx context.Context, m Mutation) (*domain.AuditRecord, error) {
	scope, _ := tenantctx.FromContext(ctx)
	tenantID, err := tenantctx.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	record, err := s.compose(scope, tenantID, m)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Audit().Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store audit record: %w", err)
	}

	s.afterAppend(ctx, record)
	return record, nil
}

// Observe is the fire-safe form of Record for callers on the primary
// path: an audit failure is logged and converted into a POLICY_VIOLATION
// instead of failing the operation that triggered it. Returns the
// appended record, or nil when the write failed, so callers can chain
// follow-up records via ParentAuditID.
func (s *AuditLogService) Observe(ctx context.Context, m Mutation) *domain.AuditRecord {
	record, err := s.Record(ctx, m)
	if err != nil {
		s.logger.Error("audit record write failed", err)
		if verr := s.RecordViolation(ctx,
			domain.ViolationPolicy,
			domain.SeverityMedium,
			"audit record could not be written",
			map[string]interface{}{
				"operation":     string(m.Operation),
				"resource_type": m.ResourceType,
				"resource_id":   m.ResourceID,
				"error":         err.Error(),
			}); verr != nil {
			s.logger.Error("audit failure violation write failed", verr)
		}
		return nil
	}
	return record
}

func (s *AuditLogService) compose(scope tenantctx.Scope, tenantID string, m Mutation) (*domain.AuditRecord, error) {
	maskedOld := audit.MaskMap(m.OldImage)
	maskedNew := audit.MaskMap(m.NewImage)

	classification, sensitive := audit.Classify(maskedNew)
	if maskedNew == nil {
		classification, sensitive = audit.Classify(maskedOld)
	}
	framework := audit.FrameworkFor(maskedNew)
	if maskedNew == nil {
		framework = audit.FrameworkFor(maskedOld)
	}

	oldJSON, err := domain.NewJSONB(maskedOld)
	if err != nil {
		return nil, fmt.Errorf("failed to encode old image: %w", err)
	}
	newJSON, err := domain.NewJSONB(maskedNew)
	if err != nil {
		return nil, fmt.Errorf("failed to encode new image: %w", err)
	}

	var userID *string
	if scope.UserID != "" {
		uid := scope.UserID
		userID = &uid
	}

	now := time.Now().UTC()
	record := &domain.AuditRecord{
		ID:             uuid.New().String(),
		TenantID:       tenantID,
		UserID:         userID,
		Operation:      m.Operation,
		ResourceType:   m.ResourceType,
		ResourceID:     m.ResourceID,
		ResourceName:   m.ResourceName,
		OldImage:       oldJSON,
		NewImage:       newJSON,
		ChangedFields:  domain.StringList(audit.ChangedFields(maskedOld, maskedNew)),
		Framework:      framework,
		Classification: classification,
		Sensitive:      sensitive,
		IPAddress:      scope.IPAddress,
		UserAgent:      scope.UserAgent,
		RequestID:      scope.RequestID,
		SessionID:      scope.SessionID,
		Sequence:       scope.NextSequence(),
		ParentAuditID:  m.ParentAuditID,
		Timestamp:      now,
		RetentionUntil: now.Add(domain.RetentionHorizon(framework)),
	}
	record.AuditHash = audit.RecordHash(record)

	return record, nil
}

func (s *AuditLogService) afterAppend(ctx context.Context, record *domain.AuditRecord) {
	if s.sqsSvc != nil {
		if err := s.sqsSvc.SendIndexMessage(ctx, record); err != nil {
			s.logger.Error("failed to enqueue index message", err)
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastRecord(record)
	}
}

// RecordViolation writes an AuditViolation; HIGH and CRITICAL ones also
// open a ComplianceViolation for framework-level reporting.
func (s *AuditLogService) RecordViolation(ctx context.Context, kind domain.ViolationKind, severity domain.ViolationSeverity, description string, details map[string]interface{}) error {
	tenantID, err := tenantctx.TenantID(ctx)
	if err != nil {
		return err
	}
	scope, _ := tenantctx.FromContext(ctx)

	detailsJSON, err := domain.NewJSONB(details)
	if err != nil {
		return fmt.Errorf("failed to encode violation details: %w", err)
	}

	var userID *string
	if scope.UserID != "" {
		uid := scope.UserID
		userID = &uid
	}

	violation := &domain.AuditViolation{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		UserID:      userID,
		Kind:        kind,
		Severity:    severity,
		Status:      domain.ViolationOpen,
		Description: description,
		Details:     detailsJSON,
	}
	if err := s.repo.Audit().CreateViolation(ctx, violation); err != nil {
		return fmt.Errorf("failed to store violation: %w", err)
	}

	if severity == domain.SeverityHigh || severity == domain.SeverityCritical {
		compliance := &domain.ComplianceViolation{
			ID:          uuid.New().String(),
			TenantID:    tenantID,
			ViolationID: violation.ID,
			Framework:   domain.FrameworkSOX,
			Status:      domain.ViolationOpen,
		}
		if err := s.repo.Audit().CreateComplianceViolation(ctx, compliance); err != nil {
			s.logger.Error("failed to store compliance violation", err)
		}
	}

	return nil
}

// RecordQuery logs an opted-in read path.
func (s *AuditLogService) RecordQuery(ctx context.Context, queryType domain.QueryType, modelName string, filters map[string]interface{}, fields []string, recordCount int64) error {
	scope, _ := tenantctx.FromContext(ctx)
	tenantID, err := tenantctx.TenantID(ctx)
	if err != nil {
		return err
	}

	filtersJSON, err := domain.NewJSONB(filters)
	if err != nil {
		return fmt.Errorf("failed to encode filters: %w", err)
	}

	classification, sensitive := audit.Classify(filters)

	var userID *string
	if scope.UserID != "" {
		uid := scope.UserID
		userID = &uid
	}

	return s.repo.Audit().CreateQueryAudit(ctx, &domain.QueryAudit{
		ID:             uuid.New().String(),
		TenantID:       tenantID,
		UserID:         userID,
		QueryType:      queryType,
		ModelName:      modelName,
		FiltersApplied: filtersJSON,
		FieldsAccessed: domain.StringList(fields),
		RecordCount:    recordCount,
		Classification: classification,
		Sensitive:      sensitive,
		RequestID:      scope.RequestID,
		Timestamp:      time.Now().UTC(),
	})
}

// RecordExport logs a data export. Exports of CONFIDENTIAL or higher data
// additionally emit a GDPR data_export audit event. The exported file's
// retention follows the export record's.
func (s *AuditLogService) RecordExport(ctx context.Context, exportType domain.ExportType, modelName string, filters map[string]interface{}, recordCount int64, filePath string, fileSize int64, classification domain.DataClassification) error {
	scope, _ := tenantctx.FromContext(ctx)
	tenantID, err := tenantctx.TenantID(ctx)
	if err != nil {
		return err
	}

	filtersJSON, err := domain.NewJSONB(filters)
	if err != nil {
		return fmt.Errorf("failed to encode filters: %w", err)
	}

	var userID *string
	if scope.UserID != "" {
		uid := scope.UserID
		userID = &uid
	}

	now := time.Now().UTC()
	export := &domain.ExportAudit{
		ID:             uuid.New().String(),
		TenantID:       tenantID,
		UserID:         userID,
		ExportType:     exportType,
		ModelName:      modelName,
		FiltersApplied: filtersJSON,
		RecordCount:    recordCount,
		FilePath:       filePath,
		FileSize:       fileSize,
		Classification: classification,
		RequestID:      scope.RequestID,
		RetentionUntil: now.Add(domain.RetentionHorizon(domain.FrameworkGDPR)),
		Timestamp:      now,
	}
	if err := s.repo.Audit().CreateExportAudit(ctx, export); err != nil {
		return fmt.Errorf("failed to store export audit: %w", err)
	}

	if qerr := s.RecordQuery(ctx, domain.QueryExport, modelName, filters, nil, recordCount); qerr != nil {
		s.logger.Error("failed to record export query audit", qerr)
	}

	if classification.Rank() >= domain.ClassConfidential.Rank() {
		s.Observe(ctx, Mutation{
			Operation:    domain.OpExport,
			ResourceType: "data_export",
			ResourceID:   export.ID,
			ResourceName: modelName,
			NewImage: map[string]interface{}{
				"export_type":  string(exportType),
				"model_name":   modelName,
				"record_count": recordCount,
				"file_path":    filePath,
			},
		})
	}

	return nil
}

// Verify recomputes a record's hash. A mismatch is itself a policy
// violation and is recorded as such.
func (s *AuditLogService) Verify(ctx context.Context, id string) (bool, error) {
	record, err := s.repo.Audit().GetByID(ctx, id)
	if err != nil {
		return false, err
	}

	if audit.Verify(record) {
		return true, nil
	}

	if err := s.RecordViolation(ctx,
		domain.ViolationPolicy,
		domain.SeverityHigh,
		"audit record hash mismatch",
		map[string]interface{}{
			"audit_record_id": record.ID,
			"stored_hash":     record.AuditHash,
			"computed_hash":   audit.RecordHash(record),
		}); err != nil {
		s.logger.Error("failed to record hash mismatch violation", err)
	}

	return false, nil
}

func (s *AuditLogService) GetByID(ctx context.Context, id string) (*domain.AuditRecord, error) {
	record, err := s.repo.Audit().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

// List serves simple listings from postgres and search-shaped filters
// from OpenSearch, mirroring where each query runs best.
func (s *AuditLogService) List(ctx context.Context, filter *domain.AuditFilter) ([]domain.AuditRecord, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 10
	}
	filter.Limit = filter.PageSize
	filter.Offset = (filter.Page - 1) * filter.PageSize

	if s.hasSearchCriteria(filter) && s.repo.OpenSearch() != nil {
		records, err := s.repo.OpenSearch().Search(ctx, filter)
		if err == nil {
			return records, nil
		}
		s.logger.Error("opensearch query failed, falling back to postgres", err)
	}

	return s.repo.Audit().List(ctx, *filter)
}

// GetStats aggregates audit records. Aggregations are an opted-in read
// path, so each call also leaves a query-audit row behind.
func (s *AuditLogService) GetStats(ctx context.Context, filter *domain.AuditFilter) (*domain.AuditStats, error) {
	stats, err := s.repo.Audit().GetStats(ctx, *filter)
	if err != nil {
		return nil, err
	}
	if qerr := s.RecordQuery(ctx, domain.QueryAggregate, "audit_logs",
		statFilters(filter), nil, stats.TotalRecords); qerr != nil {
		s.logger.Error("failed to record stats query audit", qerr)
	}
	return stats, nil
}

func statFilters(filter *domain.AuditFilter) map[string]interface{} {
	out := map[string]interface{}{}
	if !filter.StartTime.IsZero() {
		out["start_time"] = filter.StartTime.Format(time.RFC3339)
	}
	if !filter.EndTime.IsZero() {
		out["end_time"] = filter.EndTime.Format(time.RFC3339)
	}
	if filter.ResourceType != "" {
		out["resource_type"] = filter.ResourceType
	}
	return out
}

func (s *AuditLogService) ListViolations(ctx context.Context, status domain.ViolationStatus) ([]domain.AuditViolation, error) {
	tenantID, err := tenantctx.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.Audit().ListViolations(ctx, tenantID, status)
}

// ResolveViolation closes out a violation; resolved_at is stamped iff the
// new status is RESOLVED or CLOSED.
func (s *AuditLogService) ResolveViolation(ctx context.Context, id string, status domain.ViolationStatus, notes string) (*domain.AuditViolation, error) {
	tenantID, err := tenantctx.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	violations, err := s.repo.Audit().ListViolations(ctx, tenantID, "")
	if err != nil {
		return nil, err
	}
	for i := range violations {
		v := &violations[i]
		if v.ID != id {
			continue
		}
		v.Status = status
		v.Notes = notes
		if status == domain.ViolationResolved || status == domain.ViolationClosed {
			now := time.Now().UTC()
			v.ResolvedAt = &now
			if uid := tenantctx.UserID(ctx); uid != "" {
				v.ResolvedBy = &uid
			}
		}
		if err := s.repo.Audit().UpdateViolation(ctx, v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, ErrNotFound
}

func (s *AuditLogService) hasSearchCriteria(filter *domain.AuditFilter) bool {
	return filter.UserID != "" ||
		filter.Operation != "" ||
		filter.ResourceType != "" ||
		filter.ResourceID != "" ||
		filter.IPAddress != "" ||
		filter.SessionID != ""
}

// ScheduleArchive enqueues an archive pass for one tenant.
func (s *AuditLogService) ScheduleArchive(ctx context.Context, tenantID string, beforeDate time.Time) error {
	return s.sqsSvc.SendArchiveMessage(ctx, tenantID, beforeDate)
}

// ScheduleCleanup enqueues a post-retention cleanup pass for one tenant.
func (s *AuditLogService) ScheduleCleanup(ctx context.Context, tenantID string, beforeDate time.Time) error {
	return s.sqsSvc.SendCleanupMessage(ctx, tenantID, beforeDate)
}
