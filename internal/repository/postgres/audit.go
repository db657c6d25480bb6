package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/repository"
)

// AuditRepository owns the append-only audit tables. Records are never
// updated or deleted inside their retention horizon; the only mutations
// are the Archived flag and post-retention cleanup.
type AuditRepository struct {
	writerDB    *gorm.DB
	readerDB    *gorm.DB
	allowBypass bool
}

func NewAuditRepository(writerDB, readerDB *gorm.DB, allowBypass bool) *AuditRepository {
	return &AuditRepository{
		writerDB:    writerDB,
		readerDB:    readerDB,
		allowBypass: allowBypass,
	}
}

func (r *AuditRepository) Create(ctx context.Context, record *domain.AuditRecord) error {
	if err := assignTenant(ctx, &record.TenantID); err != nil {
		return err
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	return r.writerDB.WithContext(ctx).Create(record).Error
}

func (r *AuditRepository) GetByID(ctx context.Context, id string) (*domain.AuditRecord, error) {
	var record domain.AuditRecord
	db := tenantScope(r.readerDB, ctx, r.allowBypass)
	if err := db.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Distinguish a genuinely missing row from one owned by
			// another tenant so the caller can raise a violation.
			var n int64
			if countErr := r.readerDB.WithContext(ctx).
				Model(&domain.AuditRecord{}).
				Where("id = ?", id).
				Count(&n).Error; countErr == nil && n > 0 {
				return nil, repository.ErrCrossTenantRead
			}
		}
		return nil, err
	}
	return &record, nil
}

func applyAuditFilter(db *gorm.DB, filter domain.AuditFilter) *gorm.DB {
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if filter.Operation != "" {
		db = db.Where("operation = ?", filter.Operation)
	}
	if filter.ResourceType != "" {
		db = db.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		db = db.Where("resource_id = ?", filter.ResourceID)
	}
	if filter.RequestID != "" {
		db = db.Where("request_id = ?", filter.RequestID)
	}
	if filter.SessionID != "" {
		db = db.Where("session_id = ?", filter.SessionID)
	}
	if filter.IPAddress != "" {
		db = db.Where("ip_address = ?", filter.IPAddress)
	}
	if !filter.StartTime.IsZero() {
		db = db.Where("timestamp >= ?", filter.StartTime)
	}
	if !filter.EndTime.IsZero() {
		db = db.Where("timestamp <= ?", filter.EndTime)
	}
	if filter.Archived != nil {
		db = db.Where("archived = ?", *filter.Archived)
	}
	return db
}

func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditRecord, error) {
	var records []domain.AuditRecord

	db := tenantScope(r.readerDB, ctx, r.allowBypass)
	db = applyAuditFilter(db, filter)

	if filter.Limit > 0 {
		db = db.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		db = db.Offset(filter.Offset)
	}
	// Within equal timestamps, sequence preserves the per-request order.
	db = db.Order("timestamp DESC, sequence DESC")

	if err := db.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *AuditRepository) GetStats(ctx context.Context, filter domain.AuditFilter) (*domain.AuditStats, error) {
	if filter.StartTime.IsZero() || filter.EndTime.IsZero() {
		return nil, fmt.Errorf("start time and end time are required")
	}

	db := tenantScope(r.readerDB, ctx, r.allowBypass)

	stats := &domain.AuditStats{
		OperationCount: make(map[domain.Operation]int64),
		ResourceCount:  make(map[string]int64),
		FrameworkCount: make(map[domain.ComplianceFramework]int64),
	}

	type countResult struct {
		Category string
		Key      string
		Count    int64
	}
	var results []countResult

	base := db.Model(&domain.AuditRecord{}).
		Where("timestamp >= ? AND timestamp < ?", filter.StartTime, filter.EndTime)

	for _, group := range []struct {
		category string
		column   string
	}{
		{"operation", "operation"},
		{"resource_type", "resource_type"},
		{"framework", "framework"},
	} {
		var rows []countResult
		err := base.Session(&gorm.Session{}).
			Select(fmt.Sprintf("'%s' AS category, %s AS key, COUNT(*) AS count", group.category, group.column)).
			Group(group.column).
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get %s counts: %w", group.category, err)
		}
		results = append(results, rows...)
	}

	for _, row := range results {
		switch row.Category {
		case "operation":
			stats.OperationCount[domain.Operation(row.Key)] = row.Count
			stats.TotalRecords += row.Count
		case "resource_type":
			stats.ResourceCount[row.Key] = row.Count
		case "framework":
			stats.FrameworkCount[domain.ComplianceFramework(row.Key)] = row.Count
		}
	}

	return stats, nil
}

func (r *AuditRepository) CreateQueryAudit(ctx context.Context, q *domain.QueryAudit) error {
	if err := assignTenant(ctx, &q.TenantID); err != nil {
		return err
	}
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	return r.writerDB.WithContext(ctx).Create(q).Error
}

func (r *AuditRepository) CreateExportAudit(ctx context.Context, e *domain.ExportAudit) error {
	if err := assignTenant(ctx, &e.TenantID); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return r.writerDB.WithContext(ctx).Create(e).Error
}

// CreateViolation writes in its own transaction so the row survives when
// the request that triggered it rolls back or fails.
func (r *AuditRepository) CreateViolation(ctx context.Context, v *domain.AuditViolation) error {
	if v.TenantID == "" {
		if err := assignTenant(ctx, &v.TenantID); err != nil {
			return err
		}
	}
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return r.writerDB.WithContext(ctx).Create(v).Error
}

func (r *AuditRepository) CreateComplianceViolation(ctx context.Context, v *domain.ComplianceViolation) error {
	if v.TenantID == "" {
		if err := assignTenant(ctx, &v.TenantID); err != nil {
			return err
		}
	}
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return r.writerDB.WithContext(ctx).Create(v).Error
}

func (r *AuditRepository) ListViolations(ctx context.Context, tenantID string, status domain.ViolationStatus) ([]domain.AuditViolation, error) {
	var violations []domain.AuditViolation
	db := tenantScope(r.readerDB, ctx, r.allowBypass)
	if tenantID != "" {
		db = db.Where("tenant_id = ?", tenantID)
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if err := db.Order("created_at DESC").Find(&violations).Error; err != nil {
		return nil, err
	}
	return violations, nil
}

func (r *AuditRepository) UpdateViolation(ctx context.Context, v *domain.AuditViolation) error {
	if err := assignTenant(ctx, &v.TenantID); err != nil {
		return err
	}
	v.UpdatedAt = time.Now().UTC()
	return r.writerDB.WithContext(ctx).Save(v).Error
}

// ListForArchive returns unarchived records older than the cutoff for one
// tenant, oldest first so archives fill chronologically.
func (r *AuditRepository) ListForArchive(ctx context.Context, tenantID string, before time.Time, limit int) ([]domain.AuditRecord, error) {
	var records []domain.AuditRecord
	err := r.readerDB.WithContext(ctx).
		Where("tenant_id = ? AND archived = ? AND timestamp < ?", tenantID, false, before).
		Order("timestamp ASC, sequence ASC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *AuditRepository) MarkArchived(ctx context.Context, tenantID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.writerDB.WithContext(ctx).
		Model(&domain.AuditRecord{}).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Update("archived", true)
	return result.RowsAffected, result.Error
}

// DeleteExpiredArchived removes records whose retention horizon has
// passed. Only archived rows qualify: the S3 copy must already exist.
func (r *AuditRepository) DeleteExpiredArchived(ctx context.Context, tenantID string, now time.Time) (int64, error) {
	result := r.writerDB.WithContext(ctx).
		Where("tenant_id = ? AND archived = ? AND retention_until < ?", tenantID, true, now).
		Delete(&domain.AuditRecord{})
	return result.RowsAffected, result.Error
}
