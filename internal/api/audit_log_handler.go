package api

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ledgerstack/tenant-core/internal/api/dto"
	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/tenantctx"
	"github.com/ledgerstack/tenant-core/pkg/utils"
)

//go:generate mockery --name AuditLogService --output ../mocks
type AuditLogService interface {
	List(ctx context.Context, filter *domain.AuditFilter) ([]domain.AuditRecord, error)
	GetByID(ctx context.Context, id string) (*domain.AuditRecord, error)
	GetStats(ctx context.Context, filter *domain.AuditFilter) (*domain.AuditStats, error)
	Verify(ctx context.Context, id string) (bool, error)
	ListViolations(ctx context.Context, status domain.ViolationStatus) ([]domain.AuditViolation, error)
	ResolveViolation(ctx context.Context, id string, status domain.ViolationStatus, notes string) (*domain.AuditViolation, error)
	ScheduleArchive(ctx context.Context, tenantID string, beforeDate time.Time) error
	RecordExport(ctx context.Context, exportType domain.ExportType, modelName string, filters map[string]interface{}, recordCount int64, filePath string, fileSize int64, classification domain.DataClassification) error
}

type AuditLogHandler struct {
	*BaseHandler
	service AuditLogService
}

func NewAuditLogHandler(base *BaseHandler, service AuditLogService) *AuditLogHandler {
	return &AuditLogHandler{BaseHandler: base, service: service}
}

// ListLogs godoc
// @Summary List audit records
// @Description Get audit records for the current tenant with filtering
// @Tags audit
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param user_id query string false "Filter by user ID"
// @Param operation query string false "Filter by operation"
// @Param resource_type query string false "Filter by resource type"
// @Param resource_id query string false "Filter by resource ID"
// @Param start_time query string false "Start time (RFC3339 or YYYY-MM-DD)"
// @Param end_time query string false "End time (RFC3339 or YYYY-MM-DD)"
// @Success 200 {array} dto.AuditRecordResponse
// @Failure 400 {object} dto.Error
// @Router /audit/logs [get]
func (h *AuditLogHandler) ListLogs(c *gin.Context) {
	filter, err := auditFilterFromQuery(c, false)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}

	records, err := h.service.List(h.RequestCtx(c), filter)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromAuditRecords(records))
}

// GetLog godoc
// @Summary Get one audit record
// @Tags audit
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} dto.AuditRecordResponse
// @Failure 404 {object} dto.Error
// @Router /audit/logs/{id} [get]
func (h *AuditLogHandler) GetLog(c *gin.Context) {
	record, err := h.service.GetByID(h.RequestCtx(c), c.Param("id"))
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromAuditRecord(record))
}

// VerifyLog godoc
// @Summary Verify a record's integrity hash
// @Description Recomputes the hash; a mismatch is recorded as a violation
// @Tags audit
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} dto.VerifyRecordResponse
// @Failure 404 {object} dto.Error
// @Router /audit/logs/{id}/verify [get]
func (h *AuditLogHandler) VerifyLog(c *gin.Context) {
	id := c.Param("id")
	valid, err := h.service.Verify(h.RequestCtx(c), id)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.VerifyRecordResponse{ID: id, Valid: valid})
}

// ExportLogs godoc
// @Summary Export audit records
// @Description Export matching records as JSON or CSV. The export itself
// is audited; confidential exports additionally raise a GDPR audit event.
// @Tags audit
// @Produce json,text/csv
// @Param format query string false "Export format (json or csv)" default(json)
// @Param start_time query string true "Start time (RFC3339 or YYYY-MM-DD)"
// @Param end_time query string true "End time (RFC3339 or YYYY-MM-DD)"
// @Success 200 {file} file
// @Failure 400 {object} dto.Error
// @Router /audit/logs/export [get]
func (h *AuditLogHandler) ExportLogs(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "csv" {
		c.JSON(http.StatusBadRequest, dto.Error{Error: "Invalid format. Must be 'json' or 'csv'"})
		return
	}

	filter, err := auditFilterFromQuery(c, true)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}
	// Export ignores pagination and takes the whole window.
	filter.Page = 1
	filter.PageSize = exportPageSize

	records, err := h.service.List(h.RequestCtx(c), filter)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	classification := domain.ClassInternal
	for i := range records {
		if records[i].Classification.Rank() > classification.Rank() {
			classification = records[i].Classification
		}
	}

	exportType := domain.ExportJSON
	fileName := "audit_logs.json"
	if format == "csv" {
		exportType = domain.ExportCSV
		fileName = "audit_logs.csv"
	}

	if err := h.service.RecordExport(h.RequestCtx(c), exportType, "audit_logs",
		map[string]interface{}{
			"start_time":    filter.StartTime.Format(time.RFC3339),
			"end_time":      filter.EndTime.Format(time.RFC3339),
			"operation":     filter.Operation,
			"resource_type": filter.ResourceType,
		},
		int64(len(records)), fileName, 0, classification); err != nil {
		h.RespondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+fileName)
	switch format {
	case "json":
		c.JSON(http.StatusOK, dto.FromAuditRecords(records))
	case "csv":
		c.Header("Content-Type", "text/csv")
		writeRecordsCSV(c, records)
	}
}

const exportPageSize = 10000

func writeRecordsCSV(c *gin.Context, records []domain.AuditRecord) {
	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	header := []string{
		"ID", "TenantID", "UserID", "Operation", "ResourceType",
		"ResourceID", "ResourceName", "ChangedFields", "Framework",
		"Classification", "IPAddress", "RequestID", "Sequence",
		"AuditHash", "Timestamp",
	}
	if err := writer.Write(header); err != nil {
		c.JSON(http.StatusInternalServerError, dto.Error{Error: "Failed to write CSV header"})
		return
	}

	for i := range records {
		r := &records[i]
		userID := ""
		if r.UserID != nil {
			userID = *r.UserID
		}
		row := []string{
			r.ID,
			r.TenantID,
			userID,
			string(r.Operation),
			r.ResourceType,
			r.ResourceID,
			r.ResourceName,
			strings.Join(r.ChangedFields, ";"),
			string(r.Framework),
			string(r.Classification),
			r.IPAddress,
			r.RequestID,
			strconv.FormatInt(r.Sequence, 10),
			r.AuditHash,
			r.Timestamp.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			c.JSON(http.StatusInternalServerError, dto.Error{Error: "Failed to write CSV record"})
			return
		}
	}
}

// GetStats godoc
// @Summary Audit statistics
// @Description Counts by operation, resource type and framework
// @Tags audit
// @Produce json
// @Param start_time query string true "Start time (RFC3339 or YYYY-MM-DD)"
// @Param end_time query string true "End time (RFC3339 or YYYY-MM-DD)"
// @Success 200 {object} dto.AuditStatsResponse
// @Failure 400 {object} dto.Error
// @Router /audit/stats [get]
func (h *AuditLogHandler) GetStats(c *gin.Context) {
	filter, err := auditFilterFromQuery(c, true)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}

	stats, err := h.service.GetStats(h.RequestCtx(c), filter)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromAuditStats(stats))
}

// ListViolations godoc
// @Summary List violations
// @Tags audit
// @Produce json
// @Param status query string false "Filter by status"
// @Success 200 {array} dto.ViolationResponse
// @Router /audit/violations [get]
func (h *AuditLogHandler) ListViolations(c *gin.Context) {
	violations, err := h.service.ListViolations(h.RequestCtx(c), domain.ViolationStatus(c.Query("status")))
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromViolations(violations))
}

// ResolveViolation godoc
// @Summary Resolve a violation
// @Tags audit
// @Accept json
// @Produce json
// @Param id path string true "Violation ID"
// @Param body body dto.ResolveViolationRequest true "Resolution"
// @Success 200 {object} dto.ViolationResponse
// @Failure 404 {object} dto.Error
// @Router /audit/violations/{id} [put]
func (h *AuditLogHandler) ResolveViolation(c *gin.Context) {
	var req dto.ResolveViolationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}

	violation, err := h.service.ResolveViolation(h.RequestCtx(c), c.Param("id"), domain.ViolationStatus(req.Status), req.Notes)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromViolation(violation))
}

// ScheduleArchive godoc
// @Summary Schedule an archive pass
// @Description Enqueues archival of records older than before_date
// @Tags audit
// @Produce json
// @Param before_date query string true "Archive records before this date"
// @Success 202 {object} map[string]interface{}
// @Failure 400 {object} dto.Error
// @Router /audit/archive [post]
func (h *AuditLogHandler) ScheduleArchive(c *gin.Context) {
	tenantID, err := tenantctx.TenantID(h.RequestCtx(c))
	if err != nil {
		h.RespondError(c, err)
		return
	}

	beforeDateStr := c.Query("before_date")
	if beforeDateStr == "" {
		c.JSON(http.StatusBadRequest, dto.Error{Error: "before_date parameter is required"})
		return
	}
	beforeDate, err := utils.ParseUserTime(beforeDateStr, true)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: "Invalid before_date format: " + err.Error()})
		return
	}
	if beforeDate.After(time.Now()) {
		c.JSON(http.StatusBadRequest, dto.Error{Error: "before_date cannot be in the future"})
		return
	}

	if err := h.service.ScheduleArchive(h.RequestCtx(c), tenantID, beforeDate); err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"message":     "Archive operation scheduled",
		"tenant_id":   tenantID,
		"before_date": beforeDate.Format(time.RFC3339),
	})
}

// auditFilterFromQuery builds the filter from the query string. The tenant
// never comes from the query; the scoped repository applies it.
func auditFilterFromQuery(c *gin.Context, requireWindow bool) (*domain.AuditFilter, error) {
	filter := &domain.AuditFilter{
		UserID:       c.Query("user_id"),
		Operation:    c.Query("operation"),
		ResourceType: c.Query("resource_type"),
		ResourceID:   c.Query("resource_id"),
		RequestID:    c.Query("request_id"),
		SessionID:    c.Query("session_id"),
		IPAddress:    c.Query("ip_address"),
	}

	if page := c.Query("page"); page != "" {
		if n, err := strconv.Atoi(page); err == nil {
			filter.Page = n
		}
	}
	if pageSize := c.Query("page_size"); pageSize != "" {
		if n, err := strconv.Atoi(pageSize); err == nil {
			filter.PageSize = n
		}
	}

	if startTime := c.Query("start_time"); startTime != "" {
		t, err := utils.ParseUserTime(startTime, false)
		if err != nil {
			return nil, err
		}
		filter.StartTime = t
	} else if requireWindow {
		return nil, fmt.Errorf("start_time is required")
	}
	if endTime := c.Query("end_time"); endTime != "" {
		t, err := utils.ParseUserTime(endTime, true)
		if err != nil {
			return nil, err
		}
		filter.EndTime = t
	} else if requireWindow {
		return nil, fmt.Errorf("end_time is required")
	}
	if !filter.StartTime.IsZero() && !filter.EndTime.IsZero() && filter.StartTime.After(filter.EndTime) {
		return nil, fmt.Errorf("start_time must be before end_time")
	}

	return filter, nil
}
