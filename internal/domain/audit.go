package domain

import (
	"time"
)

type Operation string

const (
	OpCreate  Operation = "CREATE"
	OpRead    Operation = "READ"
	OpUpdate  Operation = "UPDATE"
	OpDelete  Operation = "DELETE"
	OpLogin   Operation = "LOGIN"
	OpLogout  Operation = "LOGOUT"
	OpExport  Operation = "EXPORT"
	OpImport  Operation = "IMPORT"
	OpBackup  Operation = "BACKUP"
	OpRestore Operation = "RESTORE"
	OpSystem  Operation = "SYSTEM"
)

type DataClassification string

const (
	ClassPublic       DataClassification = "PUBLIC"
	ClassInternal     DataClassification = "INTERNAL"
	ClassConfidential DataClassification = "CONFIDENTIAL"
	ClassRestricted   DataClassification = "RESTRICTED"
	ClassTopSecret    DataClassification = "TOP_SECRET"
)

// Rank orders classifications from PUBLIC (0) upward so policies can
// compare "CONFIDENTIAL or higher".
func (c DataClassification) Rank() int {
	switch c {
	case ClassPublic:
		return 0
	case ClassInternal:
		return 1
	case ClassConfidential:
		return 2
	case ClassRestricted:
		return 3
	case ClassTopSecret:
		return 4
	}
	return 1
}

type ComplianceFramework string

const (
	FrameworkSOX      ComplianceFramework = "SOX"
	FrameworkGDPR     ComplianceFramework = "GDPR"
	FrameworkHIPAA    ComplianceFramework = "HIPAA"
	FrameworkPCIDSS   ComplianceFramework = "PCI_DSS"
	FrameworkISO27001 ComplianceFramework = "ISO_27001"
	FrameworkBaselIII ComplianceFramework = "BASEL_III"
)

// RetentionHorizon returns the minimum retention duration mandated by the
// framework. SOX, GDPR, HIPAA and Basel III require seven years; PCI-DSS
// and ISO 27001 three. Unknown frameworks default to seven.
func RetentionHorizon(f ComplianceFramework) time.Duration {
	switch f {
	case FrameworkPCIDSS, FrameworkISO27001:
		return 3 * 365 * 24 * time.Hour
	default:
		return 7 * 365 * 24 * time.Hour
	}
}

// AuditRecord is append-only. Once written, no field except Archived may
// change; AuditHash makes tampering detectable.
type AuditRecord struct {
	ID             string              `gorm:"primaryKey;type:uuid" json:"id"`
	TenantID       string              `gorm:"type:uuid;not null;index:idx_audit_logs_tenant_ts" json:"tenant_id"`
	UserID         *string             `gorm:"type:uuid" json:"user_id,omitempty"`
	Operation      Operation           `gorm:"type:text;not null;index:idx_audit_logs_tenant_op" json:"operation"`
	ResourceType   string              `gorm:"type:text;not null;index:idx_audit_logs_resource" json:"resource_type"`
	ResourceID     string              `gorm:"type:text;index:idx_audit_logs_resource" json:"resource_id"`
	ResourceName   string              `gorm:"type:text" json:"resource_name"`
	OldImage       JSONB               `gorm:"type:jsonb" json:"old_image,omitempty"`
	NewImage       JSONB               `gorm:"type:jsonb" json:"new_image,omitempty"`
	ChangedFields  StringList          `gorm:"type:jsonb" json:"changed_fields,omitempty"`
	Framework      ComplianceFramework `gorm:"type:text;not null;default:'SOX'" json:"compliance_framework"`
	Classification DataClassification  `gorm:"type:text;not null;default:'INTERNAL'" json:"data_classification"`
	Sensitive      bool                `gorm:"not null;default:false" json:"sensitive"`
	IPAddress      string              `gorm:"type:text" json:"ip_address"`
	UserAgent      string              `gorm:"type:text" json:"user_agent"`
	RequestID      string              `gorm:"type:text;index" json:"request_id"`
	SessionID      string              `gorm:"type:text" json:"session_id"`
	Sequence       int64               `gorm:"not null;default:0" json:"sequence"`
	AuditHash      string              `gorm:"type:char(64);not null" json:"audit_hash"`
	ParentAuditID  *string             `gorm:"type:uuid" json:"parent_audit_id,omitempty"`
	Timestamp      time.Time           `gorm:"type:timestamp with time zone;not null;index:idx_audit_logs_tenant_ts" json:"timestamp"`
	RetentionUntil time.Time           `gorm:"type:timestamp with time zone;not null" json:"retention_until"`
	Archived       bool                `gorm:"not null;default:false" json:"archived"`
	CreatedAt      time.Time           `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
	Tenant         *Tenant             `gorm:"foreignKey:TenantID" json:"-"`
}

func (AuditRecord) TableName() string {
	return "audit_logs"
}

type QueryType string

const (
	QuerySelect    QueryType = "SELECT"
	QueryCount     QueryType = "COUNT"
	QueryAggregate QueryType = "AGGREGATE"
	QueryExport    QueryType = "EXPORT"
	QueryReport    QueryType = "REPORT"
)

// QueryAudit records opted-in read paths. The default read path is
// unlogged to bound storage.
type QueryAudit struct {
	ID             string             `gorm:"primaryKey;type:uuid" json:"id"`
	TenantID       string             `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID         *string            `gorm:"type:uuid" json:"user_id,omitempty"`
	QueryType      QueryType          `gorm:"type:text;not null" json:"query_type"`
	ModelName      string             `gorm:"type:text;not null" json:"model_name"`
	FiltersApplied JSONB              `gorm:"type:jsonb" json:"filters_applied,omitempty"`
	FieldsAccessed StringList         `gorm:"type:jsonb" json:"fields_accessed,omitempty"`
	RecordCount    int64              `gorm:"not null;default:0" json:"record_count"`
	Classification DataClassification `gorm:"type:text;not null;default:'INTERNAL'" json:"classification"`
	Sensitive      bool               `gorm:"not null;default:false" json:"sensitive"`
	RequestID      string             `gorm:"type:text" json:"request_id"`
	Timestamp      time.Time          `gorm:"type:timestamp with time zone;not null" json:"timestamp"`
}

func (QueryAudit) TableName() string {
	return "audit_queries"
}

type ExportType string

const (
	ExportCSV   ExportType = "CSV"
	ExportExcel ExportType = "EXCEL"
	ExportPDF   ExportType = "PDF"
	ExportJSON  ExportType = "JSON"
	ExportXML   ExportType = "XML"
)

// ExportAudit records every data export. The exported file's retention
// follows RetentionUntil; deleting the file is the storage layer's job.
type ExportAudit struct {
	ID             string             `gorm:"primaryKey;type:uuid" json:"id"`
	TenantID       string             `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID         *string            `gorm:"type:uuid" json:"user_id,omitempty"`
	ExportType     ExportType         `gorm:"type:text;not null" json:"export_type"`
	ModelName      string             `gorm:"type:text;not null" json:"model_name"`
	FiltersApplied JSONB              `gorm:"type:jsonb" json:"filters_applied,omitempty"`
	RecordCount    int64              `gorm:"not null;default:0" json:"record_count"`
	FilePath       string             `gorm:"type:text" json:"file_path"`
	FileSize       int64              `gorm:"not null;default:0" json:"file_size"`
	Classification DataClassification `gorm:"type:text;not null;default:'INTERNAL'" json:"classification"`
	RequestID      string             `gorm:"type:text" json:"request_id"`
	RetentionUntil time.Time          `gorm:"type:timestamp with time zone;not null" json:"retention_until"`
	Timestamp      time.Time          `gorm:"type:timestamp with time zone;not null" json:"timestamp"`
}

func (ExportAudit) TableName() string {
	return "audit_exports"
}

type ViolationKind string

const (
	ViolationUnauthorizedAccess  ViolationKind = "UNAUTHORIZED_ACCESS"
	ViolationDataBreach          ViolationKind = "DATA_BREACH"
	ViolationPolicy              ViolationKind = "POLICY_VIOLATION"
	ViolationComplianceBreach    ViolationKind = "COMPLIANCE_BREACH"
	ViolationSecurityIncident    ViolationKind = "SECURITY_INCIDENT"
	ViolationPrivilegeEscalation ViolationKind = "PRIVILEGE_ESCALATION"
	ViolationDataLeakage         ViolationKind = "DATA_LEAKAGE"
	ViolationUnauthorizedExport  ViolationKind = "UNAUTHORIZED_EXPORT"
)

type ViolationSeverity string

const (
	SeverityLow      ViolationSeverity = "LOW"
	SeverityMedium   ViolationSeverity = "MEDIUM"
	SeverityHigh     ViolationSeverity = "HIGH"
	SeverityCritical ViolationSeverity = "CRITICAL"
)

type ViolationStatus string

const (
	ViolationOpen          ViolationStatus = "OPEN"
	ViolationInvestigating ViolationStatus = "INVESTIGATING"
	ViolationResolved      ViolationStatus = "RESOLVED"
	ViolationClosed        ViolationStatus = "CLOSED"
)

// AuditViolation records a detected policy breach. ResolvedAt is set iff
// status is RESOLVED or CLOSED.
type AuditViolation struct {
	ID          string            `gorm:"primaryKey;type:uuid" json:"id"`
	TenantID    string            `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID      *string           `gorm:"type:uuid" json:"user_id,omitempty"`
	Kind        ViolationKind     `gorm:"type:text;not null" json:"kind"`
	Severity    ViolationSeverity `gorm:"type:text;not null" json:"severity"`
	Status      ViolationStatus   `gorm:"type:text;not null;default:'OPEN'" json:"status"`
	Description string            `gorm:"type:text" json:"description"`
	Details     JSONB             `gorm:"type:jsonb" json:"details,omitempty"`
	ResolvedBy  *string           `gorm:"type:uuid" json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time        `gorm:"type:timestamp with time zone" json:"resolved_at,omitempty"`
	Notes       string            `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time         `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (AuditViolation) TableName() string {
	return "audit_violations"
}

// ComplianceViolation is opened alongside HIGH and CRITICAL audit
// violations for framework-level reporting.
type ComplianceViolation struct {
	ID          string              `gorm:"primaryKey;type:uuid" json:"id"`
	TenantID    string              `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ViolationID string              `gorm:"type:uuid;not null" json:"violation_id"`
	Framework   ComplianceFramework `gorm:"type:text;not null" json:"framework"`
	Status      ViolationStatus     `gorm:"type:text;not null;default:'OPEN'" json:"status"`
	CreatedAt   time.Time           `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ComplianceViolation) TableName() string {
	return "compliance_violations"
}

// AuditFilter narrows audit record queries.
type AuditFilter struct {
	TenantID     string    `json:"tenant_id"`
	UserID       string    `json:"user_id"`
	Operation    string    `json:"operation"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	RequestID    string    `json:"request_id"`
	SessionID    string    `json:"session_id"`
	IPAddress    string    `json:"ip_address"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Archived     *bool     `json:"archived"`
	Page         int       `json:"page"`
	PageSize     int       `json:"page_size"`
	Limit        int       `json:"limit"`
	Offset       int       `json:"offset"`
}

// AuditStats aggregates audit activity for a tenant.
type AuditStats struct {
	TotalRecords   int64                        `json:"total_records"`
	OperationCount map[Operation]int64          `json:"operation_counts"`
	ResourceCount  map[string]int64             `json:"resource_counts"`
	FrameworkCount map[ComplianceFramework]int64 `json:"framework_counts"`
}
