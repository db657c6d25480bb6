package dto

import (
	"encoding/json"
	"time"
)

// TenantResponse is the public view of a tenant.
type TenantResponse struct {
	ID               string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Slug             string     `json:"slug" example:"acme"`
	Name             string     `json:"name" example:"Acme Sdn Bhd"`
	IsActive         bool       `json:"is_active" example:"true"`
	Plan             string     `json:"plan" example:"professional"`
	MaxUsers         int        `json:"max_users" example:"50"`
	OnboardingStatus string     `json:"onboarding_status" example:"COMPLETED"`
	CountryCode      string     `json:"country_code,omitempty" example:"MY"`
	BaseCurrency     string     `json:"base_currency,omitempty" example:"MYR"`
	PrimaryDomain    string     `json:"primary_domain,omitempty" example:"books.acme.example"`
	SupportsTax      bool       `json:"supports_tax" example:"true"`
	SupportsEInvoice bool       `json:"supports_einvoice" example:"true"`
	TrialExpiresAt   *time.Time `json:"trial_expires_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at" example:"2025-07-17T21:20:48Z"`
}

type UserResponse struct {
	ID            string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TenantID      string     `json:"tenant_id,omitempty" example:"550e8400-e29b-41d4-a716-446655440000"`
	Email         string     `json:"email" example:"admin@acme.example"`
	Username      string     `json:"username" example:"acme-admin"`
	Name          string     `json:"name" example:"Acme Admin"`
	Role          string     `json:"role" example:"tenant_admin"`
	EmailVerified bool       `json:"email_verified" example:"true"`
	IsActive      bool       `json:"is_active" example:"true"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at" example:"2025-07-17T21:20:48Z"`
}

type RegisterResponse struct {
	User   UserResponse   `json:"user"`
	Tenant TenantResponse `json:"tenant"`
}

type LoginResponse struct {
	Token  string          `json:"token"`
	User   UserResponse    `json:"user"`
	Tenant *TenantResponse `json:"tenant,omitempty"`
}

// AuditRecordResponse is one audit entry. Images are already masked.
type AuditRecordResponse struct {
	ID             string          `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TenantID       string          `json:"tenant_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID         string          `json:"user_id,omitempty" example:"123456"`
	Operation      string          `json:"operation" example:"UPDATE"`
	ResourceType   string          `json:"resource_type" example:"invoice"`
	ResourceID     string          `json:"resource_id" example:"inv_123"`
	ResourceName   string          `json:"resource_name,omitempty" example:"INV-2025-000123"`
	OldImage       json.RawMessage `json:"old_image,omitempty" swaggertype:"string"`
	NewImage       json.RawMessage `json:"new_image,omitempty" swaggertype:"string"`
	ChangedFields  []string        `json:"changed_fields,omitempty"`
	Framework      string          `json:"compliance_framework" example:"SOX"`
	Classification string          `json:"data_classification" example:"CONFIDENTIAL"`
	Sensitive      bool            `json:"sensitive" example:"false"`
	IPAddress      string          `json:"ip_address,omitempty" example:"192.168.1.1"`
	RequestID      string          `json:"request_id,omitempty"`
	SessionID      string          `json:"session_id,omitempty"`
	Sequence       int64           `json:"sequence" example:"3"`
	AuditHash      string          `json:"audit_hash"`
	Timestamp      time.Time       `json:"timestamp" example:"2025-07-17T21:20:48Z"`
	RetentionUntil time.Time       `json:"retention_until"`
	Archived       bool            `json:"archived" example:"false"`
}

type AuditStatsResponse struct {
	TotalRecords   int64            `json:"total_records" example:"100"`
	OperationCount map[string]int64 `json:"operation_counts" example:"CREATE:50,UPDATE:30,DELETE:20"`
	ResourceCount  map[string]int64 `json:"resource_counts" example:"invoice:60,user:40"`
	FrameworkCount map[string]int64 `json:"framework_counts" example:"SOX:80,GDPR:20"`
}

type ViolationResponse struct {
	ID          string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Kind        string     `json:"kind" example:"UNAUTHORIZED_ACCESS"`
	Severity    string     `json:"severity" example:"HIGH"`
	Status      string     `json:"status" example:"OPEN"`
	Description string     `json:"description"`
	Details     json.RawMessage `json:"details,omitempty" swaggertype:"string"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type VerifyRecordResponse struct {
	ID    string `json:"id"`
	Valid bool   `json:"valid" example:"true"`
}

type DomainResponse struct {
	ID        string `json:"id"`
	Domain    string `json:"domain" example:"books.acme.example"`
	IsPrimary bool   `json:"is_primary"`
	Status    string `json:"status" example:"pending"`
}

// OnboardingStepResponse acknowledges a completed wizard step.
type OnboardingStepResponse struct {
	Success     bool `json:"success" example:"true"`
	CurrentStep int  `json:"current_step" example:"2"`
}

// PresetOutcome is one engine step in the provisioning envelope.
type PresetOutcome struct {
	Success     bool   `json:"success" example:"true"`
	RecordCount int    `json:"record_count" example:"45"`
	Name        string `json:"name,omitempty" example:"MYR"`
	Error       string `json:"error,omitempty"`
}

// PresetStepResponse is the step-4 envelope: a flat ok-map per preset
// kind plus the detailed per-step outcomes.
type PresetStepResponse struct {
	Success           bool                     `json:"success" example:"true"`
	Presets           map[string]bool          `json:"presets"`
	DetailedResults   map[string]PresetOutcome `json:"detailed_results"`
	TotalPresets      int                      `json:"total_presets" example:"8"`
	SuccessfulPresets int                      `json:"successful_presets" example:"8"`
	CurrentStep       int                      `json:"current_step" example:"5"`
}

// ConfirmationResponse is the step-5 envelope.
type ConfirmationResponse struct {
	Success          bool       `json:"success" example:"true"`
	OnboardingStatus string     `json:"onboarding_status" example:"COMPLETED"`
	OnboardedAt      *time.Time `json:"onboarded_at,omitempty"`
}
