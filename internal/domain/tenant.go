package domain

import (
	"time"
)

type OnboardingStatus string

const (
	OnboardingIncomplete OnboardingStatus = "INCOMPLETE"
	OnboardingInProgress OnboardingStatus = "IN_PROGRESS"
	OnboardingCompleted  OnboardingStatus = "COMPLETED"
)

type DomainStatus string

const (
	DomainPending  DomainStatus = "pending"
	DomainVerified DomainStatus = "verified"
	DomainActive   DomainStatus = "active"
)

// Tenant is the isolation root. Every tenant-owned row resolves to exactly
// one tenant through the path table in tenantpath.go.
type Tenant struct {
	ID                  string           `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Slug                string           `gorm:"type:text;not null;uniqueIndex" json:"slug"`
	Name                string           `gorm:"type:text;not null" json:"name"`
	IsActive            bool             `gorm:"not null;default:true" json:"is_active"`
	Plan                string           `gorm:"type:text;not null;default:'trial'" json:"plan"`
	BillingCycle        string           `gorm:"type:text" json:"billing_cycle"`
	SubscriptionID      string           `gorm:"type:text" json:"subscription_id,omitempty"`
	TrialExpiresAt      *time.Time       `gorm:"type:timestamp with time zone" json:"trial_expires_at,omitempty"`
	MaxUsers            int              `gorm:"not null;default:5" json:"max_users"`
	MaxStorageGB        int              `gorm:"not null;default:10" json:"max_storage_gb"`
	Features            JSONB            `gorm:"type:jsonb" json:"features,omitempty"`
	Settings            JSONB            `gorm:"type:jsonb" json:"settings,omitempty"`
	OnboardingStatus    OnboardingStatus `gorm:"type:text;not null;default:'INCOMPLETE'" json:"onboarding_status"`
	OnboardedAt         *time.Time       `gorm:"type:timestamp with time zone" json:"onboarded_at,omitempty"`
	CountryCode         string           `gorm:"type:text" json:"country_code"`
	IndustryCode        string           `gorm:"type:text" json:"industry_code"`
	BaseCurrency        string           `gorm:"type:text" json:"base_currency"`
	Timezone            string           `gorm:"type:text" json:"timezone"`
	PrimaryDomain       string           `gorm:"type:text" json:"primary_domain"`
	DomainStatus        DomainStatus     `gorm:"type:text;default:'pending'" json:"domain_status"`
	SupportsTax         bool             `gorm:"not null;default:false" json:"supports_tax"`
	SupportsEInvoice    bool             `gorm:"not null;default:false" json:"supports_einvoice"`
	SupportsInventory   bool             `gorm:"not null;default:false" json:"supports_inventory"`
	SupportsMultiBranch bool             `gorm:"not null;default:false" json:"supports_multi_branch"`
	CreatedAt           time.Time        `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time        `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Tenant) TableName() string {
	return "tenants"
}

// CanAccessDashboard gates business endpoints: onboarding must be finished
// and the tenant must still be active.
func (t *Tenant) CanAccessDashboard() bool {
	return t.OnboardingStatus == OnboardingCompleted && t.IsActive
}

// SecurityHeaders returns the CSP value and HSTS flag the tenant opted into.
func (t *Tenant) SecurityHeaders() (csp string, hsts bool) {
	settings := t.Settings.AsMap()
	if v, ok := settings["content_security_policy"].(string); ok {
		csp = v
	}
	if v, ok := settings["enforce_hsts"].(bool); ok {
		hsts = v
	}
	return csp, hsts
}

// TenantDomain maps a hostname to a tenant. At most one domain per tenant
// is marked primary.
type TenantDomain struct {
	ID        string       `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TenantID  string       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Domain    string       `gorm:"type:text;not null;uniqueIndex" json:"domain"`
	IsPrimary bool         `gorm:"not null;default:false" json:"is_primary"`
	Status    DomainStatus `gorm:"type:text;not null;default:'pending'" json:"status"`
	CreatedAt time.Time    `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"updated_at"`
	Tenant    *Tenant      `gorm:"foreignKey:TenantID" json:"-"`
}

func (TenantDomain) TableName() string {
	return "tenant_domains"
}

// PlanQuota holds per-plan limits applied at signup. Operators can raise
// them per tenant afterwards.
type PlanQuota struct {
	MaxUsers     int
	MaxStorageGB int
	RateLimit    int
}

var PlanQuotas = map[string]PlanQuota{
	"trial":        {MaxUsers: 3, MaxStorageGB: 1, RateLimit: 60},
	"basic":        {MaxUsers: 10, MaxStorageGB: 10, RateLimit: 300},
	"professional": {MaxUsers: 50, MaxStorageGB: 100, RateLimit: 1000},
	"enterprise":   {MaxUsers: 500, MaxStorageGB: 1000, RateLimit: 5000},
}

func IsValidPlan(plan string) bool {
	_, ok := PlanQuotas[plan]
	return ok
}
