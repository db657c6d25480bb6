package dto

import (
	"encoding/json"

	"github.com/ledgerstack/tenant-core/internal/domain"
)

func FromTenant(t *domain.Tenant) TenantResponse {
	return TenantResponse{
		ID:               t.ID,
		Slug:             t.Slug,
		Name:             t.Name,
		IsActive:         t.IsActive,
		Plan:             t.Plan,
		MaxUsers:         t.MaxUsers,
		OnboardingStatus: string(t.OnboardingStatus),
		CountryCode:      t.CountryCode,
		BaseCurrency:     t.BaseCurrency,
		PrimaryDomain:    t.PrimaryDomain,
		SupportsTax:      t.SupportsTax,
		SupportsEInvoice: t.SupportsEInvoice,
		TrialExpiresAt:   t.TrialExpiresAt,
		CreatedAt:        t.CreatedAt,
	}
}

func FromTenants(tenants []domain.Tenant) []TenantResponse {
	responses := make([]TenantResponse, len(tenants))
	for i := range tenants {
		responses[i] = FromTenant(&tenants[i])
	}
	return responses
}

func FromUser(u *domain.User) UserResponse {
	resp := UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		Name:          u.Name,
		Role:          string(u.Role),
		EmailVerified: u.EmailVerified,
		IsActive:      u.IsActive,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
	if u.TenantID != nil {
		resp.TenantID = *u.TenantID
	}
	return resp
}

func FromUsers(users []domain.User) []UserResponse {
	responses := make([]UserResponse, len(users))
	for i := range users {
		responses[i] = FromUser(&users[i])
	}
	return responses
}

func FromAuditRecord(r *domain.AuditRecord) AuditRecordResponse {
	resp := AuditRecordResponse{
		ID:             r.ID,
		TenantID:       r.TenantID,
		Operation:      string(r.Operation),
		ResourceType:   r.ResourceType,
		ResourceID:     r.ResourceID,
		ResourceName:   r.ResourceName,
		OldImage:       json.RawMessage(r.OldImage),
		NewImage:       json.RawMessage(r.NewImage),
		ChangedFields:  []string(r.ChangedFields),
		Framework:      string(r.Framework),
		Classification: string(r.Classification),
		Sensitive:      r.Sensitive,
		IPAddress:      r.IPAddress,
		RequestID:      r.RequestID,
		SessionID:      r.SessionID,
		Sequence:       r.Sequence,
		AuditHash:      r.AuditHash,
		Timestamp:      r.Timestamp,
		RetentionUntil: r.RetentionUntil,
		Archived:       r.Archived,
	}
	if r.UserID != nil {
		resp.UserID = *r.UserID
	}
	return resp
}

func FromAuditRecords(records []domain.AuditRecord) []AuditRecordResponse {
	responses := make([]AuditRecordResponse, len(records))
	for i := range records {
		responses[i] = FromAuditRecord(&records[i])
	}
	return responses
}

func FromAuditStats(s *domain.AuditStats) AuditStatsResponse {
	resp := AuditStatsResponse{
		TotalRecords:   s.TotalRecords,
		OperationCount: make(map[string]int64, len(s.OperationCount)),
		ResourceCount:  s.ResourceCount,
		FrameworkCount: make(map[string]int64, len(s.FrameworkCount)),
	}
	for op, n := range s.OperationCount {
		resp.OperationCount[string(op)] = n
	}
	for f, n := range s.FrameworkCount {
		resp.FrameworkCount[string(f)] = n
	}
	return resp
}

func FromViolation(v *domain.AuditViolation) ViolationResponse {
	return ViolationResponse{
		ID:          v.ID,
		Kind:        string(v.Kind),
		Severity:    string(v.Severity),
		Status:      string(v.Status),
		Description: v.Description,
		Details:     json.RawMessage(v.Details),
		ResolvedAt:  v.ResolvedAt,
		Notes:       v.Notes,
		CreatedAt:   v.CreatedAt,
	}
}

func FromViolations(violations []domain.AuditViolation) []ViolationResponse {
	responses := make([]ViolationResponse, len(violations))
	for i := range violations {
		responses[i] = FromViolation(&violations[i])
	}
	return responses
}

func FromDomain(d *domain.TenantDomain) DomainResponse {
	return DomainResponse{
		ID:        d.ID,
		Domain:    d.Domain,
		IsPrimary: d.IsPrimary,
		Status:    string(d.Status),
	}
}
