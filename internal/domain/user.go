package domain

import (
	"time"
)

// User belongs to at most one tenant. Platform admins belong to none and
// may cross tenant boundaries.
type User struct {
	ID            string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TenantID      *string    `gorm:"type:uuid;uniqueIndex:idx_users_tenant_username" json:"tenant_id,omitempty"`
	Email         string     `gorm:"type:text;not null;uniqueIndex" json:"email"`
	Username      string     `gorm:"type:text;not null;uniqueIndex:idx_users_tenant_username" json:"username"`
	Name          string     `gorm:"type:text;not null" json:"name"`
	PasswordHash  string     `gorm:"type:text;not null" json:"-"`
	Role          Role       `gorm:"type:text;not null;default:'staff'" json:"role"`
	Permissions   StringList `gorm:"type:jsonb" json:"permissions,omitempty"`
	EmailVerified bool       `gorm:"not null;default:false" json:"email_verified"`
	IsActive      bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt   *time.Time `gorm:"type:timestamp with time zone" json:"last_login_at,omitempty"`
	CreatedBy     string     `gorm:"type:uuid" json:"created_by,omitempty"`
	UpdatedBy     string     `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt     time.Time  `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"type:timestamp with time zone;default:CURRENT_TIMESTAMP" json:"updated_at"`
	Tenant        *Tenant    `gorm:"foreignKey:TenantID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// BelongsTo reports whether the user is owned by the given tenant.
func (u *User) BelongsTo(tenantID string) bool {
	return u.TenantID != nil && *u.TenantID == tenantID
}

func (u *User) IsPlatformAdmin() bool {
	return u.Role == RolePlatformAdmin
}
