package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/repository"
	"github.com/ledgerstack/tenant-core/internal/tenantctx"
	"github.com/ledgerstack/tenant-core/pkg/logger"
)

//go:generate mockery --name TokenIssuer --output ../mocks
type TokenIssuer interface {
	GenerateToken(user *domain.User, tenant *domain.Tenant) (string, error)
}

// RegisterInput is a corporate signup: a tenant, its admin user and its
// primary company are created together.
type RegisterInput struct {
	CompanyName  string
	Slug         string
	Email        string
	Username     string
	Name         string
	Password     string
	CountryCode  string
	IndustryCode string
	Timezone     string
	Plan         string
}

// LoginResult bundles the token with its subject.
type LoginResult struct {
	Token  string
	User   *domain.User
	Tenant *domain.Tenant
}

type AuthService struct {
	repo      repository.Repository
	tenantSvc *TenantService
	auditSvc  *AuditLogService
	tokens    TokenIssuer
	logger    *logger.Logger
}

func NewAuthService(repo repository.Repository, tenantSvc *TenantService, auditSvc *AuditLogService, tokens TokenIssuer, log *logger.Logger) *AuthService {
	return &AuthService{
		repo:      repo,
		tenantSvc: tenantSvc,
		auditSvc:  auditSvc,
		tokens:    tokens,
		logger:    log,
	}
}

// Register provisions the tenant, its first user (tenant_admin, email
// unverified) and the primary company in one pass. The new tenant starts
// onboarding at step one.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, *domain.Tenant, error) {
	if in.Email == "" || in.Password == "" || in.CompanyName == "" {
		return nil, nil, fmt.Errorf("%w: email, password and company name are required", ErrValidation)
	}
	if len(in.Password) < 8 {
		return nil, nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if _, err := s.repo.User().GetByEmail(ctx, in.Email); err == nil {
		return nil, nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	tenant, err := s.tenantSvc.Create(ctx, in.Slug, in.CompanyName, in.Plan)
	if err != nil {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	username := in.Username
	if username == "" {
		username = in.Email
	}
	user := &domain.User{
		TenantID:     &tenant.ID,
		Email:        in.Email,
		Username:     username,
		Name:         in.Name,
		PasswordHash: string(hash),
		Role:         domain.RoleTenantAdmin,
		IsActive:     true,
	}
	scoped := tenantctx.WithTenant(ctx, tenant.ID)
	if err := s.repo.User().Create(scoped, user); err != nil {
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	company := &domain.Company{
		TenantID:     tenant.ID,
		LegalName:    in.CompanyName,
		CountryCode:  in.CountryCode,
		IndustryCode: in.IndustryCode,
		Timezone:     in.Timezone,
		IsPrimary:    true,
		CreatedBy:    user.ID,
	}
	if err := s.repo.Reference().UpsertPrimaryCompany(scoped, company); err != nil {
		return nil, nil, fmt.Errorf("failed to create company: %w", err)
	}

	if in.CountryCode != "" || in.IndustryCode != "" {
		tenant.CountryCode = in.CountryCode
		tenant.IndustryCode = in.IndustryCode
		if err := s.repo.Tenant().Update(scoped, tenant); err != nil {
			return nil, nil, fmt.Errorf("failed to store tenant locale: %w", err)
		}
	}

	if _, err := s.repo.Onboarding().GetOrCreate(scoped, tenant.ID); err != nil {
		s.logger.Error("failed to initialize onboarding progress", err)
	}

	s.observeUser(scoped, domain.OpCreate, user, nil)
	return user, tenant, nil
}

// Login authenticates by email and returns a signed token. Unverified
// emails are rejected distinctly so the client can offer re-verification.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.User().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	var tenant *domain.Tenant
	var loginCtx = ctx
	if user.TenantID != nil {
		tenant, err = s.tenantSvc.GetByID(ctx, *user.TenantID)
		if err != nil {
			return nil, err
		}
		if !tenant.IsActive {
			return nil, ErrTenantInactive
		}
		loginCtx = tenantctx.WithTenant(ctx, tenant.ID)
	}

	token, err := s.tokens.GenerateToken(user, tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	now := time.Now().UTC()
	user.LastLoginAt = &now
	if err := s.repo.User().Update(loginCtx, user); err != nil {
		s.logger.Error("failed to record last login", err)
	}

	if user.TenantID != nil {
		s.auditSvc.Observe(loginCtx, Mutation{
			Operation:    domain.OpLogin,
			ResourceType: "user",
			ResourceID:   user.ID,
			ResourceName: user.Email,
		})
	}

	return &LoginResult{Token: token, User: user, Tenant: tenant}, nil
}

// VerifyEmail flips the verification flag. In production the token comes
// from the verification mail; here it is validated upstream.
func (s *AuthService) VerifyEmail(ctx context.Context, email string) error {
	user, err := s.repo.User().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.EmailVerified {
		return nil
	}
	before := *user
	user.EmailVerified = true

	updateCtx := ctx
	if user.TenantID != nil {
		updateCtx = tenantctx.WithTenant(ctx, *user.TenantID)
	}
	if err := s.repo.User().Update(updateCtx, user); err != nil {
		return err
	}
	s.observeUser(updateCtx, domain.OpUpdate, user, &before)
	return nil
}

// Me returns the scoped view of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// CreateUser adds a user to the scoped tenant, subject to its seat quota.
func (s *AuthService) CreateUser(ctx context.Context, email, username, name, password string, role domain.Role) (*domain.User, error) {
	tenantID, err := tenantctx.TenantID(ctx)
	if err != nil {
		return nil, err
	}
	if !domain.IsValidRole(string(role)) || role == domain.RolePlatformAdmin {
		return nil, fmt.Errorf("%w: invalid role %q", ErrValidation, role)
	}
	if _, err := s.repo.User().GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if username == "" {
		username = email
	}

	user := &domain.User{
		TenantID:     &tenantID,
		Email:        email,
		Username:     username,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedBy:    tenantctx.UserID(ctx),
	}
	if err := s.repo.User().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserQuotaExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.observeUser(ctx, domain.OpCreate, user, nil)
	return user, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.User().ListByTenant(ctx)
}

func (s *AuthService) observeUser(ctx context.Context, op domain.Operation, user *domain.User, before *domain.User) {
	if s.auditSvc == nil {
		return
	}
	var oldImage map[string]interface{}
	if before != nil {
		oldImage = userImage(before)
	}
	s.auditSvc.Observe(ctx, Mutation{
		Operation:    op,
		ResourceType: "user",
		ResourceID:   user.ID,
		ResourceName: user.Email,
		OldImage:     oldImage,
		NewImage:     userImage(user),
	})
}

func userImage(u *domain.User) map[string]interface{} {
	return map[string]interface{}{
		"email":          u.Email,
		"username":       u.Username,
		"name":           u.Name,
		"role":           string(u.Role),
		"is_active":      u.IsActive,
		"email_verified": u.EmailVerified,
	}
}
