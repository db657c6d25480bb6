package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgerstack/tenant-core/internal/api/dto"
	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/middleware"
	"github.com/ledgerstack/tenant-core/internal/service"
)

//go:generate mockery --name AuthService --output ../mocks
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*domain.User, *domain.Tenant, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	VerifyEmail(ctx context.Context, email string) error
	Me(ctx context.Context, userID string) (*domain.User, error)
	CreateUser(ctx context.Context, email, username, name, password string, role domain.Role) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

type AuthHandler struct {
	*BaseHandler
	service AuthService
}

func NewAuthHandler(base *BaseHandler, service AuthService) *AuthHandler {
	return &AuthHandler{BaseHandler: base, service: service}
}

// Register godoc
// @Summary Corporate signup
// @Description Create a tenant, its admin user and primary company in one step
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.RegisterRequest true "Signup details"
// @Success 201 {object} dto.RegisterResponse
// @Failure 400 {object} dto.Error
// @Failure 409 {object} dto.Error
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}

	user, tenant, err := h.service.Register(h.RequestCtx(c), service.RegisterInput{
		CompanyName:  req.CompanyName,
		Slug:         req.Slug,
		Email:        req.Email,
		Username:     req.Username,
		Name:         req.Name,
		Password:     req.Password,
		CountryCode:  req.CountryCode,
		IndustryCode: req.IndustryCode,
		Timezone:     req.Timezone,
		Plan:         req.Plan,
	})
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.RegisterResponse{
		User:   dto.FromUser(user),
		Tenant: dto.FromTenant(tenant),
	})
}

// Login godoc
// @Summary Authenticate
// @Description Exchange credentials for a signed token
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} dto.EmailVerificationError
// @Failure 401 {object} dto.Error
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}

	result, err := h.service.Login(h.RequestCtx(c), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailNotVerified) {
			c.JSON(http.StatusBadRequest, dto.EmailVerificationError{
				Error:                     "Email address is not verified",
				EmailVerificationRequired: true,
				Email:                     req.Email,
			})
			return
		}
		h.RespondError(c, err)
		return
	}

	resp := dto.LoginResponse{
		Token: result.Token,
		User:  dto.FromUser(result.User),
	}
	if result.Tenant != nil {
		t := dto.FromTenant(result.Tenant)
		resp.Tenant = &t
	}
	c.JSON(http.StatusOK, resp)
}

// VerifyEmail godoc
// @Summary Verify email address
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.VerifyEmailRequest true "Email to verify"
// @Success 200
// @Failure 404 {object} dto.Error
// @Router /auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req dto.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}

	if err := h.service.VerifyEmail(h.RequestCtx(c), req.Email); err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified"})
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} dto.Error
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, dto.Error{Error: "No authentication found"})
		return
	}

	user, err := h.service.Me(h.RequestCtx(c), claims.Subject)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user))
}

// CreateUser godoc
// @Summary Add a user to the tenant
// @Description Create a user, subject to the plan's seat quota
// @Tags users
// @Accept json
// @Produce json
// @Param body body dto.CreateUserRequest true "User details"
// @Success 201 {object} dto.UserResponse
// @Failure 400 {object} dto.Error
// @Failure 403 {object} dto.Error
// @Router /users [post]
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}

	user, err := h.service.CreateUser(h.RequestCtx(c), req.Email, req.Username, req.Name, req.Password, domain.Role(req.Role))
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromUser(user))
}

// ListUsers godoc
// @Summary List tenant users
// @Tags users
// @Produce json
// @Success 200 {array} dto.UserResponse
// @Router /users [get]
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(h.RequestCtx(c))
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUsers(users))
}
