package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgerstack/tenant-core/internal/api/dto"
	"github.com/ledgerstack/tenant-core/internal/domain"
)

//go:generate mockery --name TenantService --output ../mocks
type TenantService interface {
	Create(ctx context.Context, slug, name, plan string) (*domain.Tenant, error)
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
	List(ctx context.Context) ([]domain.Tenant, error)
	UpdateSettings(ctx context.Context, id string, settings map[string]interface{}) (*domain.Tenant, error)
	Deactivate(ctx context.Context, id string) error
	AddDomain(ctx context.Context, tenantID, host string, primary bool, status domain.DomainStatus) (*domain.TenantDomain, error)
}

// TenantHandler is the platform-admin surface. It lives under /admin,
// which tenant resolution skips, so every operation names its tenant
// explicitly.
type TenantHandler struct {
	*BaseHandler
	service TenantService
}

func NewTenantHandler(base *BaseHandler, service TenantService) *TenantHandler {
	return &TenantHandler{BaseHandler: base, service: service}
}

// CreateTenant godoc
// @Summary Create a new tenant
// @Tags tenants
// @Accept json
// @Produce json
// @Param body body dto.CreateTenantRequest true "Tenant object"
// @Success 201 {object} dto.TenantResponse
// @Failure 400 {object} dto.Error
// @Failure 409 {object} dto.Error
// @Router /admin/tenants [post]
func (h *TenantHandler) CreateTenant(c *gin.Context) {
	var req dto.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}

	tenant, err := h.service.Create(h.RequestCtx(c), req.Slug, req.Name, req.Plan)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromTenant(tenant))
}

// ListTenants godoc
// @Summary List all tenants
// @Tags tenants
// @Produce json
// @Success 200 {array} dto.TenantResponse
// @Router /admin/tenants [get]
func (h *TenantHandler) ListTenants(c *gin.Context) {
	tenants, err := h.service.List(h.RequestCtx(c))
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTenants(tenants))
}

// GetTenant godoc
// @Summary Get a tenant
// @Tags tenants
// @Produce json
// @Param id path string true "Tenant ID"
// @Success 200 {object} dto.TenantResponse
// @Failure 404 {object} dto.Error
// @Router /admin/tenants/{id} [get]
func (h *TenantHandler) GetTenant(c *gin.Context) {
	tenant, err := h.service.GetByID(h.RequestCtx(c), c.Param("id"))
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTenant(tenant))
}

// UpdateSettings godoc
// @Summary Replace a tenant's settings
// @Tags tenants
// @Accept json
// @Produce json
// @Param id path string true "Tenant ID"
// @Param body body dto.UpdateTenantSettingsRequest true "Settings document"
// @Success 200 {object} dto.TenantResponse
// @Failure 404 {object} dto.Error
// @Router /admin/tenants/{id}/settings [put]
func (h *TenantHandler) UpdateSettings(c *gin.Context) {
	var req dto.UpdateTenantSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}

	tenant, err := h.service.UpdateSettings(h.RequestCtx(c), c.Param("id"), req.Settings)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTenant(tenant))
}

// DeactivateTenant godoc
// @Summary Deactivate a tenant
// @Description Take the tenant out of service without deleting its data
// @Tags tenants
// @Param id path string true "Tenant ID"
// @Success 204
// @Failure 404 {object} dto.Error
// @Router /admin/tenants/{id} [delete]
func (h *TenantHandler) DeactivateTenant(c *gin.Context) {
	if err := h.service.Deactivate(h.RequestCtx(c), c.Param("id")); err != nil {
		h.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddDomain godoc
// @Summary Register a custom domain for a tenant
// @Tags tenants
// @Accept json
// @Produce json
// @Param id path string true "Tenant ID"
// @Param body body dto.AddDomainRequest true "Domain"
// @Success 201 {object} dto.DomainResponse
// @Failure 400 {object} dto.Error
// @Router /admin/tenants/{id}/domains [post]
func (h *TenantHandler) AddDomain(c *gin.Context) {
	var req dto.AddDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}

	d, err := h.service.AddDomain(h.RequestCtx(c), c.Param("id"), req.Domain, req.IsPrimary, domain.DomainPending)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromDomain(d))
}
