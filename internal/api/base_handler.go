package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgerstack/tenant-core/internal/api/dto"
	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/repository"
	"github.com/ledgerstack/tenant-core/internal/service"
	"github.com/ledgerstack/tenant-core/internal/tenantctx"
	"github.com/ledgerstack/tenant-core/pkg/logger"
)

// ViolationRecorder records tenancy breaches detected while serving a
// request. Satisfied by service.AuditLogService.
type ViolationRecorder interface {
	RecordViolation(ctx context.Context, kind domain.ViolationKind, severity domain.ViolationSeverity, description string, details map[string]interface{}) error
}

type BaseHandler struct {
	violations ViolationRecorder
	logger     *logger.Logger
}

func NewBaseHandler(violations ViolationRecorder, log *logger.Logger) *BaseHandler {
	return &BaseHandler{violations: violations, logger: log}
}

// RequestCtx returns the request context. The tenant scope was installed
// there by the middleware chain, so services see it unchanged.
func (h *BaseHandler) RequestCtx(ginCtx *gin.Context) context.Context {
	return ginCtx.Request.Context()
}

// RespondError maps service sentinels onto the HTTP taxonomy.
// Cross-tenant sentinels also record an UNAUTHORIZED_ACCESS violation
// under the requesting tenant before the response leaves: a rejected
// write answers 403, while a read that missed only because the row
// belongs to another tenant answers 404 so the body is
// indistinguishable from plain non-existence.
func (h *BaseHandler) RespondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrCrossTenantWrite):
		h.recordBreach(c, "cross-tenant write rejected")
		c.JSON(http.StatusForbidden, dto.Error{Error: "permission denied"})
	case errors.Is(err, repository.ErrCrossTenantRead):
		h.recordBreach(c, "cross-tenant read attempt")
		c.JSON(http.StatusNotFound, dto.Error{Error: "resource not found"})
	case errors.Is(err, service.ErrStepOrder):
		c.JSON(http.StatusBadRequest, dto.Error{Error: "All previous steps must be completed first"})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, dto.Error{Error: err.Error()})
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrTenantInactive):
		c.JSON(http.StatusForbidden, dto.Error{Error: err.Error()})
	case errors.Is(err, service.ErrTenantNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.Error{Error: err.Error()})
	case errors.Is(err, service.ErrTenantExists),
		errors.Is(err, service.ErrEmailAlreadyExists):
		c.JSON(http.StatusConflict, dto.Error{Error: err.Error()})
	case errors.Is(err, repository.ErrUserQuotaExceeded):
		c.JSON(http.StatusForbidden, dto.Error{Error: "User limit reached for the current plan"})
	case errors.Is(err, tenantctx.ErrNoTenantScope),
		errors.Is(err, repository.ErrNoTenantScope):
		c.JSON(http.StatusForbidden, dto.Error{Error: "Invalid tenant access"})
	default:
		c.JSON(http.StatusInternalServerError, dto.Error{Error: err.Error()})
	}
}

func (h *BaseHandler) recordBreach(c *gin.Context, description string) {
	if h.violations == nil {
		return
	}
	err := h.violations.RecordViolation(c.Request.Context(),
		domain.ViolationUnauthorizedAccess,
		domain.SeverityHigh,
		description,
		map[string]interface{}{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	if err != nil && h.logger != nil {
		h.logger.Error("failed to record tenancy breach violation", err)
	}
}
