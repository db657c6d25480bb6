package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgerstack/tenant-core/internal/api/dto"
	"github.com/ledgerstack/tenant-core/internal/service"
)

//go:generate mockery --name OnboardingService --output ../mocks
type OnboardingService interface {
	Status(ctx context.Context) (*service.OnboardingStatusResult, error)
	Progress(ctx context.Context) (*service.OnboardingProgressResult, error)
	CompleteSubscription(ctx context.Context, in service.SubscriptionStepInput) (*service.OnboardingStatusResult, error)
	CompleteDomain(ctx context.Context, in service.DomainStepInput) (*service.OnboardingStatusResult, error)
	CompleteCompany(ctx context.Context, in service.CompanyStepInput) (*service.OnboardingStatusResult, error)
	RunPresets(ctx context.Context) (*service.OnboardingStatusResult, service.InstallReport, error)
	CompleteConfirmation(ctx context.Context) (*service.OnboardingStatusResult, error)
}

type OnboardingHandler struct {
	*BaseHandler
	service OnboardingService
}

func NewOnboardingHandler(base *BaseHandler, service OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{BaseHandler: base, service: service}
}

// Status godoc
// @Summary Wizard status
// @Description Current step, completed steps and dashboard access
// @Tags onboarding
// @Produce json
// @Success 200 {object} service.OnboardingStatusResult
// @Failure 403 {object} dto.Error
// @Router /onboarding/status [get]
func (h *OnboardingHandler) Status(c *gin.Context) {
	status, err := h.service.Status(h.RequestCtx(c))
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Progress godoc
// @Summary Wizard progress detail
// @Description Per-step states with live preset import counts
// @Tags onboarding
// @Produce json
// @Success 200 {object} service.OnboardingProgressResult
// @Failure 403 {object} dto.Error
// @Router /onboarding/progress [get]
func (h *OnboardingHandler) Progress(c *gin.Context) {
	progress, err := h.service.Progress(h.RequestCtx(c))
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// Subscription godoc
// @Summary Complete step 1: subscription
// @Tags onboarding
// @Accept json
// @Produce json
// @Param body body service.SubscriptionStepInput true "Plan selection"
// @Success 200 {object} dto.OnboardingStepResponse
// @Failure 400 {object} dto.Error
// @Router /onboarding/step/1 [post]
func (h *OnboardingHandler) Subscription(c *gin.Context) {
	var in service.SubscriptionStepInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}
	h.respondStep(c, func(ctx context.Context) (*service.OnboardingStatusResult, error) {
		return h.service.CompleteSubscription(ctx, in)
	})
}

// Domain godoc
// @Summary Complete step 2: domain
// @Tags onboarding
// @Accept json
// @Produce json
// @Param body body service.DomainStepInput true "Domain choice"
// @Success 200 {object} dto.OnboardingStepResponse
// @Failure 400 {object} dto.Error
// @Router /onboarding/step/2 [post]
func (h *OnboardingHandler) Domain(c *gin.Context) {
	var in service.DomainStepInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}
	h.respondStep(c, func(ctx context.Context) (*service.OnboardingStatusResult, error) {
		return h.service.CompleteDomain(ctx, in)
	})
}

// Company godoc
// @Summary Complete step 3: company profile
// @Tags onboarding
// @Accept json
// @Produce json
// @Param body body service.CompanyStepInput true "Legal profile"
// @Success 200 {object} dto.OnboardingStepResponse
// @Failure 400 {object} dto.Error
// @Router /onboarding/step/3 [post]
func (h *OnboardingHandler) Company(c *gin.Context) {
	var in service.CompanyStepInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error{Error: err.Error()})
		return
	}
	h.respondStep(c, func(ctx context.Context) (*service.OnboardingStatusResult, error) {
		return h.service.CompleteCompany(ctx, in)
	})
}

// Presets godoc
// @Summary Run step 4: preset provisioning
// @Description Installs reference data for the company's country. Safe to
// retry: already-installed bundles are skipped.
// @Tags onboarding
// @Produce json
// @Success 200 {object} dto.PresetStepResponse
// @Failure 400 {object} dto.Error
// @Router /onboarding/step/4 [post]
func (h *OnboardingHandler) Presets(c *gin.Context) {
	status, report, err := h.service.RunPresets(h.RequestCtx(c))
	if err != nil {
		h.RespondError(c, err)
		return
	}

	resp := dto.PresetStepResponse{
		Success:         report.Succeeded(),
		Presets:         make(map[string]bool, len(report)),
		DetailedResults: make(map[string]dto.PresetOutcome, len(report)),
		TotalPresets:    len(report),
		CurrentStep:     status.CurrentStep,
	}
	for kind, res := range report {
		resp.Presets[string(kind)] = res.Success
		resp.DetailedResults[string(kind)] = dto.PresetOutcome{
			Success:     res.Success,
			RecordCount: res.RecordCount,
			Name:        res.Name,
			Error:       res.Error,
		}
		if res.Success {
			resp.SuccessfulPresets++
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Confirmation godoc
// @Summary Complete step 5: confirmation
// @Description Finishes onboarding and opens the dashboard
// @Tags onboarding
// @Produce json
// @Success 200 {object} dto.ConfirmationResponse
// @Failure 400 {object} dto.Error
// @Router /onboarding/step/5 [post]
func (h *OnboardingHandler) Confirmation(c *gin.Context) {
	status, err := h.service.CompleteConfirmation(h.RequestCtx(c))
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ConfirmationResponse{
		Success:          true,
		OnboardingStatus: string(status.OnboardingStatus),
		OnboardedAt:      status.OnboardedAt,
	})
}

func (h *OnboardingHandler) respondStep(c *gin.Context, step func(context.Context) (*service.OnboardingStatusResult, error)) {
	status, err := step(h.RequestCtx(c))
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OnboardingStepResponse{
		Success:     true,
		CurrentStep: status.CurrentStep,
	})
}
