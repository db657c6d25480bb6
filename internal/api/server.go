package api

import (
	"github.com/gin-gonic/gin"

	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/middleware"
	"github.com/ledgerstack/tenant-core/internal/service"
	"github.com/ledgerstack/tenant-core/internal/service/pubsub"
	"github.com/ledgerstack/tenant-core/pkg/logger"
)

const maxRequestBodyBytes = 10 * 1024 * 1024

type Server struct {
	auth       *AuthHandler
	tenant     *TenantHandler
	onboarding *OnboardingHandler
	auditLog   *AuditLogHandler
	websocket  *WebSocketHandler
	authMW     *middleware.AuthMiddleware
	tenantMW   *middleware.TenantMiddleware
	rateLimit  *middleware.RateLimitMiddleware
	validation *middleware.ValidationMiddleware
	globalRate int
}

func NewServer(
	authService *service.AuthService,
	tenantService *service.TenantService,
	onboardingService *service.OnboardingService,
	auditLogService *service.AuditLogService,
	authMW *middleware.AuthMiddleware,
	tenantMW *middleware.TenantMiddleware,
	rateLimit *middleware.RateLimitMiddleware,
	validation *middleware.ValidationMiddleware,
	log *logger.Logger,
	ps *pubsub.RedisPubSub,
	globalRateLimit int,
) *Server {
	ws := NewWebSocketHandler(log, ps)
	auditLogService.SetBroadcaster(ws)
	base := NewBaseHandler(auditLogService, log)
	return &Server{
		auth:       NewAuthHandler(base, authService),
		tenant:     NewTenantHandler(base, tenantService),
		onboarding: NewOnboardingHandler(base, onboardingService),
		auditLog:   NewAuditLogHandler(base, auditLogService),
		websocket:  ws,
		authMW:     authMW,
		tenantMW:   tenantMW,
		rateLimit:  rateLimit,
		validation: validation,
		globalRate: globalRateLimit,
	}
}

// SetupRoutes wires the router. Tenant resolution runs on every request;
// the route groups decide how strict to be about the result.
func (s *Server) SetupRoutes(router *gin.Engine) {
	router.Use(s.validation.BlockSuspiciousPatterns())
	router.Use(s.validation.ValidateRequestSize(maxRequestBodyBytes))
	router.Use(s.validation.ValidateContentType("application/json", "text/plain"))
	router.Use(s.rateLimit.GlobalRateLimit(s.globalRate))
	router.Use(s.tenantMW.Resolve())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	auth := router.Group("/auth")
	{
		auth.POST("/register", s.auth.Register)
		auth.POST("/login", s.auth.Login)
		auth.POST("/verify-email", s.auth.VerifyEmail)
		auth.GET("/me", s.authMW.JWTAuth(), s.tenantMW.BindUser(), s.auth.Me)
	}

	// Platform administration. /admin skips tenant resolution, so every
	// operation here names its tenant explicitly.
	admin := router.Group("/admin",
		s.authMW.JWTAuth(),
		s.authMW.RequireRole(domain.RolePlatformAdmin),
	)
	{
		admin.POST("/tenants", s.tenant.CreateTenant)
		admin.GET("/tenants", s.tenant.ListTenants)
		admin.GET("/tenants/:id", s.tenant.GetTenant)
		admin.DELETE("/tenants/:id", s.tenant.DeactivateTenant)
		admin.PUT("/tenants/:id/settings", s.tenant.UpdateSettings)
		admin.POST("/tenants/:id/domains", s.tenant.AddDomain)
	}

	api := router.Group("/api/v1",
		s.authMW.JWTAuth(),
		s.tenantMW.BindUser(),
		s.tenantMW.RequireTenant(),
		s.rateLimit.TenantRateLimit(),
	)
	{
		onboarding := api.Group("/onboarding", s.authMW.RequireRole(domain.RoleTenantAdmin))
		{
			onboarding.GET("/status", s.onboarding.Status)
			onboarding.GET("/progress", s.onboarding.Progress)
			onboarding.POST("/step/1", s.onboarding.Subscription)
			onboarding.POST("/step/2", s.onboarding.Domain)
			onboarding.POST("/step/3", s.onboarding.Company)
			onboarding.POST("/step/4", s.onboarding.Presets)
			onboarding.POST("/step/5", s.onboarding.Confirmation)
		}

		users := api.Group("/users", s.authMW.RequireRole(domain.RoleTenantAdmin, domain.RoleFirmAdmin))
		{
			users.POST("", s.auth.CreateUser)
			users.GET("", s.auth.ListUsers)
		}

		audit := api.Group("/audit")
		{
			audit.GET("/logs", s.auditLog.ListLogs)
			audit.GET("/logs/export", s.auditLog.ExportLogs)
			audit.GET("/logs/:id", s.auditLog.GetLog)
			audit.GET("/logs/:id/verify", s.auditLog.VerifyLog)
			audit.GET("/stats", s.auditLog.GetStats)
			audit.GET("/stream", s.websocket.HandleWebSocket)

			privileged := audit.Group("", s.authMW.RequireRole(domain.RoleTenantAdmin, domain.RoleCFO))
			{
				privileged.GET("/violations", s.auditLog.ListViolations)
				privileged.PUT("/violations/:id", s.auditLog.ResolveViolation)
				privileged.POST("/archive", s.auditLog.ScheduleArchive)
			}
		}
	}
}

// StartWebSocketHub starts the broadcast loop.
func (s *Server) StartWebSocketHub() {
	go s.websocket.Start()
}

// StopWebSocketHub stops the broadcast loop and the pub/sub client.
func (s *Server) StopWebSocketHub() {
	s.websocket.Stop()
}
