package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ledgerstack/tenant-core/internal/api"
	"github.com/ledgerstack/tenant-core/internal/config"
	"github.com/ledgerstack/tenant-core/internal/middleware"
	"github.com/ledgerstack/tenant-core/internal/preset"
	"github.com/ledgerstack/tenant-core/internal/repository/composite"
	"github.com/ledgerstack/tenant-core/internal/resolver"
	"github.com/ledgerstack/tenant-core/internal/service"
	"github.com/ledgerstack/tenant-core/internal/service/pubsub"
	"github.com/ledgerstack/tenant-core/internal/service/queue"
	"github.com/ledgerstack/tenant-core/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	// Initialize logger
	appLogger := logger.NewLogger(os.Getenv("APP_ENV"))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		appLogger.Fatal("Failed to load configuration", err)
	}

	// Initialize PostgreSQL with writer/reader connections
	dbConnections, err := config.NewDatabaseConnections()
	if err != nil {
		appLogger.Fatal("Failed to connect to PostgreSQL", err)
	}
	defer dbConnections.Close()

	appLogger.Info("Database connections established (writer + reader)")

	// Run schema migrations before anything touches the tables
	if err := config.RunMigrations(cfg.MigrationsDir); err != nil {
		appLogger.Fatal("Failed to run migrations", err)
	}

	// Initialize OpenSearch
	osConfig := config.DefaultOpenSearchConfig()
	osClient, err := osConfig.GetClient()
	if err != nil {
		appLogger.Fatal("Failed to connect to OpenSearch", err)
	}

	appLogger.Info("OpenSearch connection established")

	// Initialize Redis
	redisConfig := config.DefaultRedisConfig()
	redisClient, err := redisConfig.GetClient()
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()

	appLogger.Info("Redis connection established")

	// Initialize Redis pub/sub for audit streaming
	redisPubSub := pubsub.NewRedisPubSub(redisClient, appLogger)

	// Initialize SQS
	sqsConfig := config.DefaultSQSConfig()
	sqsClient, err := sqsConfig.GetClient()
	if err != nil {
		appLogger.Fatal("Failed to connect to SQS", err)
	}
	sqsService := queue.NewSQSService(sqsClient, sqsConfig)

	appLogger.Info("SQS connection established")

	// Initialize repository
	repo := composite.NewCompositeRepository(dbConnections, osClient, osConfig, cfg.AllowTenantBypass)

	// Initialize tenant resolution
	resolverCache := resolver.NewCache(redisClient, cfg.ResolverCacheTTL, appLogger)
	tenantResolver := resolver.New(repo.Tenant(), resolverCache, cfg.JWTSecretKey, appLogger)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(redisClient, cfg, appLogger)
	validationMiddleware := middleware.NewValidationMiddleware(appLogger)

	// Initialize services
	auditLogService := service.NewAuditLogService(repo, sqsService, appLogger)
	tenantService := service.NewTenantService(repo, resolverCache, auditLogService, appLogger)
	authService := service.NewAuthService(repo, tenantService, auditLogService, authMiddleware, appLogger)
	presetService := service.NewPresetService(repo, preset.NewLibrary(cfg.PresetDir), appLogger)
	onboardingService := service.NewOnboardingService(repo, tenantService, presetService, auditLogService, appLogger)

	tenantMiddleware := middleware.NewTenantMiddleware(tenantResolver, auditLogService, appLogger)

	// Initialize HTTP server
	server := api.NewServer(
		authService,
		tenantService,
		onboardingService,
		auditLogService,
		authMiddleware,
		tenantMiddleware,
		rateLimitMiddleware,
		validationMiddleware,
		appLogger,
		redisPubSub,
		cfg.GlobalRateLimit,
	)

	// Start the WebSocket hub
	server.StartWebSocketHub()

	// Setup routes
	router := gin.Default()
	server.SetupRoutes(router)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		appLogger.Infof("Server starting on port %d", cfg.ServerPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	server.StopWebSocketHub()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", err)
	}

	appLogger.Info("Server exited")
	appLogger.Sync()
}
