package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/ledgerstack/tenant-core/internal/config"
	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/tenantctx"
	"github.com/ledgerstack/tenant-core/pkg/logger"
)

type RateLimitMiddleware struct {
	redis  *redis.Client
	config *config.Config
	logger *logger.Logger
}

func NewRateLimitMiddleware(redis *redis.Client, config *config.Config, log *logger.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		redis:  redis,
		config: config,
		logger: log,
	}
}

// TenantRateLimit limits requests per tenant per minute. The limit comes
// from the tenant's plan quota.
func (m *RateLimitMiddleware) TenantRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := tenantctx.FromContext(c.Request.Context())
		if !ok || scope.TenantID == "" {
			c.Next()
			return
		}

		limit := planRateLimit(scope.TenantPlan)
		key := fmt.Sprintf("rate_limit:tenant:%s", scope.TenantID)
		m.enforce(c, key, limit)
	}
}

// GlobalRateLimit limits requests per client IP per minute, before any
// tenant is resolved.
func (m *RateLimitMiddleware) GlobalRateLimit(limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("rate_limit:global:%s", c.ClientIP())
		m.enforce(c, key, limit)
	}
}

// enforce counts in a one-minute redis window. Redis being down fails
// open: rate limiting protects capacity, it is not an auth gate.
func (m *RateLimitMiddleware) enforce(c *gin.Context, key string, limit int) {
	ctx := c.Request.Context()
	reset := time.Now().Add(time.Minute).Unix()

	current, err := m.redis.Get(ctx, key).Int()
	if err != nil && err != redis.Nil {
		m.logger.Error("redis error in rate limiting", err)
		c.Next()
		return
	}

	if current >= limit {
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", "0")
		c.Header("X-RateLimit-Reset", strconv.FormatInt(reset, 10))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": "Rate limit exceeded",
			"limit": limit,
			"reset": reset,
		})
		return
	}

	pipe := m.redis.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		m.logger.Error("redis pipeline error in rate limiting", err)
	}

	remaining := limit - (current + 1)
	if remaining < 0 {
		remaining = 0
	}
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(reset, 10))

	c.Next()
}

func planRateLimit(plan string) int {
	if quota, ok := domain.PlanQuotas[plan]; ok {
		return quota.RateLimit
	}
	return domain.PlanQuotas["trial"].RateLimit
}
