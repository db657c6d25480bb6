package resolver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/pkg/logger"
)

const (
	hostKeyPrefix = "resolver:host:"
	idKeyPrefix   = "resolver:tenant:"
)

// Cache holds resolved tenants in redis with a short TTL. Invalidation on
// tenant deactivation is eventual: a deactivated tenant may keep resolving
// for at most the TTL, which the configuration caps at one minute.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

func NewCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

func (c *Cache) GetByHost(ctx context.Context, host string) *domain.Tenant {
	return c.get(ctx, hostKeyPrefix+host)
}

func (c *Cache) PutByHost(ctx context.Context, host string, tenant *domain.Tenant) {
	c.put(ctx, hostKeyPrefix+host, tenant)
}

func (c *Cache) GetByID(ctx context.Context, tenantID string) *domain.Tenant {
	return c.get(ctx, idKeyPrefix+tenantID)
}

func (c *Cache) PutByID(ctx context.Context, tenant *domain.Tenant) {
	c.put(ctx, idKeyPrefix+tenant.ID, tenant)
}

// Invalidate drops both entries for a tenant. Called on deactivation;
// host entries for custom domains age out on their own.
func (c *Cache) Invalidate(ctx context.Context, tenant *domain.Tenant) {
	if c == nil || c.client == nil {
		return
	}
	keys := []string{idKeyPrefix + tenant.ID}
	if tenant.PrimaryDomain != "" {
		keys = append(keys, hostKeyPrefix+tenant.PrimaryDomain)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("resolver cache invalidate failed", zap.Error(err))
	}
}

// Cache misses and errors are equivalent: the caller falls through to the
// database.
func (c *Cache) get(ctx context.Context, key string) *domain.Tenant {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	var tenant domain.Tenant
	if err := json.Unmarshal(data, &tenant); err != nil {
		return nil
	}
	if !tenant.IsActive {
		return nil
	}
	return &tenant
}

func (c *Cache) put(ctx context.Context, key string, tenant *domain.Tenant) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(tenant)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("resolver cache put failed", zap.Error(err))
	}
}
