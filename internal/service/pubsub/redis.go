// Package pubsub fans audit records out to live websocket listeners over
// per-tenant redis channels. One channel per tenant keeps the isolation
// boundary: a subscription can only ever observe its own tenant's stream.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/pkg/logger"
)

const channelPrefix = "audit_stream:"

type RedisPubSub struct {
	client       *redis.Client
	logger       *logger.Logger
	subscribers  map[string]*redis.PubSub
	subscriberMu sync.RWMutex
}

func NewRedisPubSub(client *redis.Client, log *logger.Logger) *RedisPubSub {
	return &RedisPubSub{
		client:      client,
		logger:      log,
		subscribers: make(map[string]*redis.PubSub),
	}
}

func (ps *RedisPubSub) channelName(tenantID string) string {
	return channelPrefix + tenantID
}

// Publish sends an audit record to its tenant's channel.
func (ps *RedisPubSub) Publish(ctx context.Context, record *domain.AuditRecord) error {
	message, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}

	channel := ps.channelName(record.TenantID)
	if err := ps.client.Publish(ctx, channel, message).Err(); err != nil {
		return fmt.Errorf("failed to publish to channel %s: %w", channel, err)
	}

	return nil
}

// Subscribe starts delivering the tenant's audit stream to callback. A
// second subscription for the same tenant is a no-op; the existing pump
// keeps running.
func (ps *RedisPubSub) Subscribe(ctx context.Context, tenantID string, callback func(*domain.AuditRecord)) error {
	channel := ps.channelName(tenantID)

	ps.subscriberMu.RLock()
	_, exists := ps.subscribers[tenantID]
	ps.subscriberMu.RUnlock()
	if exists {
		return nil
	}

	pubsub := ps.client.Subscribe(ctx, channel)

	ps.subscriberMu.Lock()
	ps.subscribers[tenantID] = pubsub
	ps.subscriberMu.Unlock()

	go func() {
		defer func() {
			pubsub.Close()
			ps.subscriberMu.Lock()
			delete(ps.subscribers, tenantID)
			ps.subscriberMu.Unlock()
		}()

		ch := pubsub.Channel()
		for {
			select {
			case msg := <-ch:
				var record domain.AuditRecord
				if err := json.Unmarshal([]byte(msg.Payload), &record); err != nil {
					ps.logger.Errorf("failed to unmarshal record from channel %s: %v", channel, err)
					continue
				}
				callback(&record)

			case <-ctx.Done():
				return
			}
		}
	}()

	ps.logger.Infof("subscribed to tenant channel: %s", channel)
	return nil
}

// Unsubscribe stops the tenant's stream.
func (ps *RedisPubSub) Unsubscribe(tenantID string) {
	ps.subscriberMu.Lock()
	defer ps.subscriberMu.Unlock()

	if pubsub, exists := ps.subscribers[tenantID]; exists {
		pubsub.Close()
		delete(ps.subscribers, tenantID)
	}
}

func (ps *RedisPubSub) Close() {
	ps.subscriberMu.Lock()
	defer ps.subscriberMu.Unlock()

	for tenantID, pubsub := range ps.subscribers {
		pubsub.Close()
		delete(ps.subscribers, tenantID)
	}
}
