package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/billora/billora/internal/apiserver/database"
	"github.com/billora/billora/internal/common/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Recorder receives cache lookup results ("hit" or "miss"). Satisfied
// by pkg/metrics; may be nil.
type Recorder interface {
	TenantCache(result string)
}

type entry struct {
	tenant    *database.Tenant
	expiresAt time.Time
}

// TenantCache is a read-through cache in front of tenant lookups: an
// in-memory L1 with TTL, plus an optional Redis L2. Entries are derived
// from the database and never independently mutated; tenant updates go
// through Invalidate.
type TenantCache struct {
	logger   *zap.Logger
	db       database.Database
	ttl      time.Duration
	prefix   string
	redis    redis.Cmdable
	recorder Recorder

	mu      sync.RWMutex
	entries map[string]entry
}

// NewTenantCache creates a tenant cache from configuration. When the
// configured type is "redis" a client is created from the config.
func NewTenantCache(db database.Database, cfg *config.CacheConfig, recorder Recorder, logger *zap.Logger) *TenantCache {
	var client redis.Cmdable
	if cfg.Type == "redis" {
		client = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return newTenantCache(db, cfg, client, recorder, logger)
}

// NewTenantCacheWithClient creates a tenant cache over an existing
// Redis client; used by tests.
func NewTenantCacheWithClient(db database.Database, cfg *config.CacheConfig, client redis.Cmdable, recorder Recorder, logger *zap.Logger) *TenantCache {
	return newTenantCache(db, cfg, client, recorder, logger)
}

func newTenantCache(db database.Database, cfg *config.CacheConfig, client redis.Cmdable, recorder Recorder, logger *zap.Logger) *TenantCache {
	prefix := cfg.Redis.Prefix
	if prefix == "" {
		prefix = "billora:tenant:"
	}
	return &TenantCache{
		logger:   logger.Named("cache.tenant"),
		db:       db,
		ttl:      cfg.TTL,
		prefix:   prefix,
		redis:    client,
		recorder: recorder,
		entries:  make(map[string]entry),
	}
}

// GetByID returns the tenant with the given ID, serving from L1, then
// L2, then the database.
func (c *TenantCache) GetByID(ctx context.Context, id string) (*database.Tenant, error) {
	if tenant, ok := c.getL1(id); ok {
		c.record("hit")
		return tenant, nil
	}

	if tenant, ok := c.getL2(ctx, id); ok {
		c.record("hit")
		c.setL1(id, tenant)
		return tenant, nil
	}

	c.record("miss")
	tenant, err := c.db.GetTenantByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.setL1(id, tenant)
	c.setL2(ctx, id, tenant)
	return tenant, nil
}

// Invalidate drops a tenant from both layers; called after tenant writes.
func (c *TenantCache) Invalidate(ctx context.Context, id string) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()

	if c.redis != nil {
		if err := c.redis.Del(ctx, c.prefix+id).Err(); err != nil {
			c.logger.Warn("failed to invalidate tenant in redis",
				zap.String("tenant_id", id),
				zap.Error(err))
		}
	}
}

func (c *TenantCache) getL1(id string) (*database.Tenant, bool) {
	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.tenant, true
}

func (c *TenantCache) setL1(id string, tenant *database.Tenant) {
	c.mu.Lock()
	c.entries[id] = entry{tenant: tenant, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *TenantCache) getL2(ctx context.Context, id string) (*database.Tenant, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, c.prefix+id).Bytes()
	if err != nil {
		return nil, false
	}
	var tenant database.Tenant
	if err := json.Unmarshal(data, &tenant); err != nil {
		c.logger.Warn("corrupt tenant cache entry", zap.String("tenant_id", id), zap.Error(err))
		return nil, false
	}
	return &tenant, true
}

func (c *TenantCache) setL2(ctx context.Context, id string, tenant *database.Tenant) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(tenant)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, c.prefix+id, data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache tenant in redis",
			zap.String("tenant_id", id),
			zap.Error(err))
	}
}

func (c *TenantCache) record(result string) {
	if c.recorder != nil {
		c.recorder.TenantCache(result)
	}
}
