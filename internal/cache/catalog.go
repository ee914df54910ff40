// internal/cache/catalog.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/partnerlink/partnerlink-backend/internal/config"
	"github.com/partnerlink/partnerlink-backend/internal/models"
)

const catalogKey = "marketplace:catalog:v1"

// NewRedisClient returns nil when redis is disabled; a nil client turns the
// catalog cache into a pass-through.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	if !cfg.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

func Ping(ctx context.Context, client *redis.Client) error {
	if client == nil {
		return nil
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

type CatalogLoader func(ctx context.Context) ([]models.Product, error)

// CatalogCache keeps the active marketplace catalog in redis. Redis
// failures are logged and fall through to the loader.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		client: client,
		ttl:    ttl,
		log:    logrus.WithField("component", "catalog_cache"),
	}
}

func (c *CatalogCache) Get(ctx context.Context, load CatalogLoader) ([]models.Product, error) {
	if c.client == nil {
		return load(ctx)
	}

	if val, err := c.client.Get(ctx, catalogKey).Result(); err == nil {
		var products []models.Product
		if err := json.Unmarshal([]byte(val), &products); err == nil {
			cacheLookups.WithLabelValues("hit").Inc()
			return products, nil
		}
		c.log.WithError(err).Warn("Discarding undecodable catalog cache entry")
	} else if !errors.Is(err, redis.Nil) {
		cacheLookups.WithLabelValues("error").Inc()
		c.log.WithError(err).Warn("Catalog cache read failed")
		return load(ctx)
	}

	cacheLookups.WithLabelValues("miss").Inc()
	products, err := load(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(products)
	if err != nil {
		return products, nil
	}
	if err := c.client.Set(ctx, catalogKey, data, c.ttl).Err(); err != nil {
		c.log.WithError(err).Warn("Catalog cache write failed")
	}
	return products, nil
}

// Invalidate drops the cached catalog after a product write.
func (c *CatalogCache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, catalogKey).Err(); err != nil {
		c.log.WithError(err).Warn("Catalog cache invalidation failed")
	}
}
