package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"time"

	"actuator-workers/internal/common/database"
	"actuator-workers/internal/common/errors"
	"actuator-workers/internal/common/logger"
	"actuator-workers/internal/common/metrics"
	"actuator-workers/internal/models"
	"actuator-workers/internal/selection"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyPrefix    = "catalog:"
	candidatesKeyBase = cacheKeyPrefix + "candidates:"
	overridesKeyBase  = cacheKeyPrefix + "overrides:"
)

// CachedStore is a read-through Redis cache in front of a catalog and an
// override store. A Redis failure degrades to a direct read.
type CachedStore struct {
	redis     *database.RedisClient
	catalog   selection.CatalogStore
	overrides selection.OverrideStore
	ttl       time.Duration
	logger    logger.Logger
}

func NewCachedStore(rdb *database.RedisClient, catalog selection.CatalogStore, overrides selection.OverrideStore, ttl time.Duration, log logger.Logger) *CachedStore {
	return &CachedStore{
		redis:     rdb,
		catalog:   catalog,
		overrides: overrides,
		ttl:       ttl,
		logger:    log.WithFields(map[string]interface{}{"store": "redis-cache"}),
	}
}

func (c *CachedStore) FindCandidates(ctx context.Context, q models.CatalogQuery) ([]models.ActuatorRecord, error) {
	key, err := CandidatesKey(q)
	if err != nil {
		return c.catalog.FindCandidates(ctx, q)
	}

	var cached []models.ActuatorRecord
	if c.get(ctx, key, &cached) {
		return cached, nil
	}

	records, err := c.catalog.FindCandidates(ctx, q)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, records)
	return records, nil
}

func (c *CachedStore) FindCompatible(ctx context.Context, bodySize string) ([]models.ManualOverrideRecord, error) {
	key := overridesKeyBase + bodySize

	var cached []models.ManualOverrideRecord
	if c.get(ctx, key, &cached) {
		return cached, nil
	}

	found, err := c.overrides.FindCompatible(ctx, bodySize)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, found)
	return found, nil
}

// Invalidate drops every cached catalog entry.
func (c *CachedStore) Invalidate(ctx context.Context) (int, error) {
	n, err := c.redis.DeleteByPattern(ctx, cacheKeyPrefix+"*")
	if err != nil {
		return n, errors.NewCacheUnavailableError(err)
	}
	return n, nil
}

// CandidatesKey derives a stable cache key from the query.
func CandidatesKey(q models.CatalogQuery) (string, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return candidatesKeyBase + hex.EncodeToString(sum[:16]), nil
}

func (c *CachedStore) get(ctx context.Context, key string, dst interface{}) bool {
	data, err := c.redis.Client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
	case stderrors.Is(err, redis.Nil):
		metrics.CatalogCacheLookups.WithLabelValues("miss").Inc()
		return false
	default:
		metrics.CatalogCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("Cache read failed, reading through", map[string]interface{}{
			"key":   key,
			"error": errors.NewCacheUnavailableError(err).Error(),
		})
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		metrics.CatalogCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("Discarding undecodable cache entry", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}
	metrics.CatalogCacheLookups.WithLabelValues("hit").Inc()
	return true
}

func (c *CachedStore) set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.redis.Client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}
