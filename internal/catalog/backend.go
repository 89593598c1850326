package catalog

import (
	"fmt"
	"time"

	"actuator-workers/internal/common/config"
	"actuator-workers/internal/common/database"
	"actuator-workers/internal/common/logger"
	"actuator-workers/internal/selection"
)

// Backend serves both catalog candidates and manual overrides.
type Backend interface {
	selection.CatalogStore
	selection.OverrideStore
}

// Connections holds the opened clients a backend may need.
type Connections struct {
	Postgres      *database.PostgresClient
	Elasticsearch *database.ElasticsearchClient
	Redis         *database.RedisClient
}

// NewBackend builds the configured store and, when enabled, wraps it in the
// Redis cache. The returned CachedStore is nil without caching.
func NewBackend(cfg *config.Config, conns Connections, log logger.Logger) (Backend, *CachedStore, error) {
	var store Backend

	switch cfg.Selection.CatalogBackend {
	case config.CatalogBackendPostgres:
		if conns.Postgres == nil {
			return nil, nil, fmt.Errorf("catalog backend %q needs a postgres connection", cfg.Selection.CatalogBackend)
		}
		store = NewPostgresStore(conns.Postgres, log)

	case config.CatalogBackendElasticsearch:
		if conns.Elasticsearch == nil {
			return nil, nil, fmt.Errorf("catalog backend %q needs an elasticsearch client", cfg.Selection.CatalogBackend)
		}
		store = NewElasticsearchStore(conns.Elasticsearch, cfg.Database.Elasticsearch, log)

	case config.CatalogBackendFile:
		fs, err := LoadFile(cfg.Selection.CatalogFile)
		if err != nil {
			return nil, nil, err
		}
		for _, s := range fs.Skipped() {
			log.Warn("Catalog entry skipped", map[string]interface{}{"entry": s})
		}
		store = fs

	default:
		return nil, nil, fmt.Errorf("unknown catalog backend %q", cfg.Selection.CatalogBackend)
	}

	if !cfg.Selection.CacheEnabled || conns.Redis == nil {
		return store, nil, nil
	}
	cached := NewCachedStore(conns.Redis, store, store, time.Duration(cfg.Selection.CacheTTL)*time.Second, log)
	return cached, cached, nil
}
