package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"actuator-workers/internal/catalog"
	"actuator-workers/internal/common/config"
	"actuator-workers/internal/common/database"
)

// openConnections opens only the clients the configured catalog backend and
// cache need. The returned cleanup closes whatever was opened.
func openConnections(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (catalog.Connections, func(), error) {
	var conns catalog.Connections
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				zapLog.Warn("error closing connection", zap.Error(err))
			}
		}
	}

	if cfg.Selection.CatalogBackend == config.CatalogBackendPostgres {
		err := retryWithBackoff(func() error {
			pg, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := pg.Ping(ctx); err != nil {
				pg.Close()
				return err
			}
			if err := pg.CheckTables(ctx, database.CatalogTables...); err != nil {
				pg.Close()
				return err
			}
			conns.Postgres = pg
			return nil
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			cleanup()
			return conns, nil, err
		}
		closers = append(closers, conns.Postgres.Close)
		zapLog.Info("PostgreSQL connected successfully")
	}

	if cfg.Selection.CatalogBackend == config.CatalogBackendElasticsearch {
		err := retryWithBackoff(func() error {
			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			if err := es.Ping(ctx); err != nil {
				return err
			}
			esCfg := cfg.Database.Elasticsearch
			if err := es.CheckIndices(ctx, esCfg.CatalogIndex, esCfg.OverrideIndex); err != nil {
				return err
			}
			conns.Elasticsearch = es
			return nil
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			cleanup()
			return conns, nil, err
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	if cfg.Selection.CacheEnabled {
		err := retryWithBackoff(func() error {
			rdb, err := database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			if err := rdb.Ping(ctx); err != nil {
				rdb.Close()
				return err
			}
			conns.Redis = rdb
			return nil
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			cleanup()
			return conns, nil, err
		}
		closers = append(closers, conns.Redis.Close)
		zapLog.Info("Redis connected successfully")
	}

	return conns, cleanup, nil
}
