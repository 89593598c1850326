package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"actuator-workers/internal/common/logger"

	"github.com/robfig/cron/v3"
)

// Invalidator drops cached catalog data.
type Invalidator interface {
	Invalidate(ctx context.Context) (int, error)
}

// Refresher periodically invalidates the catalog cache so edits in the
// backing store become visible without waiting for every TTL.
type Refresher struct {
	cron    *cron.Cron
	cache   Invalidator
	logger  logger.Logger
	timeout time.Duration

	mu      sync.Mutex
	lastRun time.Time
	lastErr error
}

// NewRefresher registers RunOnce under a standard five-field cron spec or a
// descriptor such as "@every 15m".
func NewRefresher(spec string, cache Invalidator, log logger.Logger) (*Refresher, error) {
	r := &Refresher{
		cron:    cron.New(),
		cache:   cache,
		logger:  log.WithFields(map[string]interface{}{"component": "cache-refresher"}),
		timeout: 30 * time.Second,
	}
	if _, err := r.cron.AddFunc(spec, r.tick); err != nil {
		return nil, fmt.Errorf("register cache refresh %q: %w", spec, err)
	}
	return r, nil
}

func (r *Refresher) Start() {
	r.cron.Start()
	r.logger.Info("Cache refresher started", map[string]interface{}{"entries": len(r.cron.Entries())})
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info("Cache refresher stopped", nil)
}

// RunOnce invalidates the cache immediately.
func (r *Refresher) RunOnce(ctx context.Context) error {
	start := time.Now()
	n, err := r.cache.Invalidate(ctx)

	r.mu.Lock()
	r.lastRun, r.lastErr = start, err
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn("Catalog cache refresh failed", map[string]interface{}{"error": err.Error()})
		return err
	}
	r.logger.Info("Catalog cache refreshed", map[string]interface{}{
		"deleted":  n,
		"duration": time.Since(start).String(),
	})
	return nil
}

// LastRun reports when the cache was last refreshed and how that went.
func (r *Refresher) LastRun() (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRun, r.lastErr
}

func (r *Refresher) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	_ = r.RunOnce(ctx)
}
