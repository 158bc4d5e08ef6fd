package commands

import (
	"fmt"

	"github.com/wonny/shelforder/internal/api/events"
	"github.com/wonny/shelforder/internal/catalog"
	"github.com/wonny/shelforder/internal/contracts"
	"github.com/wonny/shelforder/internal/external/pim"
	"github.com/wonny/shelforder/internal/ordering"
	"github.com/wonny/shelforder/internal/rankconfig"
	"github.com/wonny/shelforder/internal/runner"
	"github.com/wonny/shelforder/pkg/config"
	"github.com/wonny/shelforder/pkg/database"
	"github.com/wonny/shelforder/pkg/httputil"
	"github.com/wonny/shelforder/pkg/logger"
	"github.com/wonny/shelforder/pkg/redis"
)

// keyPrefix namespaces every Redis key of this service
const keyPrefix = "shelforder"

// app holds the wired dependencies shared by all commands
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	db     *database.DB
	redis  *redis.Client
	runner *runner.Runner
	hub    *events.Hub
}

// newApp loads config and connects everything a sort run needs.
// Callers must defer close().
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	profile, err := rankconfig.LoadOrDefault(cfg.Sort.ProfilePath)
	if err != nil {
		return nil, err
	}
	for _, w := range rankconfig.Warn(profile) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	rc, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	cache := redis.NewCache(rc, keyPrefix)
	hub := events.NewHub(log)

	deps := runner.Deps{
		Catalog:   catalog.NewRepository(db.Pool),
		Brands:    newBrandLookup(cfg, log, rc, cache, db),
		Sink:      ordering.NewRepository(db.Pool),
		Locker:    redis.NewLocker(rc, keyPrefix),
		Cache:     cache,
		Publisher: hub,
	}

	return &app{
		cfg:    cfg,
		log:    log,
		db:     db,
		redis:  rc,
		runner: runner.New(deps, profile, cfg.Sort, log),
		hub:    hub,
	}, nil
}

// newBrandLookup prefers the PIM service when configured
func newBrandLookup(cfg *config.Config, log *logger.Logger, rc *redis.Client, cache *redis.Cache, db *database.DB) contracts.BrandLookup {
	if cfg.PIM.BaseURL == "" {
		return catalog.NewDBBrandLookup(db.Pool)
	}

	httpClient := httputil.NewWithTimeout(cfg, log, cfg.PIM.Timeout).
		WithHeader("X-Api-Key", cfg.PIM.APIKey).
		WithRateLimiter(redis.NewRateLimiter(rc, keyPrefix), redis.PIMRateLimit)

	log.WithField("base_url", cfg.PIM.BaseURL).Info("Using PIM brand lookup")
	return pim.NewClient(httpClient, log, cfg.PIM.BaseURL).WithCache(cache)
}

func (a *app) close() {
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
	a.db.Close()
}
