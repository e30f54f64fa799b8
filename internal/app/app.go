// Package app assembles the client from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Alexander-D-Karpov/sleeves/internal/api"
	"github.com/Alexander-D-Karpov/sleeves/internal/catalog"
	"github.com/Alexander-D-Karpov/sleeves/internal/config"
	"github.com/Alexander-D-Karpov/sleeves/internal/metrics"
	"github.com/Alexander-D-Karpov/sleeves/internal/reward"
	"github.com/Alexander-D-Karpov/sleeves/internal/services"
	"github.com/Alexander-D-Karpov/sleeves/internal/storage"
	"github.com/Alexander-D-Karpov/sleeves/pkg/types"
)

type App struct {
	cfg    *config.Config
	logger *zap.Logger

	api           *api.Client
	metrics       *metrics.Metrics
	storage       *storage.Database
	syncManager   *storage.SyncManager
	gacha         *services.GachaService
	metricsServer *http.Server
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	m := metrics.New()

	apiClient, err := api.NewClient(cfg, logger, m)
	if err != nil {
		return nil, fmt.Errorf("initialize api client: %w", err)
	}

	a := &App{
		cfg:     cfg,
		logger:  logger.Named("app"),
		api:     apiClient,
		metrics: m,
	}

	deps := services.Dependencies{
		Gateway: apiClient,
		Engine:  reward.NewEngine(reward.NewMathSource()),
		Metrics: m,
		Logger:  logger,
	}

	if cfg.Storage.CacheCatalog {
		db, err := storage.NewDatabase(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize database: %w", err)
		}
		a.storage = db

		deps.Catalog = storage.NewLayeredCatalog(db, catalog.Builtin(), logger)
		deps.CatalogCache = db

		interval := time.Duration(cfg.Storage.SyncInterval) * time.Second
		a.syncManager = storage.NewSyncManager(apiClient, db, interval, logger)
		a.syncManager.OnComplete(func(count int) {
			a.logger.Debug("catalog cache refreshed", zap.Int("sleeves", count))
		})
		a.syncManager.Start(ctx)
	}

	gacha, err := services.NewGachaService(cfg, deps)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("initialize gacha service: %w", err)
	}
	a.gacha = gacha

	if cfg.Metrics.Addr != "" {
		a.startMetricsServer(cfg.Metrics.Addr)
	}

	a.logger.Debug("app initialized",
		zap.String("base_url", apiClient.BaseURL()),
		zap.Bool("cache_catalog", cfg.Storage.CacheCatalog),
	)

	return a, nil
}

func (a *App) startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())

	a.metricsServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	a.logger.Info("metrics listening", zap.String("addr", addr))
}

func (a *App) Gacha() *services.GachaService {
	return a.gacha
}

func (a *App) API() *api.Client {
	return a.api
}

func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// CatalogSyncer is nil unless storage.cache_catalog is enabled.
func (a *App) CatalogSyncer() types.CatalogSyncer {
	if a.syncManager == nil {
		return nil
	}
	return a.syncManager
}

func (a *App) Close() {
	if a.syncManager != nil {
		a.syncManager.Stop()
	}

	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.logger.Warn("shutdown metrics server", zap.Error(err))
		}
		cancel()
	}

	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Warn("close database", zap.Error(err))
		}
	}
}
