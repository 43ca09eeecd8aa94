package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seismostack/hazview/internal/api"
	"github.com/seismostack/hazview/internal/cache"
	"github.com/seismostack/hazview/internal/config"
	"github.com/seismostack/hazview/internal/metrics"
	"github.com/seismostack/hazview/internal/repo"
	"github.com/seismostack/hazview/internal/services"
	"github.com/seismostack/hazview/internal/store"
	"github.com/seismostack/hazview/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting hazview", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	var cacheProvider cache.Provider = cache.NoopProvider{}
	var valkeyCloser cache.Provider
	if cfg.Cache.Enabled && cfg.Cache.Addr == "" {
		// Single-instance deployments can cache in process.
		cacheProvider = cache.NewMemoryProvider()
	}
	if cfg.Cache.Enabled && cfg.Cache.Addr != "" {
		provider, err := cache.NewValkeyProvider(cache.ValkeyConfig{
			Addr:         cfg.Cache.Addr,
			Username:     cfg.Cache.Username,
			Password:     cfg.Cache.Password,
			DB:           cfg.Cache.DB,
			DialTimeout:  cfg.Cache.DialTimeout,
			ReadTimeout:  cfg.Cache.ReadTimeout,
			WriteTimeout: cfg.Cache.WriteTimeout,
			MaxRetries:   cfg.Cache.MaxRetries,
			TLS:          cfg.Cache.TLS,
		})
		if err != nil {
			logger.Warn("valkey cache unavailable", slog.Any("error", err))
		} else {
			cacheProvider = provider
			valkeyCloser = provider
		}
	}
	if valkeyCloser != nil {
		defer valkeyCloser.Close()
	}

	coreClient := repo.NewCoreClient(repo.Options{
		BaseURL: cfg.Clients.Core.BaseURL,
		Paths: repo.CorePaths{
			Hazard:    cfg.Clients.Core.HazardPath,
			NZCode:    cfg.Clients.Core.NZCodePath,
			Disagg:    cfg.Clients.Core.DisaggPath,
			UHS:       cfg.Clients.Core.UHSPath,
			GMS:       cfg.Clients.Core.GMSPath,
			Scenario:  cfg.Clients.Core.ScenarioPath,
			Site:      cfg.Clients.Core.SitePath,
			IMCatalog: cfg.Clients.Core.IMCatalogPath,
			SoilClass: cfg.Clients.Core.SoilClassPath,
			Datasets:  cfg.Clients.Core.DatasetsPath,
			Download:  cfg.Clients.Core.DownloadPath,
		},
		Timeout:    cfg.Clients.Core.Timeout,
		Cache:      cacheProvider,
		CatalogTTL: cfg.Clients.Core.CatalogTTL,
	})

	dashboard := services.NewDashboard(logger, coreClient, services.Stores{
		Site:     store.NewSiteStore(logger, coreClient),
		Hazard:   store.NewHazardStore(logger, coreClient),
		Disagg:   store.NewDisaggStore(logger, coreClient),
		UHS:      store.NewUHSStore(logger, coreClient),
		GMS:      store.NewGMSStore(logger, coreClient),
		Scenario: store.NewScenarioStore(logger, coreClient),
	})

	handlers := api.NewHandlers(logger, dashboard, cfg.Auth.PermissionsHeader)
	server := api.NewServer(cfg.Server, logger, handlers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("http server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("hazview stopped")
}
