package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"petcare-dashboard/internal/audit"
	"petcare-dashboard/internal/cache"
	"petcare-dashboard/internal/config"
	"petcare-dashboard/internal/dashboard"
	"petcare-dashboard/internal/httpserver"
	"petcare-dashboard/internal/logging"
	"petcare-dashboard/internal/metrics"
	"petcare-dashboard/internal/repo"
	"petcare-dashboard/internal/scheduler"
	"petcare-dashboard/internal/web"
	"petcare-dashboard/migrations"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting petcare-dashboard", "env", cfg.AppEnv, "report_zone", cfg.ReportLocation().String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricRegistry := metrics.Registry(cfg.MetricsNamespace)

	repository, err := repo.New(ctx, repo.Options{
		DatabaseURL:              cfg.DatabaseURL,
		ConsultationsDatabaseURL: cfg.ConsultationsDatabaseURL,
		Schema:                   cfg.DatabaseSchema,
		MaxConns:                 cfg.DatabaseMaxConns,
		ReportOffset:             cfg.ReportOffset,
		Metrics:                  metricRegistry,
	}, logger)
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}
	defer repository.Close()

	opts := dashboard.Options{
		CacheTTL:          cfg.CacheTTL,
		Metrics:           metricRegistry,
		Location:          cfg.ReportLocation(),
		StrictTransitions: cfg.StrictTransitions,
		RefreshInterval:   cfg.OverviewRefreshInterval,
	}

	if cfg.RedisAddr != "" {
		redisClient := cache.New(cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			UseTLS:   cfg.RedisTLS,
		}, logger)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("failed closing redis", "error", err)
			}
		}()
		if err := redisClient.Ping(ctx); err != nil {
			logger.Warn("redis ping failed", "error", err)
		}
		opts.Cache = redisClient
	} else {
		logger.Info("response cache disabled")
	}

	if cfg.AuditStorePath != "" {
		journal, err := audit.Open(ctx, cfg.AuditStorePath, logger)
		if err != nil {
			return fmt.Errorf("open audit journal: %w", err)
		}
		defer func() {
			if err := journal.Close(); err != nil {
				logger.Warn("failed closing audit journal", "error", err)
			}
		}()
		if err := journal.Migrate(ctx, migrations.Files); err != nil {
			return fmt.Errorf("migrate audit journal: %w", err)
		}
		logger.Info("audit journal ready", "path", cfg.AuditStorePath)
		opts.Journal = journal
	} else {
		logger.Info("audit journal disabled")
	}

	svc := dashboard.New(repository, opts, logger)

	refresher, err := scheduler.Start(ctx, svc, cfg.OverviewRefreshInterval, metricRegistry, logger)
	if err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() {
		if err := refresher.Shutdown(); err != nil {
			logger.Warn("scheduler shutdown error", "error", err)
		}
	}()

	ui, err := web.New(cfg.PublicBasePath, cfg.OverviewRefreshInterval, logger)
	if err != nil {
		return fmt.Errorf("init web views: %w", err)
	}

	httpSrv := httpserver.New(cfg.HTTPListenAddr, logger, metricRegistry, httpserver.Handlers{
		API: httpserver.NewAPI(svc, cfg.IsProduction(), metricRegistry, logger),
		UI:  ui,
	}, cfg.PublicBasePath)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	return nil
}
