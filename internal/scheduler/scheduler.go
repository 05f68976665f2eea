// Package scheduler keeps the cached overview snapshot warm between polls.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"petcare-dashboard/internal/dashboard"
	"petcare-dashboard/internal/metrics"
)

// Refresher recomputes the overview snapshot. Caching reports whether there
// is a cache for the snapshot to be written to.
type Refresher interface {
	RefreshOverview(ctx context.Context) (*dashboard.Overview, error)
	Caching() bool
}

// Scheduler runs the periodic overview refresh.
type Scheduler struct {
	cron    gocron.Scheduler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Start registers the refresh job and starts it. The first run happens
// immediately; runs never overlap. Without a cache nothing is scheduled and
// the returned Scheduler is idle.
func Start(ctx context.Context, r Refresher, interval time.Duration, m *metrics.Metrics, logger *slog.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, errors.New("refresh interval must be positive")
	}
	logger = logger.With("component", "scheduler")
	if !r.Caching() {
		logger.Info("overview refresh disabled without a response cache")
		return &Scheduler{logger: logger, metrics: m}, nil
	}

	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	s := &Scheduler{
		cron:    cron,
		logger:  logger,
		metrics: m,
	}

	_, err = cron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { s.refresh(ctx, r, interval) }),
		gocron.WithName("overview-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = cron.Shutdown()
		return nil, fmt.Errorf("register overview refresh: %w", err)
	}

	cron.Start()
	s.logger.Info("overview refresh scheduled", "interval", interval)
	return s, nil
}

func (s *Scheduler) refresh(ctx context.Context, r Refresher, timeout time.Duration) {
	if ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status := "ok"
	if _, err := r.RefreshOverview(ctx); err != nil {
		status = "error"
		s.logger.Warn("overview refresh failed", "error", err)
	}
	if s.metrics != nil {
		s.metrics.OverviewRefreshes.WithLabelValues(status).Inc()
	}
}

// Shutdown stops the scheduler and waits for a running refresh.
func (s *Scheduler) Shutdown() error {
	if s.cron == nil {
		return nil
	}
	if err := s.cron.Shutdown(); err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}
	return nil
}
