// Package dashboard turns repository rows into the documents served by the
// dashboard API, caching the expensive reports and journaling consultation actions.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"petcare-dashboard/internal/audit"
	"petcare-dashboard/internal/metrics"
	"petcare-dashboard/internal/repo"
	"petcare-dashboard/internal/report"
)

// ErrInvalidInput marks request parameters the service cannot act on.
var ErrInvalidInput = errors.New("invalid input")

const (
	keyOverview          = "overview"
	keyConsultationStats = "consultations:stats"
	keyUserAnalytics     = "analytics:users:"
)

// Cache is a JSON response cache. A nil Cache disables caching.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Journal records consultation actions. A nil Journal disables the audit trail.
type Journal interface {
	Record(ctx context.Context, e audit.Entry) (*audit.Entry, error)
	History(ctx context.Context, consultationID string) ([]audit.Entry, error)
	Ping(ctx context.Context) error
}

// Options configures a Service.
type Options struct {
	Cache             Cache
	CacheTTL          time.Duration
	Journal           Journal
	Metrics           *metrics.Metrics
	Location          *time.Location
	StrictTransitions bool
	// RefreshInterval is advertised to clients polling the overview.
	RefreshInterval time.Duration
	Now             func() time.Time
}

// Service answers every dashboard report.
type Service struct {
	repo            repo.Repository
	cache           Cache
	ttl             time.Duration
	journal         Journal
	metrics         *metrics.Metrics
	logger          *slog.Logger
	loc             *time.Location
	strict          bool
	refreshInterval time.Duration
	now             func() time.Time
}

// New builds a Service over r.
func New(r repo.Repository, opts Options, logger *slog.Logger) *Service {
	s := &Service{
		repo:            r,
		cache:           opts.Cache,
		ttl:             opts.CacheTTL,
		journal:         opts.Journal,
		metrics:         opts.Metrics,
		logger:          logger.With("component", "dashboard"),
		loc:             opts.Location,
		strict:          opts.StrictTransitions,
		refreshInterval: opts.RefreshInterval,
		now:             opts.Now,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.ttl <= 0 {
		s.ttl = 30 * time.Second
	}
	return s
}

// Location is the fixed zone every calendar day is measured in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Ping checks the underlying stores and, when configured, the audit journal.
// The response cache is optional and is not checked.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return err
	}
	if s.journal != nil {
		if err := s.journal.Ping(ctx); err != nil {
			return fmt.Errorf("ping audit journal: %w", err)
		}
	}
	return nil
}

// dayStart returns local midnight of the day containing t.
func (s *Service) dayStart(t time.Time) time.Time {
	y, m, d := t.In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

func (s *Service) localDate(t time.Time) string {
	return report.ISODate(t.In(s.loc))
}

func (s *Service) stamp(t time.Time) string {
	return *report.ISOTime(&t)
}

// cached serves key from the cache when present and fills it otherwise. Cache
// failures are logged and fall through to the store.
func cached[T any](ctx context.Context, s *Service, name, key string, load func(context.Context) (*T, error)) (*T, error) {
	if s.cache != nil {
		var hit T
		ok, err := s.cache.GetJSON(ctx, key, &hit)
		switch {
		case err != nil:
			s.countCache(name, "error")
			s.logger.Warn("cache read failed", "key", key, "error", err)
		case ok:
			s.countCache(name, "hit")
			return &hit, nil
		default:
			s.countCache(name, "miss")
		}
	}

	v, err := load(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, v)
	return v, nil
}

func (s *Service) store(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, v, s.ttl); err != nil {
		s.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("cache invalidation failed", "keys", keys, "error", err)
	}
}

func (s *Service) countCache(name, result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.CacheRequests.WithLabelValues(name, result).Inc()
}
