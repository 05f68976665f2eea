package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"petcare-dashboard/internal/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned when a lookup by identifier matches no row.
var ErrNotFound = errors.New("not found")

// Options configures the connection pools.
type Options struct {
	DatabaseURL              string
	ConsultationsDatabaseURL string
	Schema                   string
	MaxConns                 int32

	// ReportOffset is bound into every date and hour bucketing expression.
	ReportOffset time.Duration
	Metrics      *metrics.Metrics
}

// PostgresRepository runs the dashboard report queries against the messaging
// store and the consultations store.
type PostgresRepository struct {
	pool     *pgxpool.Pool
	consults *pgxpool.Pool
	logger   *slog.Logger
	metrics  *metrics.Metrics
	offset   string
}

// New opens the process-wide connection pools. When both stores share a URL a
// single pool serves both.
func New(ctx context.Context, opts Options, logger *slog.Logger) (*PostgresRepository, error) {
	pool, err := openPool(ctx, opts.DatabaseURL, opts.Schema, opts.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("dashboard store: %w", err)
	}

	consults := pool
	if opts.ConsultationsDatabaseURL != "" && opts.ConsultationsDatabaseURL != opts.DatabaseURL {
		consults, err = openPool(ctx, opts.ConsultationsDatabaseURL, opts.Schema, opts.MaxConns)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("consultations store: %w", err)
		}
	}

	return &PostgresRepository{
		pool:     pool,
		consults: consults,
		logger:   logger.With("component", "repo"),
		metrics:  opts.Metrics,
		offset:   IntervalLiteral(opts.ReportOffset),
	}, nil
}

func openPool(ctx context.Context, databaseURL, schema string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if cfg.ConnConfig.RuntimeParams == nil {
		cfg.ConnConfig.RuntimeParams = map[string]string{}
	}
	if schema != "" {
		cfg.ConnConfig.RuntimeParams["search_path"] = schema
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// Close releases the connection pools.
func (r *PostgresRepository) Close() {
	if r.consults != nil && r.consults != r.pool {
		r.consults.Close()
	}
	if r.pool != nil {
		r.pool.Close()
	}
}

// Ping ensures both stores are reachable.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping dashboard store: %w", err)
	}
	if r.consults != r.pool {
		if err := r.consults.Ping(ctx); err != nil {
			return fmt.Errorf("ping consultations store: %w", err)
		}
	}
	return nil
}

// withConn acquires one pooled connection for a sequence of statements and
// releases it on every exit path.
func (r *PostgresRepository) withConn(ctx context.Context, pool *pgxpool.Pool, fn func(*pgxpool.Conn) error) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()
	return fn(conn)
}

// fanOut runs independent queries concurrently, each on its own pooled
// connection. The first failure cancels the rest and is returned.
func fanOut(ctx context.Context, fns ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		g.Go(func() error { return fn(gctx) })
	}
	return g.Wait()
}

// observe records query latency and wraps failures with the query name.
func (r *PostgresRepository) observe(name string, start time.Time, err error) error {
	r.metrics.ObserveQuery(name, start, err)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		r.logger.Debug("query failed", "query", name, "error", err)
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// IntervalLiteral renders a UTC offset as a Postgres interval literal, e.g. "05:30:00".
func IntervalLiteral(offset time.Duration) string {
	sign := ""
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	total := int(offset / time.Second)
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, total/3600, (total%3600)/60, total%60)
}
