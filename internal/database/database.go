package database

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rajasatyajit/lifesaver/config"
	"github.com/rajasatyajit/lifesaver/internal/logger"
	"github.com/rajasatyajit/lifesaver/internal/metrics"
)

//go:embed schema.sql
var schema string

// ErrNotConfigured is returned by operations that need a pool when none exists
var ErrNotConfigured = errors.New("database not configured")

// DB represents a database connection
type DB struct {
	pool *pgxpool.Pool
	cfg  config.DatabaseConfig
	stop context.CancelFunc
}

// New creates a new database connection. An empty URL yields an unconfigured
// DB; callers fall back to the in-memory store.
func New(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	if cfg.URL == "" {
		logger.Info("DATABASE_URL not set; using in-memory store only")
		return &DB{pool: nil, cfg: cfg}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		logger.Debug("Database connection established")
		return nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	metricsCtx, stop := context.WithCancel(context.Background())
	db := &DB{pool: pool, cfg: cfg, stop: stop}
	go db.collectMetrics(metricsCtx)

	logger.Info("Database connection established",
		"max_conns", cfg.MaxConns,
		"min_conns", cfg.MinConns,
	)

	return db, nil
}

// EnsureSchema creates the reports table and its indexes if missing
func (d *DB) EnsureSchema(ctx context.Context) error {
	if d.pool == nil {
		return ErrNotConfigured
	}
	if err := d.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *DB) Close(ctx context.Context) {
	if d.stop != nil {
		d.stop()
	}
	if d.pool != nil {
		d.pool.Close()
		logger.Info("Database connection closed")
	}
}

// collectMetrics periodically collects database metrics
func (d *DB) collectMetrics(ctx context.Context) {
	if d.pool == nil {
		return
	}

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stat := d.pool.Stat()
			metrics.SetDBConnectionsActive(float64(stat.AcquiredConns()))
		}
	}
}

// Exec executes a statement
func (d *DB) Exec(ctx context.Context, sql string, args ...any) error {
	if d.pool == nil {
		return ErrNotConfigured
	}

	start := time.Now()
	defer func() {
		logger.Debug("Database exec",
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := d.pool.Exec(ctx, sql, args...)

	status := "success"
	if err != nil {
		status = "error"
		logger.Error("Database exec failed", "error", err)
	}
	metrics.RecordDBQuery("exec", status)

	return err
}

// Query executes a query and returns rows. The caller must close them.
func (d *DB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if d.pool == nil {
		return nil, ErrNotConfigured
	}

	start := time.Now()
	defer func() {
		logger.Debug("Database query",
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}()

	rows, err := d.pool.Query(ctx, sql, args...)

	status := "success"
	if err != nil {
		status = "error"
		logger.Error("Database query failed", "error", err)
	}
	metrics.RecordDBQuery("query", status)

	return rows, err
}

// QueryRow executes a query that returns a single row
func (d *DB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if d.pool == nil {
		return errRow{err: ErrNotConfigured}
	}
	metrics.RecordDBQuery("query_row", "issued")
	return d.pool.QueryRow(ctx, sql, args...)
}

// Health checks database connectivity
func (d *DB) Health(ctx context.Context) error {
	if d.pool == nil {
		return ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return d.pool.Ping(ctx)
}

// IsConfigured returns true if database is configured
func (d *DB) IsConfigured() bool {
	return d.pool != nil
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }
