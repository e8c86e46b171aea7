package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"credverify/internal/platform/config"
)

type poolMetrics struct {
	openConns   prometheus.Gauge
	inUseConns  prometheus.Gauge
	idleConns   prometheus.Gauge
	waitCount   prometheus.Gauge
	waitSeconds prometheus.Gauge
}

func newPoolMetrics(reg prometheus.Registerer) *poolMetrics {
	factory := promauto.With(reg)
	return &poolMetrics{
		openConns: factory.NewGauge(prometheus.GaugeOpts{
			Name: "credverify_db_open_conns",
			Help: "Number of established database connections",
		}),
		inUseConns: factory.NewGauge(prometheus.GaugeOpts{
			Name: "credverify_db_in_use_conns",
			Help: "Number of database connections currently in use",
		}),
		idleConns: factory.NewGauge(prometheus.GaugeOpts{
			Name: "credverify_db_idle_conns",
			Help: "Number of idle database connections",
		}),
		waitCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "credverify_db_wait_count",
			Help: "Total number of connections waited for",
		}),
		waitSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Name: "credverify_db_wait_seconds",
			Help: "Total time blocked waiting for a new connection",
		}),
	}
}

// Pool wraps a *sql.DB with health checking capabilities.
type Pool struct {
	db      *sql.DB
	cfg     config.DatabaseConfig
	metrics *poolMetrics
}

// New creates a new database connection pool. Returns nil if the URL is empty.
// A nil registerer skips pool metrics.
func New(ctx context.Context, cfg config.DatabaseConfig, reg prometheus.Registerer) (*Pool, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &Pool{db: db, cfg: cfg}
	if reg != nil {
		p.metrics = newPoolMetrics(reg)
	}
	return p, nil
}

// DB returns the underlying *sql.DB for query operations.
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Health checks if the database is reachable.
func (p *Pool) Health(ctx context.Context) error {
	if p == nil || p.db == nil {
		return fmt.Errorf("database not configured")
	}
	return p.db.PingContext(ctx)
}

// Close closes the database connection pool.
func (p *Pool) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// Stats returns database connection pool statistics.
func (p *Pool) Stats() sql.DBStats {
	if p == nil || p.db == nil {
		return sql.DBStats{}
	}
	return p.db.Stats()
}

// RecordPoolStats copies the current pool statistics into the gauges.
func (p *Pool) RecordPoolStats() {
	if p == nil || p.metrics == nil {
		return
	}
	stats := p.Stats()
	p.metrics.openConns.Set(float64(stats.OpenConnections))
	p.metrics.inUseConns.Set(float64(stats.InUse))
	p.metrics.idleConns.Set(float64(stats.Idle))
	p.metrics.waitCount.Set(float64(stats.WaitCount))
	p.metrics.waitSeconds.Set(stats.WaitDuration.Seconds())
}
