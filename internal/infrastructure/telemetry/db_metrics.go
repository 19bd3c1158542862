package telemetry

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetricsConfig holds configuration for database metrics collection.
type DBMetricsConfig struct {
	Enabled bool
	// SlowQueryThreshold defaults to 200ms
	SlowQueryThreshold time.Duration
}

// DBMetrics counts and times gorm statements. Pool usage is observed on
// each collection through a callback, so there is no sampling goroutine.
type DBMetrics struct {
	queries  metric.Int64Counter
	duration metric.Float64Histogram
	slow     metric.Int64Counter

	poolOpen metric.Int64ObservableGauge
	poolMax  metric.Int64ObservableGauge

	slowAfter time.Duration
	logger    *zap.Logger

	registration metric.Registration
	stopOnce     sync.Once
}

// NewDBMetrics creates the statement instruments on meter
func NewDBMetrics(meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}

	in := NewInstruments(meter)
	m := &DBMetrics{
		queries:   in.Counter("db_query_total", "Statements executed through gorm", "{query}"),
		duration:  in.Histogram("db_query_duration_seconds", "Statement latency", "s", DBDurationBuckets),
		slow:      in.Counter("db_slow_query_total", "Statements slower than the slow query threshold", "{query}"),
		poolOpen:  in.ObservableGauge("db_pool_connections", "Pool connections by state", "{connection}"),
		poolMax:   in.ObservableGauge("db_pool_connections_max", "Configured maximum of open connections", "{connection}"),
		slowAfter: cfg.SlowQueryThreshold,
		logger:    logger,
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// ObservePool reports sqlDB.Stats on every collection until Stop
func (m *DBMetrics) ObservePool(meter metric.Meter, sqlDB *sql.DB) error {
	reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(m.poolMax, int64(stats.MaxOpenConnections))
		o.ObserveInt64(m.poolOpen, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(m.poolOpen, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(m.poolOpen, int64(stats.OpenConnections), metric.WithAttributes(AttrDBState.String("open")))
		return nil
	}, m.poolOpen, m.poolMax)
	if err != nil {
		return err
	}
	m.registration = reg
	return nil
}

// Stop detaches the pool callback. Safe to call more than once.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		if m.registration == nil {
			return
		}
		if err := m.registration.Unregister(); err != nil {
			m.logger.Warn("Pool metrics callback unregister failed", zap.Error(err))
		}
	})
}

// RecordQuery records one finished statement
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, elapsed time.Duration) {
	if operation = strings.ToUpper(operation); operation == "" {
		operation = "UNKNOWN"
	}
	byOp := metric.WithAttributes(AttrDBOperation.String(operation))
	m.queries.Add(ctx, 1, byOp)
	m.duration.Record(ctx, Seconds(elapsed), byOp)

	if elapsed <= m.slowAfter {
		return
	}
	if table == "" {
		table = "unknown"
	}
	m.slow.Add(ctx, 1, metric.WithAttributes(AttrDBTable.String(table)))
}

func (m *DBMetrics) afterStatement(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	elapsed, _ := queryElapsed(ctx)
	m.RecordQuery(ctx, detectOperationType(db.Statement.SQL.String()), db.Statement.Table, elapsed)
}

// detectOperationType reads the verb off the rendered statement
func detectOperationType(stmt string) string {
	stmt = strings.ToUpper(strings.TrimSpace(stmt))
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(stmt, verb) {
			return verb
		}
	}
	return "OTHER"
}

// RegisterDBMetrics hooks statement metrics into db and observes its pool.
// It returns nil when disabled; otherwise call Stop on shutdown.
func RegisterDBMetrics(_ context.Context, db *gorm.DB, meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	m, err := NewDBMetrics(meter, cfg, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := registerAround(db, "db_metrics", markQueryStart, m.afterStatement); err != nil {
		return nil, err
	}
	if err := m.ObservePool(meter, sqlDB); err != nil {
		return nil, err
	}
	m.logger.Info("Database metrics registered", zap.Duration("slow_query_threshold", m.slowAfter))
	return m, nil
}
