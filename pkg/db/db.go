package db

import (
	"context"
	"fmt"

	"github.com/smallbiznis/catalogadmin/internal/observability/logger"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormprometheus "gorm.io/plugin/prometheus"
)

var Module = fx.Module("db",
	fx.Provide(FromConfig),
	fx.Provide(New),
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    Config
	Log       *zap.Logger
	Tracer    *sdktrace.TracerProvider `optional:"true"`
}

// New opens the journal database with query logging, tracing and pool
// metrics attached, and closes it when the app stops.
func New(p Params) (*gorm.DB, error) {
	var tp trace.TracerProvider
	if p.Tracer != nil {
		tp = p.Tracer
	}
	conn, err := Open(p.Config, tp)
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return sqlDB.Close()
		},
	})

	p.Log.Info("database connected",
		zap.String("type", p.Config.Type),
		zap.String("name", p.Config.Name),
	)
	return conn, nil
}

// Open connects using cfg. tp may be nil.
func Open(cfg Config, tp trace.TracerProvider) (*gorm.DB, error) {
	dialector, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.NewGormLogger(logger.DefaultGormLoggerConfig()),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := Instrument(conn, cfg.Name, tp); err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxIdleConn > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConn)
	}
	if cfg.MaxOpenConn > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConn)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	return conn, nil
}

// Instrument attaches OpenTelemetry spans and Prometheus pool stats.
func Instrument(conn *gorm.DB, name string, tp trace.TracerProvider) error {
	opts := []otelgorm.Option{
		otelgorm.WithDBName(name),
		otelgorm.WithoutQueryVariables(),
		otelgorm.WithoutMetrics(),
	}
	if tp != nil {
		opts = append(opts, otelgorm.WithTracerProvider(tp))
	}
	if err := conn.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("register tracing plugin: %w", err)
	}

	if err := conn.Use(gormprometheus.New(gormprometheus.Config{
		DBName:          name,
		RefreshInterval: 15,
		StartServer:     false,
	})); err != nil {
		return fmt.Errorf("register metrics plugin: %w", err)
	}
	return nil
}
