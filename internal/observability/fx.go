package observability

import (
	"github.com/smallbiznis/catalogadmin/internal/observability/logger"
	"github.com/smallbiznis/catalogadmin/internal/observability/metrics"
	"github.com/smallbiznis/catalogadmin/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		Config.Logger,
		Config.Tracing,
		Config.Metrics,
		logger.New,
		tracing.NewProvider,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
	),
	// The tracer provider registers itself globally; force construction
	// even when nothing else asks for it.
	fx.Invoke(func(tp *sdktrace.TracerProvider, cfg Config, log *zap.Logger) {
		log.Info("telemetry configured",
			zap.String("service", cfg.ServiceName),
			zap.Bool("export", cfg.Export),
			zap.String("protocol", cfg.Protocol),
		)
	}),
)
