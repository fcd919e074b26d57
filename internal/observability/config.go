package observability

import (
	"strings"

	"github.com/smallbiznis/catalogadmin/internal/config"
	"github.com/smallbiznis/catalogadmin/internal/observability/logger"
	"github.com/smallbiznis/catalogadmin/internal/observability/metrics"
	"github.com/smallbiznis/catalogadmin/internal/observability/tracing"
)

const defaultServiceName = "catalogadmin"

// Config is the service identity plus telemetry settings shared by the
// logger, tracer and meter providers.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	Export        bool
	Endpoint      string
	Protocol      string
	SamplingRatio float64
}

func LoadConfig(cfg config.Config) Config {
	name := cfg.AppName
	if name == "" {
		name = defaultServiceName
	}
	t := cfg.Telemetry
	return Config{
		ServiceName:   name,
		Environment:   cfg.Environment,
		Version:       cfg.AppVersion,
		LogLevel:      t.LogLevel,
		LogFormat:     t.LogFormat,
		Export:        t.OTLPEnabled,
		Endpoint:      t.OTLPEndpoint,
		Protocol:      t.OTLPProtocol,
		SamplingRatio: t.SamplingRatio,
	}
}

// Debug is true for debug logging or a development environment. It
// switches gin to debug mode and turns on verbose request logs.
func (c Config) Debug() bool {
	if strings.EqualFold(c.LogLevel, "debug") {
		return true
	}
	switch strings.ToLower(c.Environment) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

func (c Config) Logger() logger.Config {
	return logger.Config{
		ServiceName:         c.ServiceName,
		Environment:         c.Environment,
		Version:             c.Version,
		Level:               c.LogLevel,
		Format:              c.LogFormat,
		Debug:               c.Debug(),
		IncludeCaller:       true,
		IncludeStackOnError: c.Debug(),
	}
}

func (c Config) Tracing() tracing.Config {
	return tracing.Config{
		Enabled:          c.Export,
		ServiceName:      c.ServiceName,
		ServiceVersion:   c.Version,
		Environment:      c.Environment,
		ExporterEndpoint: c.Endpoint,
		ExporterProtocol: c.Protocol,
		SamplingRatio:    c.SamplingRatio,
	}
}

func (c Config) Metrics() metrics.Config {
	return metrics.Config{
		Enabled:          c.Export,
		ExporterEndpoint: c.Endpoint,
		ExporterProtocol: c.Protocol,
		ServiceName:      c.ServiceName,
		Environment:      c.Environment,
	}
}
