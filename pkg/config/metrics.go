package config

import (
	"github.com/marmos91/kerbgate/internal/logger"
	"github.com/marmos91/kerbgate/pkg/metrics"
)

// MetricsResult holds what InitializeMetrics created. Every field is nil
// when metrics are disabled; AuthMetrics is safe to use nil.
type MetricsResult struct {
	Auth   *metrics.AuthMetrics
	Server *metrics.Server
}

// InitializeMetrics creates the Prometheus registry, the authentication
// collectors and the metrics HTTP server when cfg.Metrics.Enabled is set.
func InitializeMetrics(cfg *Config) MetricsResult {
	if !cfg.Metrics.Enabled {
		logger.Debug("Metrics disabled")
		return MetricsResult{}
	}

	reg := metrics.InitRegistry()
	return MetricsResult{
		Auth:   metrics.NewAuthMetrics(reg),
		Server: metrics.NewServer(cfg.Metrics.Port, reg),
	}
}
