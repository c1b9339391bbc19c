package config

import (
	"strings"
	"time"

	"github.com/marmos91/kerbgate/pkg/bridge"
	"github.com/marmos91/kerbgate/pkg/session"
	"github.com/marmos91/kerbgate/pkg/session/store"
)

// DefaultKeytabPath is the system keytab used when none is configured.
const DefaultKeytabPath = "/etc/krb5.keytab"

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Tri-state booleans (*bool) default to true when unset
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	cfg.Server.ApplyDefaults()
	applyKerberosDefaults(&cfg.Kerberos)
	applySessionDefaults(&cfg.Session)
	applyAccessDeniedDefaults(&cfg.AccessDenied)
	applyMetricsDefaults(&cfg.Metrics)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	applyProfilingDefaults(&cfg.Profiling)
}

func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}

	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyKerberosDefaults(cfg *KerberosConfig) {
	if cfg.KeytabPath == "" {
		cfg.KeytabPath = DefaultKeytabPath
	}
	if cfg.MaxClockSkew == 0 {
		cfg.MaxClockSkew = 5 * time.Minute
	}
	if cfg.AutoSendChallenge == nil {
		cfg.AutoSendChallenge = boolPtr(true)
	}
}

func applySessionDefaults(cfg *SessionConfig) {
	if cfg.CookieName == "" {
		cfg.CookieName = session.DefaultCookieName
	}
	if cfg.SlidingWindow == 0 {
		cfg.SlidingWindow = session.DefaultSlidingWindow
	}
	if cfg.MaxLifetime == 0 {
		cfg.MaxLifetime = session.DefaultMaxLifetime
	}
	if cfg.SecureCookie == nil {
		cfg.SecureCookie = boolPtr(true)
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = store.TypeMemory
	}
}

func applyAccessDeniedDefaults(cfg *AccessDeniedConfig) {
	if cfg.Mode == "" {
		cfg.Mode = bridge.DenyForbidden
	}
}

// applyMetricsDefaults sets metrics defaults.
// Port defaults to 9090 only when metrics are enabled.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Running without a configuration file
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func boolPtr(b bool) *bool {
	return &b
}
