package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/kerbgate/pkg/api"
	"github.com/marmos91/kerbgate/pkg/session/store"
)

// Config represents the kerbgate configuration.
//
// This structure captures every static aspect of the gateway:
//   - Logging and telemetry
//   - HTTP server settings
//   - Kerberos keytab and validation settings
//   - Session cookie and session store settings
//   - Access-denied behavior of the authorization gate
//
// Configuration sources (in order of precedence):
//  1. Environment variables (KERBGATE_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Server configures the HTTP server exposing the authentication endpoints
	Server api.Config `mapstructure:"server" yaml:"server"`

	// Kerberos configures keytab loading and ticket validation.
	// Environment variable overrides:
	//   KERBGATE_KERBEROS_KEYTAB overrides KeytabPath
	//   KERBGATE_KERBEROS_PRINCIPAL overrides ServicePrincipal
	Kerberos KerberosConfig `mapstructure:"kerberos" yaml:"kerberos"`

	// Session configures the cookie session issued after a Kerberos login
	Session SessionConfig `mapstructure:"session" yaml:"session"`

	// AccessDenied selects what the authorization gate does with
	// unauthenticated requests
	AccessDenied AccessDeniedConfig `mapstructure:"access_denied" yaml:"access_denied"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
// When enabled, trace data is exported to an OTLP-compatible collector
// (e.g., Jaeger, Tempo, or any OTLP receiver).
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	// Default: false (opt-in for telemetry)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317" (standard OTLP gRPC port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use insecure (non-TLS) connection
	// Default: true (for local development)
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	// Default: 1.0 (sample all)
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled
	// Default: false (opt-in for profiling)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint (URL)
	// Default: "http://localhost:4040" (standard Pyroscope port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	// Valid values: cpu, alloc_objects, alloc_space, inuse_objects, inuse_space,
	//               goroutines, mutex_count, mutex_duration, block_count, block_duration
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP server are enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// KerberosConfig configures SPNEGO/Kerberos authentication.
//
// The server needs a keytab containing the key of the HTTP service
// principal ("HTTP/host.example.com@EXAMPLE.COM"). The keytab is read once,
// on first use, and never reloaded.
type KerberosConfig struct {
	// KeytabPath is the path to the Kerberos keytab file.
	// Override: KERBGATE_KERBEROS_KEYTAB, then KRB5_KTNAME
	// Default: /etc/krb5.keytab
	KeytabPath string `mapstructure:"keytab_path" yaml:"keytab_path"`

	// ServicePrincipal restricts accepted tickets to this SPN.
	// Empty accepts any principal present in the keytab.
	// Override: KERBGATE_KERBEROS_PRINCIPAL
	ServicePrincipal string `mapstructure:"service_principal" yaml:"service_principal"`

	// MaxClockSkew is the maximum allowed clock difference between client and server.
	// Default: 5m
	MaxClockSkew time.Duration `mapstructure:"max_clock_skew" validate:"gte=0" yaml:"max_clock_skew"`

	// DecodePAC exposes Windows group SIDs from the ticket PAC as claims.
	DecodePAC bool `mapstructure:"decode_pac" yaml:"decode_pac"`

	// RequireHostAddr rejects tickets whose client addresses do not
	// include the request's remote address.
	RequireHostAddr bool `mapstructure:"require_host_addr" yaml:"require_host_addr"`

	// AutoSendChallenge adds "WWW-Authenticate: Negotiate" to challenged
	// responses. Default: true
	AutoSendChallenge *bool `mapstructure:"auto_send_challenge" yaml:"auto_send_challenge"`
}

// AutoChallenge reports the effective AutoSendChallenge value.
func (c *KerberosConfig) AutoChallenge() bool {
	return c.AutoSendChallenge == nil || *c.AutoSendChallenge
}

// SessionConfig configures the cookie session that follows a Kerberos login.
type SessionConfig struct {
	// CookieName is the session cookie name
	// Default: "kerbgate_session"
	CookieName string `mapstructure:"cookie_name" yaml:"cookie_name"`

	// Secret is the HMAC key sealing session cookies (min 32 characters).
	// When empty, an ephemeral secret is generated at startup and sessions
	// do not survive a restart.
	// Override: KERBGATE_SESSION_SECRET
	Secret string `mapstructure:"secret" yaml:"secret,omitempty"`

	// SlidingWindow is how long a session stays valid after its last use
	// Default: 8h
	SlidingWindow time.Duration `mapstructure:"sliding_window" validate:"gte=0" yaml:"sliding_window"`

	// MaxLifetime caps the total age of a session regardless of activity
	// Default: 24h
	MaxLifetime time.Duration `mapstructure:"max_lifetime" validate:"gte=0" yaml:"max_lifetime"`

	// SecureCookie sets the Secure attribute on the session cookie.
	// Default: true
	SecureCookie *bool `mapstructure:"secure_cookie" yaml:"secure_cookie"`

	// Store selects the server-side session record backend
	Store store.Config `mapstructure:"store" yaml:"store"`

	// AllowNegotiateFallback lets the authorization gate accept a
	// Negotiate header when no session cookie is present. Such requests
	// are authenticated but never receive a session.
	AllowNegotiateFallback bool `mapstructure:"allow_negotiate_fallback" yaml:"allow_negotiate_fallback"`
}

// Secure reports the effective SecureCookie value.
func (c *SessionConfig) Secure() bool {
	return c.SecureCookie == nil || *c.SecureCookie
}

// AccessDeniedConfig selects the response for unauthenticated requests to
// protected endpoints.
type AccessDeniedConfig struct {
	// Mode is "forbidden" (403 problem response) or "redirect"
	// Default: "forbidden"
	Mode string `mapstructure:"mode" validate:"omitempty,oneof=forbidden redirect" yaml:"mode"`

	// RedirectURL is the login page used when Mode is "redirect"
	RedirectURL string `mapstructure:"redirect_url" yaml:"redirect_url,omitempty"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (KERBGATE_*)
//  2. Configuration file
//  3. Default values
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
// It checks if the config file exists and provides user-friendly instructions if not.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  kerbgate config init\n\n"+
				"Or specify a custom config file:\n"+
				"  kerbgate <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  kerbgate config init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file may hold the session secret and a redis password.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Example: KERBGATE_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("KERBGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Secrets are usually injected through the environment only, so bind
	// them even when the file does not mention them.
	_ = v.BindEnv("session.secret")
	_ = v.BindEnv("session.store.redis.password")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// durationDecodeHook returns a mapstructure decode hook that converts strings
// to time.Duration. This enables config files to use human-readable durations
// like "30s", "5m", "8h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Assume nanoseconds for raw integers
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "kerbgate")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "kerbgate")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
