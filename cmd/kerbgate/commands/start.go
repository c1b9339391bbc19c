package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/kerbgate/internal/logger"
	"github.com/marmos91/kerbgate/internal/telemetry"
	"github.com/marmos91/kerbgate/pkg/api"
	"github.com/marmos91/kerbgate/pkg/auth/kerberos"
	"github.com/marmos91/kerbgate/pkg/auth/negotiate"
	"github.com/marmos91/kerbgate/pkg/bridge"
	"github.com/marmos91/kerbgate/pkg/config"
	"github.com/marmos91/kerbgate/pkg/session"
	"github.com/marmos91/kerbgate/pkg/session/store"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the kerbgate server",
	Long: `Start the kerbgate HTTP server with the specified configuration.

The server runs in the foreground until it receives SIGINT or SIGTERM, then
drains in-flight requests for up to shutdown_timeout.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/kerbgate/config.yaml.

Examples:
  # Start with the default config
  kerbgate start

  # Start with custom config file
  kerbgate start --config /etc/kerbgate/config.yaml

  # Start with environment variable overrides
  KERBGATE_LOGGING_LEVEL=DEBUG KERBGATE_KERBEROS_KEYTAB=/etc/http.keytab kerbgate start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "kerbgate",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "kerbgate",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	fmt.Println("kerbgate - Kerberos Negotiate authentication gateway")
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	}

	metricsResult := config.InitializeMetrics(cfg)

	// The keytab is read lazily on the first Negotiate attempt or readiness
	// probe, never at startup.
	keytabPath := kerberos.ResolveKeytabPath(cfg.Kerberos.KeytabPath)
	keytabs := kerberos.NewKeytabStore(keytabPath, kerberos.WithMetrics(metricsResult.Auth))
	validator := kerberos.NewValidator(kerberos.ValidatorConfig{
		ServicePrincipal: kerberos.ResolveServicePrincipal(cfg.Kerberos.ServicePrincipal),
		MaxClockSkew:     cfg.Kerberos.MaxClockSkew,
		DecodePAC:        cfg.Kerberos.DecodePAC,
		RequireHostAddr:  cfg.Kerberos.RequireHostAddr,
	})
	negotiator := negotiate.New(keytabs, validator,
		negotiate.WithAutoChallenge(cfg.Kerberos.AutoChallenge()),
		negotiate.WithMetrics(metricsResult.Auth),
	)
	logger.Info("Kerberos configured",
		"keytab", keytabPath,
		"service_principal", validator.Config().ServicePrincipal,
		"max_clock_skew", cfg.Kerberos.MaxClockSkew,
		"auto_send_challenge", cfg.Kerberos.AutoChallenge(),
	)

	sealer, err := newSealer(cfg.Session.Secret)
	if err != nil {
		return err
	}

	sessionStore, err := store.New(ctx, cfg.Session.Store)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer func() {
		if err := sessionStore.Close(); err != nil {
			logger.Error("session store close error", logger.Err(err))
		}
	}()

	sessions := session.NewManager(session.Config{
		CookieName:    cfg.Session.CookieName,
		SlidingWindow: cfg.Session.SlidingWindow,
		MaxLifetime:   cfg.Session.MaxLifetime,
		SecureCookie:  cfg.Session.Secure(),
	}, sealer, sessionStore, session.WithManagerMetrics(metricsResult.Auth))
	logger.Info("Sessions configured",
		"store", cfg.Session.Store.Type,
		"sliding_window", cfg.Session.SlidingWindow,
		"max_lifetime", cfg.Session.MaxLifetime,
		"secure_cookie", cfg.Session.Secure(),
	)

	denier, err := bridge.NewDenier(cfg.AccessDenied.Mode, cfg.AccessDenied.RedirectURL)
	if err != nil {
		return err
	}
	gate := bridge.New(negotiator, sessions,
		bridge.WithNegotiateFallback(cfg.Session.AllowNegotiateFallback),
		bridge.WithDenier(denier),
	)

	apiServer := api.NewServer(cfg.Server, api.Services{
		Bridge:   gate,
		Keytabs:  keytabs,
		Sessions: sessionStore,
	})

	serverDone := make(chan error, 2)
	go func() {
		serverDone <- apiServer.Start(ctx)
	}()

	if metricsResult.Server != nil {
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
		go func() {
			serverDone <- metricsResult.Server.Start(ctx)
		}()
	} else {
		logger.Info("Metrics collection disabled")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown", "timeout", cfg.ShutdownTimeout)

		// Stop drains with the configured timeout; the Start goroutines then
		// observe the cancelled context and return.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		stopErr := apiServer.Stop(shutdownCtx)
		if metricsResult.Server != nil {
			_ = metricsResult.Server.Stop(shutdownCtx)
		}
		cancel()

		if stopErr != nil {
			logger.Error("Server shutdown error", logger.Err(stopErr))
			return stopErr
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		cancel()
		if err != nil {
			logger.Error("Server error", logger.Err(err))
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}

// newSealer builds the session sealer. Without a configured secret a random
// one is generated, so sessions do not survive a restart.
func newSealer(secret string) (*session.Sealer, error) {
	if secret == "" {
		generated, err := config.GenerateSecret()
		if err != nil {
			return nil, err
		}
		secret = generated
		logger.Warn("No session secret configured, using an ephemeral one; sessions will not survive a restart",
			"hint", "set session.secret or KERBGATE_SESSION_SECRET")
	}

	sealer, err := session.NewSealer(secret)
	if err != nil {
		return nil, fmt.Errorf("invalid session secret: %w", err)
	}
	return sealer, nil
}
