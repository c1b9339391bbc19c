package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/kerbgate/internal/telemetry"
	"github.com/marmos91/kerbgate/pkg/auth/kerberos"
	"github.com/marmos91/kerbgate/pkg/bridge"
	"github.com/marmos91/kerbgate/pkg/session/store"
)

// minSecretLength matches the session sealer's requirement.
const minSecretLength = 32

var validate = validator.New()

// Validate checks cfg for structural and cross-field errors.
//
// Struct tags are checked first; the first failed tag is reported with its
// namespace and tag name ("Config.Logging.Level: failed on 'oneof'").
// Rules that span several fields are checked afterwards.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed on '%s'", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return errors.New("telemetry: endpoint is required when telemetry is enabled")
	}
	if cfg.Telemetry.Profiling.Enabled && cfg.Telemetry.Profiling.Endpoint == "" {
		return errors.New("telemetry.profiling: endpoint is required when profiling is enabled")
	}
	if cfg.Telemetry.Profiling.Enabled {
		if _, err := telemetry.ParseProfileTypes(cfg.Telemetry.Profiling.ProfileTypes); err != nil {
			return fmt.Errorf("telemetry.profiling: %w", err)
		}
	}

	if err := validateKerberos(&cfg.Kerberos); err != nil {
		return err
	}
	if err := validateSession(&cfg.Session); err != nil {
		return err
	}
	return validateAccessDenied(&cfg.AccessDenied)
}

func validateKerberos(cfg *KerberosConfig) error {
	if kerberos.ResolveKeytabPath(cfg.KeytabPath) == "" {
		return fmt.Errorf("kerberos.keytab_path: %w", kerberos.ErrKeytabPathNotConfigured)
	}
	return nil
}

func validateSession(cfg *SessionConfig) error {
	if cfg.Secret != "" && len(cfg.Secret) < minSecretLength {
		return fmt.Errorf("session.secret: must be at least %d characters", minSecretLength)
	}
	if cfg.SlidingWindow > 0 && cfg.MaxLifetime > 0 && cfg.SlidingWindow > cfg.MaxLifetime {
		return fmt.Errorf("session.sliding_window (%s) must not exceed session.max_lifetime (%s)",
			cfg.SlidingWindow, cfg.MaxLifetime)
	}

	switch cfg.Store.Type {
	case store.TypeRedis:
		if cfg.Store.Redis.Addr == "" {
			return errors.New("session.store.redis.addr: required when store type is redis")
		}
	case store.TypeBadger:
		if cfg.Store.Badger.Path == "" {
			return errors.New("session.store.badger.path: required when store type is badger")
		}
	}
	return nil
}

func validateAccessDenied(cfg *AccessDeniedConfig) error {
	if cfg.Mode != bridge.DenyRedirect {
		return nil
	}
	if cfg.RedirectURL == "" {
		return errors.New("access_denied.redirect_url: required when mode is redirect")
	}
	if _, err := url.Parse(cfg.RedirectURL); err != nil {
		return fmt.Errorf("access_denied.redirect_url: %w", err)
	}
	return nil
}
