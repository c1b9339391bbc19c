package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configHeader = `# kerbgate Configuration File
#
# Kerberos (SPNEGO/Negotiate) authentication gateway with cookie sessions.
#
# Every value can be overridden through the environment using the KERBGATE_
# prefix and underscores for nesting, e.g.:
#   KERBGATE_LOGGING_LEVEL=DEBUG
#   KERBGATE_KERBEROS_KEYTAB=/etc/kerbgate/http.keytab
#   KERBGATE_SESSION_SECRET=<at least 32 characters>
#
# Durations use Go syntax: 30s, 5m, 8h.

`

// InitConfig writes a default configuration file to the default location.
// It returns the path of the written file. An existing file is only
// replaced when force is true.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a default configuration file to path, with a
// freshly generated session secret.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
		}
	}

	cfg := GetDefaultConfig()
	secret, err := GenerateSecret()
	if err != nil {
		return err
	}
	cfg.Session.Secret = secret

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content := append([]byte(configHeader), data...)
	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateSecret returns a random 64-character hex string suitable for
// session.secret.
func GenerateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
