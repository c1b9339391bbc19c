// Package store selects and opens the session.Store described by
// configuration.
package store

import (
	"context"
	"fmt"

	"github.com/marmos91/kerbgate/pkg/session"
	"github.com/marmos91/kerbgate/pkg/session/store/badger"
	"github.com/marmos91/kerbgate/pkg/session/store/memory"
	"github.com/marmos91/kerbgate/pkg/session/store/redis"
)

// Store types.
const (
	TypeMemory = "memory"
	TypeRedis  = "redis"
	TypeBadger = "badger"
)

// Config selects a session store backend.
type Config struct {
	// Type is the backend: "memory", "redis" or "badger".
	// Default: "memory"
	Type string `mapstructure:"type" validate:"omitempty,oneof=memory redis badger" yaml:"type" json:"type,omitempty"`

	// Redis configures the redis backend (Type == "redis").
	Redis redis.Config `mapstructure:"redis" yaml:"redis" json:"redis,omitempty"`

	// Badger configures the badger backend (Type == "badger").
	Badger badger.Config `mapstructure:"badger" yaml:"badger" json:"badger,omitempty"`
}

// New opens the store selected by cfg.
func New(ctx context.Context, cfg Config) (session.Store, error) {
	switch cfg.Type {
	case "", TypeMemory:
		return memory.New(), nil
	case TypeRedis:
		return redis.NewFromConfig(ctx, cfg.Redis)
	case TypeBadger:
		return badger.Open(cfg.Badger)
	default:
		return nil, fmt.Errorf("unknown session store type %q", cfg.Type)
	}
}
