// Package redis provides a session.Store backed by Redis.
//
// Each record is a JSON value under "<prefix><id>" whose TTL tracks the
// credential's ExpiresAt, so Redis drops expired sessions on its own and all
// replicas sharing the instance see the same revocations.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/marmos91/kerbgate/pkg/session"
)

// DefaultPrefix namespaces session keys.
const DefaultPrefix = "kerbgate:session:"

// Config holds connection settings.
type Config struct {
	Addr     string `mapstructure:"addr" yaml:"addr" json:"addr,omitempty"`
	Password string `mapstructure:"password" yaml:"password" json:"password,omitempty"`
	DB       int    `mapstructure:"db" validate:"gte=0" yaml:"db" json:"db,omitempty"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix" json:"prefix,omitempty"`
}

// Store is a Redis-backed session.Store.
//
// Thread Safety: safe for concurrent use; go-redis pools connections.
type Store struct {
	client goredis.UniversalClient
	prefix string
	owned  bool
}

// New wraps an existing client. The caller keeps ownership of client.
func New(client goredis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// NewFromConfig dials Redis and verifies the connection.
func NewFromConfig(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis session store: addr is required")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	s := New(client, cfg.Prefix)
	s.owned = true

	if err := s.Healthcheck(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

// Put writes c with a TTL ending at c.ExpiresAt. A record that has already
// expired is deleted instead.
func (s *Store) Put(ctx context.Context, c *session.Credential) error {
	ttl := time.Until(c.ExpiresAt)
	if ttl <= 0 {
		return s.Delete(ctx, c.ID)
	}

	data, err := session.EncodeRecord(c)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(c.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}
	return nil
}

// Renew overwrites the record with SET XX, so a key deleted by a concurrent
// revocation is never recreated.
func (s *Store) Renew(ctx context.Context, c *session.Credential) error {
	ttl := time.Until(c.ExpiresAt)
	if ttl <= 0 {
		return session.ErrNotFound
	}

	data, err := session.EncodeRecord(c)
	if err != nil {
		return err
	}
	ok, err := s.client.SetXX(ctx, s.key(c.ID), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}
	if !ok {
		return session.ErrNotFound
	}
	return nil
}

// Get returns the record for id.
func (s *Store) Get(ctx context.Context, id string) (*session.Credential, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}

	c, err := session.DecodeRecord(data)
	if err != nil {
		return nil, err
	}
	if c.Expired(time.Now()) {
		return nil, session.ErrNotFound
	}
	return c, nil
}

// Delete removes the record for id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}
	return nil
}

// Healthcheck pings the server.
func (s *Store) Healthcheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}
	return nil
}

// Close closes the client if the store created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

var _ session.Store = (*Store)(nil)
