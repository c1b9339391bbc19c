// Package badger provides a session.Store backed by an embedded BadgerDB.
//
// Records survive restarts of a single instance. Keys are "s:<id>" with a
// JSON value and a Badger TTL ending at the credential's ExpiresAt.
// An empty path opens an in-memory database.
package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/kerbgate/internal/logger"
	"github.com/marmos91/kerbgate/pkg/session"
)

const keyPrefix = "s:"

// Config holds database settings.
type Config struct {
	// Path is the database directory. Empty means in-memory.
	Path string `mapstructure:"path" yaml:"path" json:"path,omitempty"`
}

// Store is a BadgerDB-backed session.Store.
//
// Thread Safety: safe for concurrent use.
type Store struct {
	db *badgerdb.DB
}

// Open opens or creates the database described by cfg.
func Open(cfg Config) (*Store, error) {
	opts := badgerdb.DefaultOptions(cfg.Path).WithLogger(badgerLogger{})
	if cfg.Path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger session store: %w", err)
	}
	return &Store{db: db}, nil
}

func keySession(id string) []byte {
	return []byte(keyPrefix + id)
}

// Put writes c with a TTL ending at c.ExpiresAt. A record that has already
// expired is deleted instead.
func (s *Store) Put(ctx context.Context, c *session.Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ttl := time.Until(c.ExpiresAt)
	if ttl <= 0 {
		return s.Delete(ctx, c.ID)
	}

	data, err := session.EncodeRecord(c)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.SetEntry(badgerdb.NewEntry(keySession(c.ID), data).WithTTL(ttl))
	})
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}
	return nil
}

// Renew rewrites the record inside a transaction that first reads it. A
// concurrent Delete either wins outright (ErrNotFound) or makes the commit
// conflict.
func (s *Store) Renew(ctx context.Context, c *session.Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ttl := time.Until(c.ExpiresAt)
	if ttl <= 0 {
		return session.ErrNotFound
	}

	data, err := session.EncodeRecord(c)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(keySession(c.ID)); err != nil {
			if errors.Is(err, badgerdb.ErrKeyNotFound) {
				return session.ErrNotFound
			}
			return err
		}
		return txn.SetEntry(badgerdb.NewEntry(keySession(c.ID), data).WithTTL(ttl))
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrNotFound):
		return err
	default:
		return fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}
}

// Get returns the record for id.
func (s *Store) Get(ctx context.Context, id string) (*session.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var c *session.Credential
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(keySession(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, err := session.DecodeRecord(val)
			if err != nil {
				return err
			}
			c = decoded
			return nil
		})
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	// Badger TTLs have second granularity.
	if c.Expired(time.Now()) {
		return nil, session.ErrNotFound
	}
	return c, nil
}

// Delete removes the record for id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(keySession(id))
	})
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}
	return nil
}

// Healthcheck verifies a read transaction can be started.
func (s *Store) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return fmt.Errorf("%w: database is closed", session.ErrStoreUnavailable)
	}
	if err := s.db.View(func(*badgerdb.Txn) error { return nil }); err != nil {
		return fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// badgerLogger routes Badger's internal logging through the process logger.
// Info and debug output is dropped to debug level.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any) {
	logger.Error(fmt.Sprintf("badger: "+format, args...))
}

func (badgerLogger) Warningf(format string, args ...any) {
	logger.Warn(fmt.Sprintf("badger: "+format, args...))
}

func (badgerLogger) Infof(format string, args ...any) {
	logger.Debug(fmt.Sprintf("badger: "+format, args...))
}

func (badgerLogger) Debugf(format string, args ...any) {
	logger.Debug(fmt.Sprintf("badger: "+format, args...))
}

var _ session.Store = (*Store)(nil)
