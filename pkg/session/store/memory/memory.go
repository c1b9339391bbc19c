// Package memory provides an in-process session.Store.
//
// Records are lost on restart and are not shared between replicas. Use the
// redis or badger stores for anything beyond a single instance.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/marmos91/kerbgate/pkg/session"
)

// sweepEvery is the number of Put calls between expired-record sweeps.
const sweepEvery = 64

// Store is a map-backed session.Store.
//
// Thread Safety: safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records map[string]*session.Credential
	puts    int
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		records: make(map[string]*session.Credential),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores a copy of c.
func (s *Store) Put(ctx context.Context, c *session.Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[c.ID] = c.Clone()
	s.puts++
	if s.puts%sweepEvery == 0 {
		s.sweepLocked()
	}
	return nil
}

// Renew replaces the record for c.ID if it is still present and unexpired.
func (s *Store) Renew(ctx context.Context, c *session.Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.records[c.ID]
	if !ok || cur.Expired(s.now()) {
		return session.ErrNotFound
	}
	s.records[c.ID] = c.Clone()
	return nil
}

// Get returns a copy of the record for id.
func (s *Store) Get(ctx context.Context, id string) (*session.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	c, ok := s.records[id]
	s.mu.RUnlock()

	if !ok || c.Expired(s.now()) {
		return nil, session.ErrNotFound
	}
	return c.Clone(), nil
}

// Delete removes the record for id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.records, id)
	s.mu.Unlock()
	return nil
}

// Len returns the number of records held, including expired ones not yet
// swept.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Healthcheck always succeeds unless ctx is done.
func (s *Store) Healthcheck(ctx context.Context) error {
	return ctx.Err()
}

// Close drops every record.
func (s *Store) Close() error {
	s.mu.Lock()
	s.records = make(map[string]*session.Credential)
	s.mu.Unlock()
	return nil
}

func (s *Store) sweepLocked() {
	now := s.now()
	for id, c := range s.records {
		if c.Expired(now) {
			delete(s.records, id)
		}
	}
}

var _ session.Store = (*Store)(nil)
