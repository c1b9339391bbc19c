// Package storetest provides a conformance suite for session.Store
// implementations.
package storetest

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/marmos91/kerbgate/pkg/auth"
	"github.com/marmos91/kerbgate/pkg/session"
)

// StoreFactory creates a fresh Store for each test. It should register
// teardown with t.Cleanup.
type StoreFactory func(t *testing.T) session.Store

// RunConformanceSuite runs every store test against factory. Each test gets a
// fresh store instance.
func RunConformanceSuite(t *testing.T, factory StoreFactory) {
	t.Helper()

	t.Run("PutGet", func(t *testing.T) { testPutGet(t, factory(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, factory(t)) })
	t.Run("Replace", func(t *testing.T) { testReplace(t, factory(t)) })
	t.Run("Renew", func(t *testing.T) { testRenew(t, factory(t)) })
	t.Run("RenewAfterDelete", func(t *testing.T) { testRenewAfterDelete(t, factory(t)) })
	t.Run("DeleteIdempotent", func(t *testing.T) { testDelete(t, factory(t)) })
	t.Run("ExpiredNotReturned", func(t *testing.T) { testExpired(t, factory(t)) })
	t.Run("Isolation", func(t *testing.T) { testIsolation(t, factory(t)) })
	t.Run("Concurrent", func(t *testing.T) { testConcurrent(t, factory(t)) })
	t.Run("Healthcheck", func(t *testing.T) { testHealthcheck(t, factory(t)) })
}

// NewCredential returns a credential for principal valid for ttl from now.
func NewCredential(principal string, ttl time.Duration) *session.Credential {
	id := &auth.Identity{
		Principal:          principal,
		AuthenticationType: "Negotiate",
		Claims: []auth.Claim{
			{Type: auth.ClaimName, Value: principal},
			{Type: auth.ClaimGroupSID, Value: "S-1-5-32-544"},
		},
	}
	now := time.Now().Truncate(time.Second)
	return session.NewCredential(id, now, ttl, 2*ttl)
}

func testPutGet(t *testing.T, s session.Store) {
	ctx := t.Context()
	c := NewCredential("alice@EXAMPLE.COM", time.Hour)

	if err := s.Put(ctx, c); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	got, err := s.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if err := equal(c, got); err != nil {
		t.Fatal(err)
	}
}

func testGetMissing(t *testing.T, s session.Store) {
	_, err := s.Get(t.Context(), "00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func testReplace(t *testing.T, s session.Store) {
	ctx := t.Context()
	c := NewCredential("alice@EXAMPLE.COM", time.Hour)
	if err := s.Put(ctx, c); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	renewed := c.Clone()
	renewed.ExpiresAt = c.ExpiresAt.Add(30 * time.Minute)
	if err := s.Put(ctx, renewed); err != nil {
		t.Fatalf("Put(renewed) failed: %v", err)
	}

	got, err := s.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !got.ExpiresAt.Equal(renewed.ExpiresAt) {
		t.Fatalf("ExpiresAt = %v, want %v", got.ExpiresAt, renewed.ExpiresAt)
	}
}

func testRenew(t *testing.T, s session.Store) {
	ctx := t.Context()
	c := NewCredential("alice@EXAMPLE.COM", time.Hour)
	if err := s.Put(ctx, c); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	renewed := c.Clone()
	renewed.ExpiresAt = c.ExpiresAt.Add(30 * time.Minute)
	if err := s.Renew(ctx, renewed); err != nil {
		t.Fatalf("Renew() failed: %v", err)
	}

	got, err := s.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !got.ExpiresAt.Equal(renewed.ExpiresAt) {
		t.Fatalf("ExpiresAt = %v, want %v", got.ExpiresAt, renewed.ExpiresAt)
	}
}

func testRenewAfterDelete(t *testing.T, s session.Store) {
	ctx := t.Context()
	c := NewCredential("alice@EXAMPLE.COM", time.Hour)
	if err := s.Put(ctx, c); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := s.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	renewed := c.Clone()
	renewed.ExpiresAt = c.ExpiresAt.Add(30 * time.Minute)
	if err := s.Renew(ctx, renewed); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("Renew(deleted) error = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(ctx, c.ID); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("Get() after Renew(deleted) error = %v, want ErrNotFound", err)
	}

	// A record that never existed is not created either.
	fresh := NewCredential("bob@EXAMPLE.COM", time.Hour)
	if err := s.Renew(ctx, fresh); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("Renew(unknown) error = %v, want ErrNotFound", err)
	}
}

func testDelete(t *testing.T, s session.Store) {
	ctx := t.Context()
	c := NewCredential("alice@EXAMPLE.COM", time.Hour)
	if err := s.Put(ctx, c); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := s.Delete(ctx, c.ID); err != nil {
			t.Fatalf("Delete() #%d failed: %v", i+1, err)
		}
	}
	if _, err := s.Get(ctx, c.ID); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("Get(deleted) error = %v, want ErrNotFound", err)
	}
}

func testExpired(t *testing.T, s session.Store) {
	ctx := t.Context()
	c := NewCredential("alice@EXAMPLE.COM", time.Hour)
	c.ExpiresAt = time.Now().Add(-time.Minute)

	if err := s.Put(ctx, c); err != nil {
		t.Fatalf("Put(expired) failed: %v", err)
	}
	if _, err := s.Get(ctx, c.ID); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("Get(expired) error = %v, want ErrNotFound", err)
	}
}

func testIsolation(t *testing.T, s session.Store) {
	ctx := t.Context()
	alice := NewCredential("alice@EXAMPLE.COM", time.Hour)
	bob := NewCredential("bob@EXAMPLE.COM", time.Hour)

	for _, c := range []*session.Credential{alice, bob} {
		if err := s.Put(ctx, c); err != nil {
			t.Fatalf("Put(%s) failed: %v", c.Principal, err)
		}
	}
	if err := s.Delete(ctx, alice.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	got, err := s.Get(ctx, bob.ID)
	if err != nil {
		t.Fatalf("Get(bob) failed: %v", err)
	}
	if got.Principal != bob.Principal {
		t.Fatalf("Principal = %q, want %q", got.Principal, bob.Principal)
	}

	// Mutating a returned record must not affect the stored one.
	got.Principal = "mallory@EXAMPLE.COM"
	again, err := s.Get(ctx, bob.ID)
	if err != nil {
		t.Fatalf("Get(bob) failed: %v", err)
	}
	if again.Principal != bob.Principal {
		t.Fatalf("stored record was mutated through Get")
	}
}

func testConcurrent(t *testing.T, s session.Store) {
	ctx := t.Context()
	c := NewCredential("alice@EXAMPLE.COM", time.Hour)
	if err := s.Put(ctx, c); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cp := c.Clone()
			cp.ExpiresAt = c.ExpiresAt.Add(time.Duration(i) * time.Second)
			if err := s.Put(ctx, cp); err != nil {
				errs <- err
			}
			if _, err := s.Get(ctx, c.ID); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent access failed: %v", err)
	}
}

func testHealthcheck(t *testing.T, s session.Store) {
	if err := s.Healthcheck(t.Context()); err != nil {
		t.Fatalf("Healthcheck() failed: %v", err)
	}
}

func equal(want, got *session.Credential) error {
	switch {
	case got.ID != want.ID:
		return fmt.Errorf("ID = %q, want %q", got.ID, want.ID)
	case got.Principal != want.Principal:
		return fmt.Errorf("Principal = %q, want %q", got.Principal, want.Principal)
	case got.AuthenticationType != want.AuthenticationType:
		return fmt.Errorf("AuthenticationType = %q, want %q", got.AuthenticationType, want.AuthenticationType)
	case !got.ExpiresAt.Equal(want.ExpiresAt):
		return fmt.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, want.ExpiresAt)
	case !got.AbsoluteExpiry.Equal(want.AbsoluteExpiry):
		return fmt.Errorf("AbsoluteExpiry = %v, want %v", got.AbsoluteExpiry, want.AbsoluteExpiry)
	case len(got.Claims) != len(want.Claims):
		return fmt.Errorf("len(Claims) = %d, want %d", len(got.Claims), len(want.Claims))
	}
	for i := range want.Claims {
		if got.Claims[i] != want.Claims[i] {
			return fmt.Errorf("Claims[%d] = %+v, want %+v", i, got.Claims[i], want.Claims[i])
		}
	}
	return nil
}
