package badger_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/kerbgate/pkg/session"
	"github.com/marmos91/kerbgate/pkg/session/store/badger"
	"github.com/marmos91/kerbgate/pkg/session/storetest"
)

func TestConformance(t *testing.T) {
	storetest.RunConformanceSuite(t, func(t *testing.T) session.Store {
		s, err := badger.Open(badger.Config{})
		if err != nil {
			t.Fatalf("Open() failed: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sessions")
	ctx := context.Background()
	c := storetest.NewCredential("alice@EXAMPLE.COM", time.Hour)

	s, err := badger.Open(badger.Config{Path: dir})
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, c))
	require.NoError(t, s.Close())

	s, err = badger.Open(badger.Config{Path: dir})
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Principal, got.Principal)
}

func TestHealthcheckAfterClose(t *testing.T) {
	s, err := badger.Open(badger.Config{})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Healthcheck(context.Background()), session.ErrStoreUnavailable)
}
