package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/kerbgate/pkg/session"
	"github.com/marmos91/kerbgate/pkg/session/store/memory"
	"github.com/marmos91/kerbgate/pkg/session/storetest"
)

func TestConformance(t *testing.T) {
	storetest.RunConformanceSuite(t, func(t *testing.T) session.Store {
		s := memory.New()
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSweepDropsExpired(t *testing.T) {
	now := time.Now()
	s := memory.New(memory.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	stale := storetest.NewCredential("old@EXAMPLE.COM", time.Minute)
	require.NoError(t, s.Put(ctx, stale))

	now = now.Add(time.Hour)
	for i := 0; i < 63; i++ {
		require.NoError(t, s.Put(ctx, storetest.NewCredential("alice@EXAMPLE.COM", 2*time.Hour)))
	}

	assert.Equal(t, 63, s.Len())
	_, err := s.Get(ctx, stale.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestCancelledContext(t *testing.T) {
	s := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Put(ctx, storetest.NewCredential("alice@EXAMPLE.COM", time.Hour)), context.Canceled)
	_, err := s.Get(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Healthcheck(ctx), context.Canceled)
}
