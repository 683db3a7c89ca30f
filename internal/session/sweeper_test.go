package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func seedStore(t *testing.T, clock *time.Time, keys ...string) Store {
	t.Helper()
	s, err := NewStore(StoreTypeMemory, WithClock(func() time.Time { return *clock }))
	require.NoError(t, err)
	for _, k := range keys {
		require.NoError(t, s.Create(context.Background(), NewState(k)))
	}
	return s
}

func TestSweeper_RemovesIdle(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	clock := start
	s := seedStore(t, &clock, "old", "fresh")

	clock = start.Add(50 * time.Minute)
	fresh, err := s.Get(ctx, "fresh")
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, fresh))

	sw := NewSweeper(s, nil, time.Hour, nil)
	sw.now = func() time.Time { return start.Add(90 * time.Minute) }

	n, err := sw.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, keys)
}

func TestSweeper_SkipsLockedKeys(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	s := seedStore(t, &clock, "busy", "idle")

	locker := NewLocker()
	unlock, err := locker.Lock(ctx, "busy")
	require.NoError(t, err)
	defer unlock()

	sw := NewSweeper(s, locker, time.Minute, nil)
	sw.now = func() time.Time { return clock.Add(time.Hour) }

	n, err := sw.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.Get(ctx, "busy")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestSweeper_DisabledTTL(t *testing.T) {
	clock := time.Now().Add(-48 * time.Hour)
	s := seedStore(t, &clock, "a")

	n, err := NewSweeper(s, nil, 0, nil).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSweeper_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := time.Now()
	sw := NewSweeper(seedStore(t, &clock), nil, time.Hour, nil)

	assert.Error(t, sw.Start("not a schedule"))
	require.NoError(t, sw.Start("* * * * *"))
	sw.Stop()
}
