package crontab

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawsitive-haven/assistant-api/internal/infrastructure/cache"
)

func TestSweepNow_RemovesExpiredCounters(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store, err := cache.NewMemoryCounterStore(4, 64, cache.WithMemoryClock(func() time.Time { return now }))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = store.Incr(ctx, "rl:minute:a", time.Minute)
	require.NoError(t, err)
	_, err = store.Incr(ctx, "rl:day:a", 24*time.Hour)
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)

	var swept int
	c := NewCrontab(store, "*/5 * * * *", func(n int) { swept += n }, zerolog.Nop())
	c.SweepNow()

	assert.Equal(t, 1, swept)
	assert.Equal(t, 1, store.Len())
}

func TestRun_StopsWithContext(t *testing.T) {
	store, err := cache.NewMemoryCounterStore(1, 8)
	require.NoError(t, err)
	c := NewCrontab(store, "*/5 * * * *", nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("crontab did not stop")
	}
}

func TestRun_InvalidSchedule(t *testing.T) {
	store, err := cache.NewMemoryCounterStore(1, 8)
	require.NoError(t, err)
	c := NewCrontab(store, "not a schedule", nil, zerolog.Nop())

	assert.Error(t, c.Run(context.Background()))
}
