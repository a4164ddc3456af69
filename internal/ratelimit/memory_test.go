package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_OnePerWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := NewMemoryLimiter(2*time.Minute, clock)
	ctx := context.Background()

	ok, retry, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, retry)

	clock.Advance(30 * time.Second)
	ok, retry, err = l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.InDelta(t, float64(90*time.Second), float64(retry), float64(time.Second))

	// Rejections do not push the window out
	clock.Advance(91 * time.Second)
	ok, _, err = l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLimiter_ClientsAreIndependent(t *testing.T) {
	l := NewMemoryLimiter(2*time.Minute, clockwork.NewFakeClock())
	ctx := context.Background()

	ok, _, _ := l.Allow(ctx, "a")
	assert.True(t, ok)
	ok, _, _ = l.Allow(ctx, "b")
	assert.True(t, ok)
	ok, _, _ = l.Allow(ctx, "a")
	assert.False(t, ok)
}

func TestMemoryLimiter_Sweep(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := NewMemoryLimiter(time.Minute, clock)
	ctx := context.Background()

	_, _, _ = l.Allow(ctx, "old")
	clock.Advance(45 * time.Second)
	_, _, _ = l.Allow(ctx, "fresh")
	clock.Advance(30 * time.Second)

	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 1, l.Len())

	// A swept client starts with a full bucket
	ok, _, _ := l.Allow(ctx, "old")
	assert.True(t, ok)
}

func TestMemoryLimiter_RunStopsOnCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := NewMemoryLimiter(time.Minute, clock)
	_, _, _ = l.Allow(context.Background(), "idle")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(61 * time.Second)
	assert.Eventually(t, func() bool { return l.Len() == 0 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestUnlimited(t *testing.T) {
	for i := 0; i < 3; i++ {
		ok, _, err := Unlimited{}.Allow(context.Background(), "x")
		require.NoError(t, err)
		assert.True(t, ok)
	}
}
