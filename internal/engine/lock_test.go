package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_Exclusive(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	ok, err := locker.Acquire(ctx, "p-1:2026-03-02", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = locker.Acquire(ctx, "p-1:2026-03-02", time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire on a held key must fail")

	// A different person never contends.
	ok, err = locker.Acquire(ctx, "p-2:2026-03-02", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, locker.Release(ctx, "p-1:2026-03-02"))
	ok, err = locker.Acquire(ctx, "p-1:2026-03-02", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLocker_TTLExpiry(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	ok, err := locker.Acquire(ctx, "p-1:2026-03-02", 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	// A crashed holder cannot block the person forever.
	ok, err = locker.Acquire(ctx, "p-1:2026-03-02", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}
