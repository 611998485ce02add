package cachex

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryPutHas(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	ok, err := m.Has(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.Put(ctx, "k", time.Minute))

	ok, err = m.Has(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryEntriesExpire(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	clock := time.Now()
	m.now = func() time.Time { return clock }

	require.NoError(t, m.Put(ctx, "k", time.Minute))

	clock = clock.Add(59 * time.Second)
	ok, err := m.Has(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	clock = clock.Add(2 * time.Second)
	ok, err = m.Has(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	// The expired entry was dropped on read.
	require.Zero(t, m.Len())
}

func TestMemoryNonPositiveTTLIsNoop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Put(ctx, "k", 0))
	require.NoError(t, m.Put(ctx, "k2", -time.Second))

	require.Zero(t, m.Len())
}

func TestMemorySweep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	clock := time.Now()
	m.now = func() time.Time { return clock }

	require.NoError(t, m.Put(ctx, "a", time.Second))
	require.NoError(t, m.Put(ctx, "b", time.Hour))

	clock = clock.Add(2 * time.Second)
	require.Equal(t, 1, m.Sweep())
	require.Equal(t, 1, m.Len())

	ok, err := m.Has(ctx, "b")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryConcurrentAccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = m.Put(ctx, "shared", time.Minute)
				_, _ = m.Has(ctx, "shared")
				m.Sweep()
			}
		}()
	}
	wg.Wait()

	ok, err := m.Has(ctx, "shared")
	require.NoError(t, err)
	require.True(t, ok)
}
