package delayedstore_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/runkit/pkg/delayedstore"
)

func TestMemoryStore_PutAndPopDue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := delayedstore.NewMemoryStore()
	now := time.Now()

	require.NoError(t, store.Put(ctx, "a", []byte("payload-a"), now.Add(-time.Second)))
	require.NoError(t, store.Put(ctx, "b", []byte("payload-b"), now.Add(time.Hour)))

	item, err := store.PopDue(ctx, now)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "a", item.ID)
	assert.Equal(t, []byte("payload-a"), item.Payload)

	// "b" is not due yet.
	item, err = store.PopDue(ctx, now)
	require.NoError(t, err)
	assert.Nil(t, item)

	size, err := store.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)
}

func TestMemoryStore_DelayedVisibility(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := delayedstore.NewMemoryStore()
	now := time.Now()

	require.NoError(t, store.Put(ctx, "a", []byte("x"), now.Add(500*time.Millisecond)))

	item, err := store.PopDue(ctx, now)
	require.NoError(t, err)
	assert.Nil(t, item, "item must be invisible before availableAt")

	item, err = store.PopDue(ctx, now.Add(600*time.Millisecond))
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "a", item.ID)

	item, err = store.PopDue(ctx, now.Add(600*time.Millisecond))
	require.NoError(t, err)
	assert.Nil(t, item, "item must be claimed at most once")
}

func TestMemoryStore_PutOverwritesSchedule(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := delayedstore.NewMemoryStore()
	now := time.Now()

	require.NoError(t, store.Put(ctx, "a", []byte("v1"), now.Add(time.Hour)))
	require.NoError(t, store.Put(ctx, "a", []byte("v2"), now.Add(-time.Second)))

	size, err := store.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size, "same id must not duplicate")

	item, err := store.PopDue(ctx, now)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, []byte("v2"), item.Payload)
}

func TestMemoryStore_PutIfAbsent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := delayedstore.NewMemoryStore()
	now := time.Now()

	created, err := store.PutIfAbsent(ctx, "a", []byte("v1"), now)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.PutIfAbsent(ctx, "a", []byte("v2"), now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, created)

	item, err := store.PopDue(ctx, now)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, []byte("v1"), item.Payload, "existing entry must stay untouched")
}

func TestMemoryStore_Reschedule(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := delayedstore.NewMemoryStore()
	now := time.Now()

	require.NoError(t, store.Put(ctx, "a", []byte("x"), now.Add(time.Hour)))
	require.NoError(t, store.Reschedule(ctx, "a", now.Add(-time.Second)))

	item, err := store.PopDue(ctx, now)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "a", item.ID)

	assert.ErrorIs(t, store.Reschedule(ctx, "missing", now), delayedstore.ErrNotFound)
}

func TestMemoryStore_RemoveIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := delayedstore.NewMemoryStore()

	require.NoError(t, store.Put(ctx, "a", []byte("x"), time.Now()))
	require.NoError(t, store.Remove(ctx, "a"))
	require.NoError(t, store.Remove(ctx, "a"), "second remove must be a no-op")

	size, err := store.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)
}

func TestMemoryStore_OrderedByScore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := delayedstore.NewMemoryStore()
	now := time.Now()

	require.NoError(t, store.Put(ctx, "late", []byte("x"), now.Add(-time.Second)))
	require.NoError(t, store.Put(ctx, "early", []byte("x"), now.Add(-time.Minute)))

	first, err := store.PopDue(ctx, now)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "early", first.ID)

	second, err := store.PopDue(ctx, now)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, "late", second.ID)
}

func TestMemoryStore_ConcurrentPopClaimsOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := delayedstore.NewMemoryStore()
	now := time.Now()

	require.NoError(t, store.Put(ctx, "only", []byte("x"), now.Add(-time.Second)))

	var claimed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			item, err := store.PopDue(ctx, now)
			assert.NoError(t, err)
			if item != nil {
				claimed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), claimed.Load(), "exactly one caller must claim the item")
}

func TestMemoryStore_EmptyID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := delayedstore.NewMemoryStore()

	assert.ErrorIs(t, store.Put(ctx, "", nil, time.Now()), delayedstore.ErrEmptyID)
	assert.ErrorIs(t, store.Remove(ctx, ""), delayedstore.ErrEmptyID)
	_, err := store.PutIfAbsent(ctx, "", nil, time.Now())
	assert.ErrorIs(t, err, delayedstore.ErrEmptyID)
}
