package concurrency_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/runkit/pkg/concurrency"
)

func TestMemoryTracker_ReserveThenExecute(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tracker := concurrency.NewMemoryTracker()
	scope := concurrency.Scope{Kind: concurrency.ScopeQueue, ID: "q1"}

	require.NoError(t, tracker.AddReserved(ctx, scope, "run-1"))

	reserved, err := tracker.Reserved(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reserved)

	current, err := tracker.Current(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(0), current)

	require.NoError(t, tracker.MarkExecuting(ctx, scope, "run-1"))

	reserved, err = tracker.Reserved(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(0), reserved, "reservation must move, not duplicate")

	current, err = tracker.Current(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(1), current)
}

func TestMemoryTracker_MarkExecutingWithoutReservation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tracker := concurrency.NewMemoryTracker()
	scope := concurrency.Scope{Kind: concurrency.ScopeEnvironment, ID: "env1"}

	require.NoError(t, tracker.MarkExecuting(ctx, scope, "run-1"))

	current, err := tracker.Current(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(1), current)
}

func TestMemoryTracker_ReleaseIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tracker := concurrency.NewMemoryTracker()
	scope := concurrency.Scope{Kind: concurrency.ScopeQueue, ID: "q1"}

	require.NoError(t, tracker.MarkExecuting(ctx, scope, "run-1"))
	require.NoError(t, tracker.Release(ctx, scope, "run-1"))
	require.NoError(t, tracker.Release(ctx, scope, "run-1"), "second release is a no-op")

	current, err := tracker.Current(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(0), current)
}

func TestMemoryTracker_IsAtCapacity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tracker := concurrency.NewMemoryTracker()
	scope := concurrency.Scope{Kind: concurrency.ScopeOrganization, ID: "org1"}

	t.Run("unlimited scope never saturates", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			require.NoError(t, tracker.MarkExecuting(ctx, scope, fmt.Sprintf("run-%d", i)))
		}
		full, err := tracker.IsAtCapacity(ctx, scope)
		require.NoError(t, err)
		assert.False(t, full)
	})

	t.Run("limit reached", func(t *testing.T) {
		require.NoError(t, tracker.SetLimit(ctx, scope, 100))
		full, err := tracker.IsAtCapacity(ctx, scope)
		require.NoError(t, err)
		assert.True(t, full)
	})

	t.Run("released run frees capacity", func(t *testing.T) {
		require.NoError(t, tracker.Release(ctx, scope, "run-0"))
		full, err := tracker.IsAtCapacity(ctx, scope)
		require.NoError(t, err)
		assert.False(t, full)
	})
}

func TestMemoryTracker_ReservedCountsTowardCapacity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tracker := concurrency.NewMemoryTracker()
	scope := concurrency.Scope{Kind: concurrency.ScopeQueue, ID: "q1"}

	require.NoError(t, tracker.SetLimit(ctx, scope, 2))
	require.NoError(t, tracker.MarkExecuting(ctx, scope, "run-1"))
	require.NoError(t, tracker.AddReserved(ctx, scope, "run-2"))

	full, err := tracker.IsAtCapacity(ctx, scope)
	require.NoError(t, err)
	assert.True(t, full, "reserved runs must count toward capacity")
}

func TestMemoryTracker_DisabledOrgAlwaysSaturated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tracker := concurrency.NewMemoryTracker()
	scope := concurrency.Scope{Kind: concurrency.ScopeOrganization, ID: "org1"}

	full, err := tracker.IsAtCapacity(ctx, scope)
	require.NoError(t, err)
	require.False(t, full)

	require.NoError(t, tracker.SetDisabled(ctx, "org1", true))

	full, err = tracker.IsAtCapacity(ctx, scope)
	require.NoError(t, err)
	assert.True(t, full, "disabled org must report saturated with no limit configured")

	require.NoError(t, tracker.SetDisabled(ctx, "org1", false))

	full, err = tracker.IsAtCapacity(ctx, scope)
	require.NoError(t, err)
	assert.False(t, full)
}

func TestMemoryTracker_ConcurrencyKeyPartitionsScope(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tracker := concurrency.NewMemoryTracker()

	plain := concurrency.Scope{Kind: concurrency.ScopeQueue, ID: "q1"}
	keyed := concurrency.Scope{Kind: concurrency.ScopeQueue, ID: "q1", Key: "customer-7"}

	require.NoError(t, tracker.SetLimit(ctx, keyed, 1))
	require.NoError(t, tracker.MarkExecuting(ctx, keyed, "run-1"))

	full, err := tracker.IsAtCapacity(ctx, keyed)
	require.NoError(t, err)
	assert.True(t, full)

	full, err = tracker.IsAtCapacity(ctx, plain)
	require.NoError(t, err)
	assert.False(t, full, "keyed partition must not saturate the plain scope")
}

func TestMemoryTracker_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tracker := concurrency.NewMemoryTracker()

	err := tracker.AddReserved(ctx, concurrency.Scope{Kind: "region", ID: "x"}, "run-1")
	assert.ErrorIs(t, err, concurrency.ErrInvalidScope)

	err = tracker.MarkExecuting(ctx, concurrency.Scope{Kind: concurrency.ScopeQueue, ID: "q"}, "")
	assert.ErrorIs(t, err, concurrency.ErrEmptyRunID)

	err = tracker.SetDisabled(ctx, "", true)
	assert.ErrorIs(t, err, concurrency.ErrInvalidScope)
}
