package fairqueue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/runkit/pkg/fairqueue"
)

func candidates(ids ...string) []fairqueue.TenantCandidate {
	out := make([]fairqueue.TenantCandidate, len(ids))
	for i, id := range ids {
		out[i] = fairqueue.TenantCandidate{ID: id, OldestScore: float64(i)}
	}
	return out
}

func idsOf(cs []fairqueue.TenantCandidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func TestRoundRobin_Arrange(t *testing.T) {
	t.Parallel()

	t.Run("no last served keeps order", func(t *testing.T) {
		t.Parallel()
		got := fairqueue.RoundRobin{}.Arrange(candidates("a", "b", "c"), "")
		assert.Equal(t, []string{"a", "b", "c"}, idsOf(got))
	})

	t.Run("rotates past last served", func(t *testing.T) {
		t.Parallel()
		got := fairqueue.RoundRobin{}.Arrange(candidates("a", "b", "c"), "a")
		assert.Equal(t, []string{"b", "c", "a"}, idsOf(got))
	})

	t.Run("last served at tail wraps", func(t *testing.T) {
		t.Parallel()
		got := fairqueue.RoundRobin{}.Arrange(candidates("a", "b", "c"), "c")
		assert.Equal(t, []string{"a", "b", "c"}, idsOf(got))
	})

	t.Run("departed last served keeps order", func(t *testing.T) {
		t.Parallel()
		got := fairqueue.RoundRobin{}.Arrange(candidates("a", "b", "c"), "gone")
		assert.Equal(t, []string{"a", "b", "c"}, idsOf(got))
	})

	t.Run("single candidate untouched", func(t *testing.T) {
		t.Parallel()
		got := fairqueue.RoundRobin{}.Arrange(candidates("a"), "a")
		assert.Equal(t, []string{"a"}, idsOf(got))
	})
}

func TestWeightedShuffle_Arrange(t *testing.T) {
	t.Parallel()

	t.Run("keeps all candidates", func(t *testing.T) {
		t.Parallel()
		s := fairqueue.NewWeightedShuffle(42)
		got := s.Arrange(candidates("a", "b", "c", "d"), "")
		require.Len(t, got, 4)
		assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, idsOf(got))
	})

	t.Run("deterministic for a fixed seed", func(t *testing.T) {
		t.Parallel()
		first := idsOf(fairqueue.NewWeightedShuffle(7).Arrange(candidates("a", "b", "c", "d", "e"), ""))
		second := idsOf(fairqueue.NewWeightedShuffle(7).Arrange(candidates("a", "b", "c", "d", "e"), ""))
		assert.Equal(t, first, second)
	})
}
