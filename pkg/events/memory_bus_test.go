package events_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/runkit/pkg/events"
)

func TestMemoryBus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	bus := events.NewMemoryBus()

	bus.Emit(ctx, events.RunStatusChanged, events.RunStatusPayload{RunID: "run-1", Status: "PENDING"})
	bus.Emit(ctx, events.RunExpired, events.RunStatusPayload{RunID: "run-2", Status: "EXPIRED"})
	bus.Emit(ctx, events.RunStatusChanged, events.RunStatusPayload{RunID: "run-3", Status: "CANCELED"})

	assert.Len(t, bus.Events(), 3)

	changed := bus.ByName(events.RunStatusChanged)
	require.Len(t, changed, 2)
	payload, ok := changed[0].Payload.(events.RunStatusPayload)
	require.True(t, ok)
	assert.Equal(t, "run-1", payload.RunID)

	assert.Len(t, bus.ByName(events.RunExpired), 1)
	assert.Empty(t, bus.ByName("unknown"))
}
