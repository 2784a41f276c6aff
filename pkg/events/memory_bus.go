package events

import (
	"context"
	"sync"
)

// Emitted is one recorded event.
type Emitted struct {
	Event   string
	Payload any
}

// MemoryBus records emitted events for tests.
type MemoryBus struct {
	mu     sync.Mutex
	events []Emitted
}

// NewMemoryBus creates an empty in-memory bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

func (b *MemoryBus) Emit(_ context.Context, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, Emitted{Event: event, Payload: payload})
}

// Events returns a copy of everything emitted so far.
func (b *MemoryBus) Events() []Emitted {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Emitted, len(b.events))
	copy(out, b.events)
	return out
}

// ByName returns the recorded events with the given name.
func (b *MemoryBus) ByName(event string) []Emitted {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Emitted
	for _, e := range b.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
