package delayedstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store for testing and local development. The mutex
// stands in for the Redis scripts' atomicity; index and payload always move
// together.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Item
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Item)}
}

func (s *MemoryStore) Put(_ context.Context, id string, payload []byte, availableAt time.Time) error {
	if id == "" {
		return ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[id] = &Item{ID: id, Payload: payload, AvailableAt: availableAt}
	return nil
}

func (s *MemoryStore) PutIfAbsent(_ context.Context, id string, payload []byte, availableAt time.Time) (bool, error) {
	if id == "" {
		return false, ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[id]; exists {
		return false, nil
	}
	s.entries[id] = &Item{ID: id, Payload: payload, AvailableAt: availableAt}
	return true, nil
}

func (s *MemoryStore) PopDue(_ context.Context, now time.Time) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var earliest *Item
	for _, item := range s.entries {
		if item.AvailableAt.After(now) {
			continue
		}
		// Ties broken by id for a stable iteration order.
		if earliest == nil ||
			item.AvailableAt.Before(earliest.AvailableAt) ||
			(item.AvailableAt.Equal(earliest.AvailableAt) && item.ID < earliest.ID) {
			earliest = item
		}
	}
	if earliest == nil {
		return nil, nil
	}

	delete(s.entries, earliest.ID)
	claimed := *earliest
	return &claimed, nil
}

func (s *MemoryStore) Reschedule(_ context.Context, id string, availableAt time.Time) error {
	if id == "" {
		return ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.entries[id]
	if !exists {
		return ErrNotFound
	}
	item.AvailableAt = availableAt
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, id string) error {
	if id == "" {
		return ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) Size(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.entries)), nil
}
