package concurrency

import (
	"context"
	"sync"
)

// MemoryTracker implements Tracker for tests and local development.
type MemoryTracker struct {
	mu       sync.Mutex
	current  map[string]map[string]struct{}
	reserved map[string]map[string]struct{}
	limits   map[string]int64
	disabled map[string]struct{}
}

// NewMemoryTracker creates an empty in-memory tracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{
		current:  make(map[string]map[string]struct{}),
		reserved: make(map[string]map[string]struct{}),
		limits:   make(map[string]int64),
		disabled: make(map[string]struct{}),
	}
}

func scopeID(scope Scope) string {
	if scope.Key != "" {
		return string(scope.Kind) + ":" + scope.ID + ":ck:" + scope.Key
	}
	return string(scope.Kind) + ":" + scope.ID
}

func (t *MemoryTracker) AddReserved(_ context.Context, scope Scope, runID string) error {
	if err := validateArgs(scope, runID); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	addMember(t.reserved, scopeID(scope), runID)
	return nil
}

func (t *MemoryTracker) MarkExecuting(_ context.Context, scope Scope, runID string) error {
	if err := validateArgs(scope, runID); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	key := scopeID(scope)
	if members, ok := t.reserved[key]; ok {
		delete(members, runID)
	}
	addMember(t.current, key, runID)
	return nil
}

func (t *MemoryTracker) Release(_ context.Context, scope Scope, runID string) error {
	if err := validateArgs(scope, runID); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	key := scopeID(scope)
	if members, ok := t.current[key]; ok {
		delete(members, runID)
	}
	if members, ok := t.reserved[key]; ok {
		delete(members, runID)
	}
	return nil
}

func (t *MemoryTracker) Current(_ context.Context, scope Scope) (int64, error) {
	if !scope.Valid() {
		return 0, ErrInvalidScope
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return int64(len(t.current[scopeID(scope)])), nil
}

func (t *MemoryTracker) Reserved(_ context.Context, scope Scope) (int64, error) {
	if !scope.Valid() {
		return 0, ErrInvalidScope
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return int64(len(t.reserved[scopeID(scope)])), nil
}

func (t *MemoryTracker) SetLimit(_ context.Context, scope Scope, limit int64) error {
	if !scope.Valid() {
		return ErrInvalidScope
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if limit <= 0 {
		delete(t.limits, scopeID(scope))
		return nil
	}
	t.limits[scopeID(scope)] = limit
	return nil
}

func (t *MemoryTracker) IsAtCapacity(_ context.Context, scope Scope) (bool, error) {
	if !scope.Valid() {
		return false, ErrInvalidScope
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if scope.Kind == ScopeOrganization {
		if _, off := t.disabled[scope.ID]; off {
			return true, nil
		}
	}

	limit, ok := t.limits[scopeID(scope)]
	if !ok {
		return false, nil
	}

	key := scopeID(scope)
	inflight := int64(len(t.current[key]) + len(t.reserved[key]))
	return inflight >= limit, nil
}

func (t *MemoryTracker) SetDisabled(_ context.Context, orgID string, disabled bool) error {
	if orgID == "" {
		return ErrInvalidScope
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if disabled {
		t.disabled[orgID] = struct{}{}
	} else {
		delete(t.disabled, orgID)
	}
	return nil
}

func addMember(sets map[string]map[string]struct{}, key, member string) {
	if sets[key] == nil {
		sets[key] = make(map[string]struct{})
	}
	sets[key][member] = struct{}{}
}

func validateArgs(scope Scope, runID string) error {
	if !scope.Valid() {
		return ErrInvalidScope
	}
	if runID == "" {
		return ErrEmptyRunID
	}
	return nil
}
