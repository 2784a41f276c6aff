package concurrency

import "context"

// ScopeKind identifies the level a concurrency limit applies to.
type ScopeKind string

const (
	ScopeOrganization ScopeKind = "org"
	ScopeEnvironment  ScopeKind = "env"
	ScopeQueue        ScopeKind = "queue"
)

// Scope is a concurrency accounting bucket. Key optionally sub-partitions a
// queue scope (the run's concurrency key).
type Scope struct {
	Kind ScopeKind
	ID   string
	Key  string
}

// Valid reports whether the scope is well-formed.
func (s Scope) Valid() bool {
	switch s.Kind {
	case ScopeOrganization, ScopeEnvironment, ScopeQueue:
		return s.ID != ""
	default:
		return false
	}
}

// Tracker tracks in-flight runs per scope as set membership keyed by run id,
// plus configured limits. Reserved membership counts runs that were dequeued
// but not yet confirmed executing, so capacity checks do not over-admit while
// workers are still starting up; reserve is a superset of current for
// capacity purposes.
//
// Every mutation must be a single atomic operation against the shared store.
type Tracker interface {
	// AddReserved records a dequeued-but-not-yet-executing run.
	AddReserved(ctx context.Context, scope Scope, runID string) error

	// MarkExecuting moves the run from reserved to current membership. A run
	// that was never reserved is added to current directly.
	MarkExecuting(ctx context.Context, scope Scope, runID string) error

	// Release drops the run from both memberships. Releasing an unknown run
	// is a no-op.
	Release(ctx context.Context, scope Scope, runID string) error

	// Current reports the number of confirmed-executing runs in the scope.
	Current(ctx context.Context, scope Scope) (int64, error)

	// Reserved reports the number of reserved (unconfirmed) runs in the scope.
	Reserved(ctx context.Context, scope Scope) (int64, error)

	// SetLimit configures the scope's concurrency limit. A limit of zero or
	// below removes the limit (unlimited).
	SetLimit(ctx context.Context, scope Scope, limit int64) error

	// IsAtCapacity reports whether current+reserved concurrency has reached
	// the scope's limit. Unlimited scopes are never at capacity, except for
	// a disabled organization, which is always at capacity.
	IsAtCapacity(ctx context.Context, scope Scope) (bool, error)

	// SetDisabled flips the organization kill-switch. A disabled org reports
	// at-capacity for every check regardless of limits.
	SetDisabled(ctx context.Context, orgID string, disabled bool) error
}
