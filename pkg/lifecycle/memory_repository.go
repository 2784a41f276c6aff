package lifecycle

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/runkit/pkg/taskrun"
)

// MemoryRepository implements RunRepository for tests and local development.
type MemoryRepository struct {
	mu         sync.Mutex
	runs       map[uuid.UUID]taskrun.Run
	snapshots  map[uuid.UUID][]taskrun.Snapshot
	waitpoints map[uuid.UUID]taskrun.Waitpoint
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		runs:       make(map[uuid.UUID]taskrun.Run),
		snapshots:  make(map[uuid.UUID][]taskrun.Snapshot),
		waitpoints: make(map[uuid.UUID]taskrun.Waitpoint),
	}
}

// SeedRun stores a run directly, for arranging test state.
func (r *MemoryRepository) SeedRun(run *taskrun.Run) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs[run.ID] = *run
}

// SeedWaitpoint attaches an uncompleted waitpoint to a run.
func (r *MemoryRepository) SeedWaitpoint(runID uuid.UUID) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	wp := taskrun.Waitpoint{ID: uuid.New(), RunID: runID}
	r.waitpoints[runID] = wp
	return wp.ID
}

func (r *MemoryRepository) FindRun(_ context.Context, id uuid.UUID) (*taskrun.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return &run, nil
}

func (r *MemoryRepository) UpdateRun(_ context.Context, run *taskrun.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[run.ID]; !ok {
		return ErrRunNotFound
	}
	run.UpdatedAt = time.Now()
	r.runs[run.ID] = *run
	return nil
}

func (r *MemoryRepository) LatestSnapshot(_ context.Context, runID uuid.UUID) (*taskrun.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snaps := r.snapshots[runID]
	if len(snaps) == 0 {
		return nil, ErrSnapshotNotFound
	}
	latest := snaps[len(snaps)-1]
	return &latest, nil
}

func (r *MemoryRepository) CreateSnapshot(_ context.Context, snapshot *taskrun.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now()
	}
	r.snapshots[snapshot.RunID] = append(r.snapshots[snapshot.RunID], *snapshot)
	return nil
}

func (r *MemoryRepository) CompleteWaitpoint(_ context.Context, runID uuid.UUID, output []byte, isError bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wp, ok := r.waitpoints[runID]
	if !ok || wp.Completed {
		return false, nil
	}

	now := time.Now()
	wp.Completed = true
	wp.IsError = isError
	wp.Output = output
	wp.CompletedAt = &now
	r.waitpoints[runID] = wp
	return true, nil
}

func (r *MemoryRepository) PendingVersionRuns(_ context.Context, workerID string, limit int) ([]*taskrun.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*taskrun.Run
	for _, run := range r.runs {
		if run.Status == taskrun.StatusPendingVersion && run.WorkerID == workerID {
			run := run
			matched = append(matched, &run)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Snapshots returns every snapshot appended for the run, oldest first.
func (r *MemoryRepository) Snapshots(runID uuid.UUID) []taskrun.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]taskrun.Snapshot, len(r.snapshots[runID]))
	copy(out, r.snapshots[runID])
	return out
}

// Waitpoint returns the run's waitpoint, if any.
func (r *MemoryRepository) Waitpoint(runID uuid.UUID) (taskrun.Waitpoint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wp, ok := r.waitpoints[runID]
	return wp, ok
}
