package taskrun_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/runkit/pkg/taskrun"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	allowed := []struct{ from, to taskrun.Status }{
		{taskrun.StatusPending, taskrun.StatusExecuting},
		{taskrun.StatusPending, taskrun.StatusCanceled},
		{taskrun.StatusPending, taskrun.StatusExpired},
		{taskrun.StatusPendingVersion, taskrun.StatusPending},
		{taskrun.StatusDelayed, taskrun.StatusPending},
		{taskrun.StatusDelayed, taskrun.StatusExpired},
		{taskrun.StatusWaitingToResume, taskrun.StatusExecuting},
		{taskrun.StatusRetryingAfterFailure, taskrun.StatusExecuting},
		{taskrun.StatusExecuting, taskrun.StatusCompletedSuccessfully},
		{taskrun.StatusExecuting, taskrun.StatusCompletedWithErrors},
		{taskrun.StatusExecuting, taskrun.StatusCrashed},
		{taskrun.StatusExecuting, taskrun.StatusWaitingToResume},
		{taskrun.StatusExecuting, taskrun.StatusPaused},
	}
	for _, tt := range allowed {
		assert.True(t, taskrun.CanTransition(tt.from, tt.to), "%s -> %s should be allowed", tt.from, tt.to)
	}

	denied := []struct{ from, to taskrun.Status }{
		{taskrun.StatusPending, taskrun.StatusCompletedSuccessfully},
		{taskrun.StatusDelayed, taskrun.StatusExecuting},
		{taskrun.StatusExpired, taskrun.StatusPending},
		{taskrun.StatusCompletedSuccessfully, taskrun.StatusExecuting},
		{taskrun.StatusCanceled, taskrun.StatusPending},
		{taskrun.StatusExecuting, taskrun.StatusPending},
	}
	for _, tt := range denied {
		assert.False(t, taskrun.CanTransition(tt.from, tt.to), "%s -> %s should be denied", tt.from, tt.to)
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	t.Parallel()

	terminal := []taskrun.Status{
		taskrun.StatusCompletedSuccessfully,
		taskrun.StatusCompletedWithErrors,
		taskrun.StatusInterrupted,
		taskrun.StatusCrashed,
		taskrun.StatusSystemFailure,
		taskrun.StatusCanceled,
		taskrun.StatusExpired,
	}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), "%s should be terminal", s)
	}

	for _, s := range []taskrun.Status{
		taskrun.StatusPending, taskrun.StatusDelayed, taskrun.StatusExecuting,
		taskrun.StatusPendingVersion, taskrun.StatusWaitingToResume,
	} {
		assert.False(t, s.IsTerminal(), "%s should not be terminal", s)
	}
}

func TestStatus_IsExecuting(t *testing.T) {
	t.Parallel()

	assert.True(t, taskrun.StatusExecuting.IsExecuting())
	assert.True(t, taskrun.StatusWaitingToResume.IsExecuting())
	assert.True(t, taskrun.StatusRetryingAfterFailure.IsExecuting())
	assert.False(t, taskrun.StatusPending.IsExecuting())
	assert.False(t, taskrun.StatusExpired.IsExecuting())
}
