package events

import "context"

// Event names emitted by the lifecycle systems.
const (
	RunStatusChanged = "runStatusChanged"
	RunExpired       = "runExpired"
)

// Bus is the fire-and-forget event boundary. Emit must never block on
// subscriber processing; delivery is best-effort and an emit failure is
// logged by the implementation, not surfaced to the business flow.
type Bus interface {
	Emit(ctx context.Context, event string, payload any)
}

// RunStatusPayload is the payload for run status events.
type RunStatusPayload struct {
	RunID          string `json:"run_id"`
	OrganizationID string `json:"organization_id"`
	EnvironmentID  string `json:"environment_id"`
	Status         string `json:"status"`
}
