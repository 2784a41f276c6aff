// Package events is the fire-and-forget event boundary of the run engine.
//
// Lifecycle systems emit "runStatusChanged" and "runExpired" notifications
// for downstream consumers (dashboards, alerting, billing). Delivery is
// best-effort by contract: Emit never blocks the calling transition on
// subscriber processing, and a failed publish is logged and forgotten.
//
// NATSBus is the production implementation; MemoryBus records events for
// tests.
package events
