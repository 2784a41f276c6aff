// Package taskrun defines the run data model shared by the queueing and
// lifecycle packages: the Run itself, its append-only execution Snapshot
// history, the one-shot Waitpoint completion signal, and the status enums
// with their legal transition table.
//
// A run has at most one active execution at a time; the latest snapshot for
// a run id defines its current execution status. Status transitions are
// validated against the table via CanTransition, and terminal statuses
// (completed, canceled, expired, crashed and friends) have no outgoing
// edges.
package taskrun
