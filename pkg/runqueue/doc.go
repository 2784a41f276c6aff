// Package runqueue integrates the fair queue with concurrency accounting.
//
// Producers enqueue runs by their tenant scope; workers dequeue, confirm
// execution and complete. Each step keeps the concurrency counters honest:
// Dequeue reserves capacity so a starting worker is counted before it
// confirms, MarkExecuting converts the reservation to current concurrency,
// and Complete releases both. Ack is the control-plane path for retiring a
// run that was never dequeued.
package runqueue
