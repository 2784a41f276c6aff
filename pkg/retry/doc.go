// Package retry provides pluggable retry/backoff policies for failed queue
// items.
//
// A Policy maps (attempt, error) to the delay before the next attempt, or
// signals that the item should be dead-lettered instead. Attempts are
// 1-indexed; every policy returns ok=false once attempt >= MaxAttempts.
// Policies are pure values with no hidden state, so one instance is safe to
// share across any number of concurrently processed items.
//
// # Usage
//
//	policy := retry.Exponential{
//	    Initial:     time.Second,
//	    Max:         10 * time.Second,
//	    Factor:      2,
//	    MaxAttempts: 10,
//	}
//
//	delay, ok := policy.NextDelay(attempt, err)
//	if !ok {
//	    // move the item to the dead-letter queue
//	}
//
// Policies can also be built from configuration via New, keyed by a Kind tag:
//
//	policy, err := retry.New(retry.Config{Kind: retry.KindLinear, Initial: time.Second, Max: time.Minute, MaxAttempts: 5})
package retry
