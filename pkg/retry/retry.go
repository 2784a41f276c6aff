package retry

import (
	"math"
	"math/rand"
	"time"
)

// Policy decides how long to wait before the next attempt of a failed item.
// NextDelay is called with the 1-indexed attempt number that just failed and
// the error it failed with. The second return value reports whether another
// attempt should be made at all: false means the retry budget is exhausted
// and the item must be routed to a dead-letter destination.
//
// Implementations must be pure functions of their inputs so a single Policy
// value can be shared across concurrently processed items.
type Policy interface {
	NextDelay(attempt int, err error) (time.Duration, bool)
}

// Exponential grows the delay by Factor on every attempt, capped at Max.
// A non-zero Jitter randomizes each delay by up to ±Jitter fraction (0.2 =
// ±20%) to spread out synchronized retries.
type Exponential struct {
	Initial     time.Duration
	Max         time.Duration
	Factor      float64
	Jitter      float64
	MaxAttempts int
}

func (p Exponential) NextDelay(attempt int, _ error) (time.Duration, bool) {
	if attempt >= p.MaxAttempts {
		return 0, false
	}

	factor := p.Factor
	if factor <= 0 {
		factor = 2
	}

	delay := float64(p.Initial) * math.Pow(factor, float64(attempt-1))
	if p.Max > 0 && delay > float64(p.Max) {
		delay = float64(p.Max)
	}
	if p.Jitter > 0 {
		// Symmetric jitter keeps the mean delay unchanged.
		delay += delay * p.Jitter * (2*rand.Float64() - 1)
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay), true
}

// Fixed waits the same Delay between every attempt.
type Fixed struct {
	Delay       time.Duration
	MaxAttempts int
}

func (p Fixed) NextDelay(attempt int, _ error) (time.Duration, bool) {
	if attempt >= p.MaxAttempts {
		return 0, false
	}
	return p.Delay, true
}

// Linear waits Base·attempt, capped at MaxDelay.
type Linear struct {
	Base        time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

func (p Linear) NextDelay(attempt int, _ error) (time.Duration, bool) {
	if attempt >= p.MaxAttempts {
		return 0, false
	}
	delay := time.Duration(attempt) * p.Base
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay, true
}

// Immediate retries with no delay until the attempt budget runs out.
type Immediate struct {
	MaxAttempts int
}

func (p Immediate) NextDelay(attempt int, _ error) (time.Duration, bool) {
	if attempt >= p.MaxAttempts {
		return 0, false
	}
	return 0, true
}

// None never retries; every failure is dead-lettered on the first attempt.
type None struct{}

func (None) NextDelay(int, error) (time.Duration, bool) {
	return 0, false
}

// Custom adapts a user-supplied function to the Policy interface. The
// function carries the same purity requirement as any other Policy.
type Custom func(attempt int, err error) (time.Duration, bool)

func (f Custom) NextDelay(attempt int, err error) (time.Duration, bool) {
	return f(attempt, err)
}
