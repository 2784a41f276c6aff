package fairqueue

import (
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// TenantCandidate is one tenant with due work on a shard: its queues in
// score order and the score of its oldest run, used as a fairness weight.
type TenantCandidate struct {
	ID          string
	Queues      []QueueWithScore
	OldestScore float64
}

// Strategy decides the order in which tenants with due work are offered to a
// consumer. Candidates arrive in first-seen master-index order; lastServed is
// the tenant the previous pass started with, or empty on the first pass.
type Strategy interface {
	Arrange(candidates []TenantCandidate, lastServed string) []TenantCandidate
}

// RoundRobin rotates the candidate list to start just past the last served
// tenant, so every tenant with due work gets the head slot in turn. When the
// last served tenant drained off the shard the order is left as is.
type RoundRobin struct{}

func (RoundRobin) Arrange(candidates []TenantCandidate, lastServed string) []TenantCandidate {
	if lastServed == "" || len(candidates) < 2 {
		return candidates
	}

	for i, c := range candidates {
		if c.ID == lastServed {
			rotated := make([]TenantCandidate, 0, len(candidates))
			rotated = append(rotated, candidates[i+1:]...)
			rotated = append(rotated, candidates[:i+1]...)
			return rotated
		}
	}
	return candidates
}

// WeightedShuffle orders tenants by a weighted random draw, weighting each
// tenant by how long its oldest run has been waiting. Starved tenants float
// toward the head without hard-starving anyone else.
type WeightedShuffle struct {
	rnd *rand.Rand
}

// NewWeightedShuffle seeds a shuffle strategy. A zero seed uses the clock.
func NewWeightedShuffle(seed uint64) *WeightedShuffle {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &WeightedShuffle{rnd: rand.New(rand.NewSource(seed))}
}

func (s *WeightedShuffle) Arrange(candidates []TenantCandidate, _ string) []TenantCandidate {
	if len(candidates) < 2 {
		return candidates
	}

	now := float64(time.Now().UnixMilli())
	weights := make([]float64, len(candidates))
	for i, c := range candidates {
		age := now - c.OldestScore
		if age < 1 {
			age = 1
		}
		weights[i] = age
	}

	w := sampleuv.NewWeighted(weights, s.rnd)
	arranged := make([]TenantCandidate, 0, len(candidates))
	for {
		i, ok := w.Take()
		if !ok {
			break
		}
		arranged = append(arranged, candidates[i])
	}
	return arranged
}
