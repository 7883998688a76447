// Package scheduler implements the interval scheduler's α-mixed
// min-step/max-walk shard selection policy (spec.md §4.5).
//
// © 2025 graphwalker authors. MIT License.
package scheduler

import "math/rand/v2"

// Pool is the subset of walkpool.Pool the scheduler needs. Expressed as an
// interface, following the same dependency-inversion the walker kernel
// uses for its Locator, so this package never imports walkpool.
type Pool interface {
	MinStepShard() (shard int, ok bool)
	MaxWalkShard() (shard int, ok bool)
	WalkNum(shard int) int64
}

// Observer receives a notification each time the scheduler makes a pick,
// letting pkg/graphwalker log/emit metrics without this package knowing
// about zap or prometheus.
type Observer interface {
	Picked(shard int, byMinStep bool)
	// Staleness reports shard's current consecutive-picks-since-last-pick
	// count, fired after every Pick so a metrics sink can track it as a
	// live gauge rather than only learning about a shard once it starves.
	Staleness(shard int, sincePick int)
}

// NoopObserver discards every notification.
type NoopObserver struct{}

func (NoopObserver) Picked(int, bool)   {}
func (NoopObserver) Staleness(int, int) {}

// Scheduler draws u ~ Uniform[0,1) on every Pick and routes to
// MinStepShard with probability alpha, MaxWalkShard otherwise (spec.md
// §4.5). alpha is min_step_prob; the default engine configuration is 0.2.
type Scheduler struct {
	pool     Pool
	alpha    float64
	rng      *rand.Rand
	observer Observer
}

// New constructs a Scheduler. rng is injected rather than package-global
// so callers get the seed-injection determinism spec.md §4.4 requires of
// every randomized component, not just the walker kernel.
func New(pool Pool, alpha float64, rng *rand.Rand, observer Observer) *Scheduler {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &Scheduler{pool: pool, alpha: alpha, rng: rng, observer: observer}
}

// Pick returns the next shard to make resident. ok is false only when the
// pool has no live walks in any shard, which the engine loop treats as
// termination (spec.md §4.6: "while pool.total_live() > 0").
func (s *Scheduler) Pick() (shard int, ok bool) {
	byMinStep := s.rng.Float64() < s.alpha
	if byMinStep {
		shard, ok = s.pool.MinStepShard()
	} else {
		shard, ok = s.pool.MaxWalkShard()
	}
	if !ok {
		// Whichever policy lost also has no candidate: a nonempty pool
		// always has both a min-step and a max-walk shard, since both are
		// computed over the same "walknum > 0" shard set.
		if byMinStep {
			shard, ok = s.pool.MaxWalkShard()
		} else {
			shard, ok = s.pool.MinStepShard()
		}
	}
	if ok {
		s.observer.Picked(shard, byMinStep)
	}
	return shard, ok
}
