package graphwalker

// restart_policy.go implements the canonical restart-with-probability-α
// continuation policy from spec.md §4.4 step 4: draw u ~ Uniform[0,1); if
// u < α terminate, else pick a uniform random neighbor index. Every
// application hook in this repository (apps/pagerank, apps/ppr) builds
// its ContinuationPolicy from this.
//
// © 2025 graphwalker authors. MIT License.

import "math/rand/v2"

// RestartPolicy returns a continuation policy that terminates a walk
// with probability alpha on each step and otherwise continues to a
// uniformly random out-neighbor. alpha=0 never restarts (pure random
// walk bounded only by L); alpha=1 stops every walk at its first visited
// vertex, before it takes any hop.
func RestartPolicy(alpha float64) func(deg uint32, rng *rand.Rand) (bool, uint32) {
	return func(deg uint32, rng *rand.Rand) (bool, uint32) {
		if rng.Float64() < alpha {
			return false, 0
		}
		return true, rng.Uint32N(deg)
	}
}
