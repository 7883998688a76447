// Package walker implements the per-walk step logic: advance one parked
// walk through the currently resident shard until it leaves the shard,
// reaches the maximum hop count, or the application's continuation policy
// stops it (spec.md §4.4).
//
// © 2025 graphwalker authors. MIT License.
package walker

import (
	"math/rand/v2"

	"github.com/outcore/graphwalker/internal/shardstore"
	"github.com/outcore/graphwalker/internal/walkcodec"
	"github.com/outcore/graphwalker/internal/walkpool"
)

// VisitRecorder is the subset of the application hook the kernel needs on
// its hot path: a single per-visit callback (spec.md §4.7 on_visit).
type VisitRecorder interface {
	OnVisit(source, vertex, hop uint32, threadID int)
}

// Policy decides how a walk continues once it has visited a vertex of
// out-degree deg. Returning cont=false stops the walk; cont=true selects
// neighbor index idx (0 <= idx < deg) as the next vertex. This mirrors
// spec.md §4.7's continuation_policy(deg, rng) -> Continue(next_index) |
// Stop, kept as a black box by the kernel.
type Policy func(deg uint32, rng *rand.Rand) (cont bool, idx uint32)

// Locator resolves which shard owns a vertex and what interval a shard
// covers. *shardstore.Store satisfies this; it is expressed as an
// interface here so kernel tests can substitute a fixture without a real
// on-disk shard store.
type Locator interface {
	ShardOf(vertex uint32) int
	Interval(p int) shardstore.Interval
}

// Kernel advances walks through a single resident shard.
type Kernel struct {
	codec      *walkcodec.Codec
	maxHops    uint32
	locator    Locator
	numShards  int
}

// New constructs a Kernel. maxHops is L, the configured maximum walk
// length in hops.
func New(codec *walkcodec.Codec, maxHops uint32, locator Locator, numShards int) *Kernel {
	return &Kernel{codec: codec, maxHops: maxHops, locator: locator, numShards: numShards}
}

// Step advances walk w, currently resident in shard view, until it
// leaves the shard, exhausts its hop budget, or the policy stops it. On
// exit it either parks the walk in its destination shard's pool (via
// pool.Move) or retires it (pool.Terminate) — it never re-parks into the
// same resident shard, since by construction the loop only exits once cur
// has left [lo_p, hi_p] or hop==L.
//
// The shard-containment check happens in the loop condition itself, i.e.
// strictly before OnVisit fires on each iteration — this resolves the
// source ambiguity flagged in spec.md §9 ("an implementation must perform
// the shard-containment check before the visit callback").
func (k *Kernel) Step(w uint64, view *shardstore.ShardView, threadID int, pool *walkpool.Pool, hook VisitRecorder, policy Policy, rng *rand.Rand) error {
	source, offset, hop := k.codec.Decode(w)
	cur := view.Lo + offset

	for view.Contains(cur) && hop < k.maxHops {
		hook.OnVisit(source, cur, hop, threadID)

		deg := view.Degree(cur)
		if deg == 0 {
			pool.Terminate(view.P)
			return nil
		}

		cont, idx := policy(deg, rng)
		if !cont {
			pool.Terminate(view.P)
			return nil
		}

		cur = view.Neighbor(cur, idx)
		hop++
	}

	if hop >= k.maxHops {
		pool.Terminate(view.P)
		return nil
	}

	// cur left the resident shard. Resolve its new home and park the
	// walk there, or terminate if it stepped past the graph's known
	// vertex range (spec.md §4.4 step 3: "if q < P ... else terminate").
	q := k.locator.ShardOf(cur)
	if q < 0 || q >= k.numShards {
		pool.Terminate(view.P)
		return nil
	}

	carrier, err := k.codec.Encode(source, 0, hop)
	if err != nil {
		return err
	}
	lo := k.locator.Interval(q).Lo
	if err := pool.Move(carrier, q, threadID, cur-lo); err != nil {
		return err
	}
	pool.Terminate(view.P)
	return nil
}
