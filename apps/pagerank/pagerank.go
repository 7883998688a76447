// Package pagerank is a reference graphwalker.ApplicationHook that turns
// random-walk visit counts into a PageRank approximation, ground truth
// being the classic "random surfer" equivalence: the stationary
// visitation frequency of an alpha-restart random walk converges to the
// PageRank vector as the number of walks per vertex grows.
//
// Grounded on original_source/apps/pagerank.cpp: seed R walks from every
// vertex, each walk takes a uniformly random out-neighbor with
// probability (1-alpha) and restarts (terminates, in this engine's walk
// model) with probability alpha, and after_interval folds the per-thread
// visit tallies into the persistent counter file.
//
// © 2025 graphwalker authors. MIT License.
package pagerank

import (
	"math/rand/v2"
	"sort"

	"github.com/outcore/graphwalker/internal/shardstore"
	"github.com/outcore/graphwalker/internal/visitstore"
	"github.com/outcore/graphwalker/internal/walkcodec"
	"github.com/outcore/graphwalker/internal/walkpool"
	"github.com/outcore/graphwalker/pkg/graphwalker"
)

// PageRank implements graphwalker.ApplicationHook. R walks are seeded
// from every vertex in the graph; each step restarts with probability
// Alpha, so a vertex's long-run visit share approximates its PageRank
// score under the standard damping-factor-(1-Alpha) random surfer model.
type PageRank struct {
	N     uint32
	R     uint32
	Alpha float64

	codec   *walkcodec.Codec
	continuePolicy func(deg uint32, rng *rand.Rand) (bool, uint32)
	store   visitstore.Store
	threads int

	accum    [][]uint64
	windowLo uint32
}

// New constructs a PageRank hook that seeds r walks per vertex out of n
// total vertices, restarting with probability alpha. threads must equal
// the engine's configured execution-thread count
// (graphwalker.WithExecThreads) since BeforeInterval allocates one
// accumulator row per thread. The visit-count store is supplied later by
// graphwalker.New via BindVisitStore, honoring the engine's own
// WithCounterWidth/WithSemiExternal configuration rather than one chosen
// here.
func New(n, r uint32, alpha float64, threads int) *PageRank {
	return &PageRank{
		N:              n,
		R:              r,
		Alpha:          alpha,
		codec:          walkcodec.Default(),
		continuePolicy: graphwalker.RestartPolicy(alpha),
		threads:        threads,
	}
}

// BindVisitStore implements graphwalker.VisitStoreBinder.
func (h *PageRank) BindVisitStore(store visitstore.Store) { h.store = store }

// SeedWalks pushes R walks from every vertex in every interval, round
// robining the seeding across threads the same way an OpenMP "parallel
// for schedule(static)" loop divides vertices across threads before the
// first interval runs (original_source/apps/pagerank.cpp startWalksbyApp).
func (h *PageRank) SeedWalks(pool *walkpool.Pool, n uint32, ivs []shardstore.Interval) {
	threads := pool.NumThreads()
	t := 0
	for p, iv := range ivs {
		for v := iv.Lo; v <= iv.Hi; v++ {
			offset := v - iv.Lo
			w, err := h.codec.Encode(v, offset, 0)
			if err != nil {
				panic(err)
			}
			for i := uint32(0); i < h.R; i++ {
				pool.Seed(p, t, w)
			}
			t = (t + 1) % threads
		}
	}
}

// OnVisit tallies one visit to vertex at the calling thread's row of the
// current interval's accumulator.
func (h *PageRank) OnVisit(source, vertex, hop uint32, threadID int) {
	h.accum[threadID][vertex-h.windowLo]++
}

// BeforeInterval allocates a fresh zeroed per-thread accumulator sized to
// the interval's vertex window.
func (h *PageRank) BeforeInterval(p int, lo, hi uint32) {
	h.windowLo = lo
	h.accum = make([][]uint64, h.threads)
	for t := range h.accum {
		h.accum[t] = make([]uint64, hi-lo+1)
	}
}

// AfterInterval sums every thread's accumulator row and folds the result
// into the persistent visit-count store.
func (h *PageRank) AfterInterval(p int, lo, hi uint32) {
	merged := make([]uint64, hi-lo+1)
	for _, bucket := range h.accum {
		for i, c := range bucket {
			merged[i] += c
		}
	}
	if err := h.store.AddWindow(lo, merged); err != nil {
		panic(err)
	}
}

// ContinuationPolicy is the alpha-restart policy shared with apps/ppr.
func (h *PageRank) ContinuationPolicy(deg uint32, rng *rand.Rand) (bool, uint32) {
	return h.continuePolicy(deg, rng)
}

// Scores reads the accumulated visit counts back and normalizes them into
// a probability distribution over vertices, the PageRank approximation
// itself. Call only after Engine.Run has returned.
func Scores(store visitstore.Store, n uint32) ([]float64, error) {
	counts, err := store.ReadAll(n)
	if err != nil {
		return nil, err
	}
	var total uint64
	for _, c := range counts {
		total += c
	}
	out := make([]float64, n)
	if total == 0 {
		return out, nil
	}
	for i, c := range counts {
		out[i] = float64(c) / float64(total)
	}
	return out, nil
}

// Top returns the k vertices with the highest score, descending.
func Top(scores []float64, k int) []uint32 {
	idx := make([]uint32, len(scores))
	for i := range idx {
		idx[i] = uint32(i)
	}
	sort.Slice(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })
	if k > len(idx) {
		k = len(idx)
	}
	return idx[:k]
}
