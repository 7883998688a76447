// Package ppr is personalized PageRank: every walk starts from (and, by
// the uniform-teleport renewal argument apps/pagerank relies on, would
// restart to) a single fixed source vertex instead of one vertex each.
// The resulting visit distribution approximates that source's
// personalized PageRank vector — its relevance to every other vertex
// conditioned on restarts always returning to it.
//
// Grounded on original_source/apps/pagerank.cpp's RandomWalkwithJump
// base, reusing apps/pagerank's restart-policy construction; the only
// behavioral difference is where SeedWalks plants its R*N walks.
//
// © 2025 graphwalker authors. MIT License.
package ppr

import (
	"math/rand/v2"

	"github.com/outcore/graphwalker/apps/pagerank"
	"github.com/outcore/graphwalker/internal/shardstore"
	"github.com/outcore/graphwalker/internal/visitstore"
	"github.com/outcore/graphwalker/internal/walkcodec"
	"github.com/outcore/graphwalker/internal/walkpool"
	"github.com/outcore/graphwalker/pkg/graphwalker"
)

// PPR implements graphwalker.ApplicationHook. It shares apps/pagerank's
// visit accumulation and alpha-restart continuation policy verbatim,
// overriding only which vertex every walk is seeded from.
type PPR struct {
	Source uint32
	Total  uint32 // R*N: total walk count to seed, all from Source
	Alpha  float64

	codec          *walkcodec.Codec
	continuePolicy func(deg uint32, rng *rand.Rand) (bool, uint32)
	store          visitstore.Store
	threads        int

	accum    [][]uint64
	windowLo uint32
}

// New constructs a PPR hook that seeds `total` walks from source,
// restarting with probability alpha. total is normally R*N so a
// personalized run spends the same total walk budget as a global
// apps/pagerank run over the same graph, making the two comparable. The
// visit-count store is supplied later by graphwalker.New via
// BindVisitStore, the same as apps/pagerank.
func New(source, total uint32, alpha float64, threads int) *PPR {
	return &PPR{
		Source:         source,
		Total:          total,
		Alpha:          alpha,
		codec:          walkcodec.Default(),
		continuePolicy: graphwalker.RestartPolicy(alpha),
		threads:        threads,
	}
}

// BindVisitStore implements graphwalker.VisitStoreBinder.
func (h *PPR) BindVisitStore(store visitstore.Store) { h.store = store }

// SeedWalks plants every one of Total walks at Source, round-robining
// across threads the same way apps/pagerank spreads its per-vertex walks.
func (h *PPR) SeedWalks(pool *walkpool.Pool, n uint32, ivs []shardstore.Interval) {
	p := -1
	var lo uint32
	for i, iv := range ivs {
		if h.Source >= iv.Lo && h.Source <= iv.Hi {
			p = i
			lo = iv.Lo
			break
		}
	}
	if p < 0 {
		panic("ppr: source vertex not covered by any interval")
	}
	w, err := h.codec.Encode(h.Source, h.Source-lo, 0)
	if err != nil {
		panic(err)
	}
	threads := pool.NumThreads()
	for i := uint32(0); i < h.Total; i++ {
		pool.Seed(p, int(i)%threads, w)
	}
}

// OnVisit tallies one visit to vertex at the calling thread's row of the
// current interval's accumulator.
func (h *PPR) OnVisit(source, vertex, hop uint32, threadID int) {
	h.accum[threadID][vertex-h.windowLo]++
}

// BeforeInterval allocates a fresh zeroed per-thread accumulator sized to
// the interval's vertex window.
func (h *PPR) BeforeInterval(p int, lo, hi uint32) {
	h.windowLo = lo
	h.accum = make([][]uint64, h.threads)
	for t := range h.accum {
		h.accum[t] = make([]uint64, hi-lo+1)
	}
}

// AfterInterval sums every thread's accumulator row and folds the result
// into the persistent visit-count store.
func (h *PPR) AfterInterval(p int, lo, hi uint32) {
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

// ContinuationPolicy is the alpha-restart policy shared with apps/pagerank.
func (h *PPR) ContinuationPolicy(deg uint32, rng *rand.Rand) (bool, uint32) {
	return h.continuePolicy(deg, rng)
}

// Scores is pagerank.Scores, re-exported so callers don't need to import
// both packages for the common case of reading a finished run's result.
func Scores(store visitstore.Store, n uint32) ([]float64, error) {
	return pagerank.Scores(store, n)
}
