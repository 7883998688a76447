package pagerank

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/outcore/graphwalker/internal/intervals"
	"github.com/outcore/graphwalker/internal/shardstore"
	"github.com/outcore/graphwalker/pkg/graphwalker"
)

// writeFixture serializes a tiny in-memory adjacency list to the on-disk
// shard + intervals file pair an Engine expects, mirroring the fixture
// helper in pkg/graphwalker's own engine tests.
func writeFixture(t *testing.T, base string, neighbors [][]uint32, ivs []shardstore.Interval) {
	t.Helper()
	lo := uint32(0)
	for p, iv := range ivs {
		if err := shardstore.WriteShardFile(base, p, neighbors[lo:iv.Hi+1]); err != nil {
			t.Fatal(err)
		}
		lo = iv.Hi + 1
	}
	f, err := os.Create(base + ".intervals")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := intervals.Write(f, ivs); err != nil {
		t.Fatal(err)
	}
}

// powerIteration computes the reference PageRank vector for neighbors by
// classic power iteration with uniform teleport probability alpha, the
// same random-surfer model the walk-count estimator approximates.
func powerIteration(neighbors [][]uint32, alpha float64, iters int) []float64 {
	n := len(neighbors)
	pr := make([]float64, n)
	for i := range pr {
		pr[i] = 1.0 / float64(n)
	}
	for it := 0; it < iters; it++ {
		next := make([]float64, n)
		for v := range next {
			next[v] = alpha / float64(n)
		}
		for u, adj := range neighbors {
			if len(adj) == 0 {
				continue
			}
			share := (1 - alpha) * pr[u] / float64(len(adj))
			for _, v := range adj {
				next[v] += share
			}
		}
		pr = next
	}
	return pr
}

// spearman returns the Spearman rank correlation coefficient between a
// and b, both treated as scores over the same index set.
func spearman(a, b []float64) float64 {
	n := len(a)
	ra := rank(a)
	rb := rank(b)
	var d2sum float64
	for i := 0; i < n; i++ {
		d := ra[i] - rb[i]
		d2sum += d * d
	}
	nf := float64(n)
	return 1 - (6*d2sum)/(nf*(nf*nf-1))
}

func rank(scores []float64) []float64 {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	// insertion sort is fine for the small fixtures these tests use.
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && scores[idx[j]] > scores[idx[j-1]]; j-- {
			idx[j], idx[j-1] = idx[j-1], idx[j]
		}
	}
	out := make([]float64, len(scores))
	for r, i := range idx {
		out[i] = float64(r)
	}
	return out
}

// buildFixture returns a small strongly-connected directed graph with no
// sinks, so the power-iteration reference needs no dangling-node
// handling.
func buildFixture() [][]uint32 {
	return [][]uint32{
		{1},
		{2},
		{0, 3},
		{1, 4},
		{2, 3},
	}
}

func runPageRank(t *testing.T, base string, threads int, seed1, seed2 uint64) []float64 {
	t.Helper()
	neighbors := buildFixture()
	n := uint32(len(neighbors))
	ivs := []shardstore.Interval{{Lo: 0, Hi: n - 1}}
	writeFixture(t, base, neighbors, ivs)

	const alpha = 0.15
	hook := New(n, 4000, alpha, threads)
	eng, err := graphwalker.New(hook,
		graphwalker.WithFile(base),
		graphwalker.WithVertexCount(n),
		graphwalker.WithWalksPerSource(4000),
		graphwalker.WithMaxHops(40),
		graphwalker.WithMinStepProb(0),
		graphwalker.WithExecThreads(threads),
		graphwalker.WithRNGSeed(seed1, seed2),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer eng.Close()
	if err := eng.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	scores, err := Scores(eng.VisitStore(), n)
	if err != nil {
		t.Fatal(err)
	}
	return scores
}

func TestPageRankApproximatesPowerIteration(t *testing.T) {
	base := filepath.Join(t.TempDir(), "graph")
	scores := runPageRank(t, base, 1, 42, 99)
	ref := powerIteration(buildFixture(), 0.15, 100)

	if corr := spearman(scores, ref); corr < 0.8 {
		t.Fatalf("spearman correlation = %f, want >= 0.8 (scores=%v ref=%v)", corr, scores, ref)
	}
}

func TestPageRankConvergesAcrossThreadCounts(t *testing.T) {
	base1 := filepath.Join(t.TempDir(), "graph1")
	base2 := filepath.Join(t.TempDir(), "graph2")
	single := runPageRank(t, base1, 1, 7, 13)
	multi := runPageRank(t, base2, 4, 7, 13)

	// Thread count changes how walks are distributed into buckets and
	// which per-thread RNG stream drives each one, so the two runs are
	// not expected to be byte-identical; what must hold is that both
	// converge to the same PageRank ranking.
	ref := powerIteration(buildFixture(), 0.15, 100)
	if corr := spearman(single, ref); corr < 0.8 {
		t.Fatalf("single-thread spearman = %f, want >= 0.8", corr)
	}
	if corr := spearman(multi, ref); corr < 0.8 {
		t.Fatalf("multi-thread spearman = %f, want >= 0.8", corr)
	}
}

func TestPageRankDeterministicAcrossRepeatedRuns(t *testing.T) {
	base1 := filepath.Join(t.TempDir(), "graph1")
	base2 := filepath.Join(t.TempDir(), "graph2")
	first := runPageRank(t, base1, 2, 5, 9)
	second := runPageRank(t, base2, 2, 5, 9)

	if len(first) != len(second) {
		t.Fatalf("length mismatch: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("vertex %d: %f != %f, same seed and thread count should reproduce byte-identical counts", i, first[i], second[i])
		}
	}
}
