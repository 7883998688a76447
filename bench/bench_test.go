// Package bench provides reproducible micro-benchmarks for graphwalker.
// Run via: go test ./bench -bench=. -benchmem -cpu 1,4,16
//
// One benchmark per hot-path operation, b.ReportAllocs, deterministic
// inputs with no RNG at setup time — the walk-codec/kernel/pool hot path
// instead of a cache's get/put path:
//
//  1. CodecEncode/Decode — the per-step bit-packing cost.
//  2. KernelStep         — one full walk advance through a resident shard.
//  3. PoolSeedMove       — walk-pool bucket writes under the [t][p] layout.
//
// © 2025 graphwalker authors. MIT License.
package bench

import (
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/outcore/graphwalker/internal/shardstore"
	"github.com/outcore/graphwalker/internal/walkcodec"
	"github.com/outcore/graphwalker/internal/walker"
	"github.com/outcore/graphwalker/internal/walkpool"
)

const benchVertices = 1 << 16 // 65536 vertices, average out-degree 4

// ring builds a deterministic graph where vertex v's neighbors are
// (v+1)%n, (v+7)%n, (v+31)%n, (v+131)%n, giving every vertex a fixed
// out-degree of 4 without needing an RNG at benchmark setup time.
func ring(n int) [][]uint32 {
	adj := make([][]uint32, n)
	offsets := []uint32{1, 7, 31, 131}
	for v := range adj {
		row := make([]uint32, len(offsets))
		for i, off := range offsets {
			row[i] = (uint32(v) + off) % uint32(n)
		}
		adj[v] = row
	}
	return adj
}

func BenchmarkCodecEncodeDecode(b *testing.B) {
	codec := walkcodec.Default()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w, err := codec.Encode(uint32(i%benchVertices), uint32(i%1024), uint32(i%16))
		if err != nil {
			b.Fatal(err)
		}
		_, _, _ = codec.Decode(w)
	}
}

func BenchmarkKernelStep(b *testing.B) {
	base := filepath.Join(b.TempDir(), "bench")
	adj := ring(benchVertices)
	if err := shardstore.WriteShardFile(base, 0, adj); err != nil {
		b.Fatal(err)
	}
	ivs := []shardstore.Interval{{Lo: 0, Hi: uint32(benchVertices - 1)}}
	store := shardstore.New(base, ivs)
	view, err := store.Load(0)
	if err != nil {
		b.Fatal(err)
	}
	defer store.Release(view)

	codec := walkcodec.Default()
	kernel := walker.New(codec, 20, store, 1)
	pool := walkpool.New(codec, 1, 1, base, walkpool.NoopObserver{})
	rng := rand.New(rand.NewPCG(1, 2))
	policy := func(deg uint32, rng *rand.Rand) (bool, uint32) {
		return true, rng.Uint32N(deg)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w, _ := codec.Encode(uint32(i%benchVertices), uint32(i%benchVertices), 0)
		if err := kernel.Step(w, view, 0, pool, noopRecorder{}, policy, rng); err != nil {
			b.Fatal(err)
		}
	}
}

type noopRecorder struct{}

func (noopRecorder) OnVisit(source, vertex, hop uint32, threadID int) {}

func BenchmarkPoolSeedMove(b *testing.B) {
	base := filepath.Join(b.TempDir(), "bench")
	codec := walkcodec.Default()
	pool := walkpool.New(codec, 2, 1, base, walkpool.NoopObserver{})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w, _ := codec.Encode(uint32(i%benchVertices), 0, 0)
		pool.Seed(0, 0, w)
		if err := pool.Move(w, 1, 0, 0); err != nil {
			b.Fatal(err)
		}
	}
}
