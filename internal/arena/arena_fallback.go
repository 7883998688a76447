//go:build !goexperiment.arenas
// +build !goexperiment.arenas

// Fallback build of the arena package for toolchains without the arenas
// experiment enabled (GOEXPERIMENT=arenas). Behaviourally identical from
// the shard store's point of view — Free just drops the slices for the GC
// to collect on its own schedule instead of releasing them eagerly. The
// shard store's Load/Release contract (spec.md §4.1, §9) does not depend
// on *when* memory is reclaimed, only on single ownership and read-only
// sharing while resident, so this fallback preserves all guarantees the
// core engine relies on.
//
// © 2025 graphwalker authors. MIT License.
package arena

// Arena is a no-op allocator in this build: it just remembers nothing and
// lets normal Go slices be garbage collected once Free is called and the
// caller drops its references.
type Arena struct{}

// New constructs an arena handle. There is nothing to initialise in the
// fallback build.
func New() *Arena { return &Arena{} }

// Free is a no-op: the GC reclaims the slices once nothing references
// them anymore, same as any ordinary heap allocation.
func (a *Arena) Free() {}

// MakeUint32Slice allocates a []uint32 of length n on the regular heap.
func MakeUint32Slice(a *Arena, n int) []uint32 {
	return make([]uint32, n)
}

// MakeUint64Slice allocates a []uint64 of length n on the regular heap.
func MakeUint64Slice(a *Arena, n int) []uint64 {
	return make([]uint64, n)
}
