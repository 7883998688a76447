// Package shardstore is the read-only, on-disk representation of a
// partitioned graph's adjacency. It loads exactly one shard's CSR into
// memory on demand (spec.md §4.1) and guarantees the resident shard's
// buffers are immutable and safely shared by every worker thread for the
// lifetime of the returned view.
//
// © 2025 graphwalker authors. MIT License.
package shardstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/outcore/graphwalker/internal/arena"
)

// ErrIO is the sentinel wrapped by every I/O failure this package returns,
// after retries are exhausted. pkg/graphwalker maps it to the
// ShardIoError error kind.
var ErrIO = errors.New("shardstore: shard read failed")

// Interval is a half-open-free, inclusive vertex range [Lo, Hi].
type Interval struct {
	Lo, Hi uint32
}

// Len returns the number of vertices the interval covers.
func (iv Interval) Len() int { return int(iv.Hi-iv.Lo) + 1 }

// ShardView is a read-only borrow of a shard's CSR. It is valid from
// Load until the matching Release; no walker may retain a reference to
// its slices past that point (spec.md §9 "Ownership of shard memory").
type ShardView struct {
	P      int
	Lo, Hi uint32
	BegPos []uint64 // len = n+1
	Csr    []uint32 // len = m

	ar *arena.Arena
}

// Degree returns the out-degree of the absolute vertex id v, which must
// lie within [Lo, Hi].
func (v *ShardView) Degree(vertex uint32) uint32 {
	local := vertex - v.Lo
	return uint32(v.BegPos[local+1] - v.BegPos[local])
}

// Neighbor returns the k-th out-neighbor (0-indexed) of the absolute
// vertex id v.
func (v *ShardView) Neighbor(vertex uint32, k uint32) uint32 {
	local := vertex - v.Lo
	return v.Csr[v.BegPos[local]+uint64(k)]
}

// Contains reports whether the absolute vertex id lies within this
// shard's interval.
func (v *ShardView) Contains(vertex uint32) bool {
	return vertex >= v.Lo && vertex <= v.Hi
}

// Observer receives lifecycle notifications from the store so that the
// engine can log and emit metrics without the store importing the
// engine's logging/metrics stack (kept dependency-free per spec.md §9).
type Observer interface {
	ShardLoadStarted(p int)
	ShardLoadRetrying(p int, attempt int, err error)
	ShardLoadSucceeded(p int, vertices, edges int, dur time.Duration)
	ShardLoadFailed(p int, err error)
	ShardReleased(p int)
}

// NoopObserver discards every notification.
type NoopObserver struct{}

func (NoopObserver) ShardLoadStarted(int)                                 {}
func (NoopObserver) ShardLoadRetrying(int, int, error)                    {}
func (NoopObserver) ShardLoadSucceeded(int, int, int, time.Duration)      {}
func (NoopObserver) ShardLoadFailed(int, error)                           {}
func (NoopObserver) ShardReleased(int)                                    {}

// Store is the on-disk shard store. At most one ShardView is ever
// outstanding at a time; the engine enforces this by releasing the
// previous view before loading the next (spec.md §5 resource budget).
type Store struct {
	basePath  string
	intervals []Interval
	retries   int
	backoff   time.Duration
	observer  Observer
}

// Option configures a Store.
type Option func(*Store)

// WithObserver plugs a lifecycle observer (logging/metrics). Defaults to
// NoopObserver.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithRetries overrides the retry budget for transient read failures
// (spec.md §7: "retry transient read failures up to 3 attempts with
// backoff"). attempts counts retries after the first read. Defaults to 3
// retries, 50ms initial backoff doubling each retry.
func WithRetries(attempts int, initialBackoff time.Duration) Option {
	return func(s *Store) {
		s.retries = attempts
		s.backoff = initialBackoff
	}
}

// New constructs a Store for the given base path and the already-parsed,
// validated interval partition.
func New(basePath string, intervals []Interval, opts ...Option) *Store {
	s := &Store{
		basePath:  basePath,
		intervals: intervals,
		retries:   3,
		backoff:   50 * time.Millisecond,
		observer:  NoopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NumShards returns the number of partitions.
func (s *Store) NumShards() int { return len(s.intervals) }

// Interval returns the [lo,hi] range owned by shard p.
func (s *Store) Interval(p int) Interval { return s.intervals[p] }

// Load reads shard p's CSR into memory, retrying transient failures per
// the configured backoff schedule before returning a wrapped ErrIO.
func (s *Store) Load(p int) (*ShardView, error) {
	if p < 0 || p >= len(s.intervals) {
		return nil, fmt.Errorf("shardstore: shard index %d out of range [0,%d)", p, len(s.intervals))
	}
	iv := s.intervals[p]
	s.observer.ShardLoadStarted(p)

	start := time.Now()
	var lastErr error
	backoff := s.backoff
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			s.observer.ShardLoadRetrying(p, attempt, lastErr)
			time.Sleep(backoff)
			backoff *= 2
		}
		view, err := s.loadOnce(p, iv)
		if err == nil {
			s.observer.ShardLoadSucceeded(p, iv.Len(), len(view.Csr), time.Since(start))
			return view, nil
		}
		lastErr = err
	}
	wrapped := fmt.Errorf("%w: shard %d: %v", ErrIO, p, lastErr)
	s.observer.ShardLoadFailed(p, wrapped)
	return nil, wrapped
}

func (s *Store) loadOnce(p int, iv Interval) (*ShardView, error) {
	f, err := openShardFile(s.basePath, p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ar := arena.New()
	begPos, csr, err := decodeInto(f, ar, iv.Len())
	if err != nil {
		ar.Free()
		return nil, err
	}
	return &ShardView{
		P:      p,
		Lo:     iv.Lo,
		Hi:     iv.Hi,
		BegPos: begPos,
		Csr:    csr,
		ar:     ar,
	}, nil
}

// Release frees the shard's CSR buffers. Must be called exactly once per
// Load. After Release, the view's slices must not be dereferenced.
func (s *Store) Release(v *ShardView) {
	if v == nil {
		return
	}
	if v.ar != nil {
		v.ar.Free()
		v.ar = nil
	}
	v.BegPos = nil
	v.Csr = nil
	s.observer.ShardReleased(v.P)
}

// ShardOf returns the shard index containing the absolute vertex id, or
// -1 if no shard covers it (used by the walker kernel to detect a walk
// stepping past N, which the engine treats as termination per spec.md
// §4.4 step 3: "if q < P ... else terminate").
func (s *Store) ShardOf(vertex uint32) int {
	// Intervals are sorted and disjoint (spec.md §3 invariant); a linear
	// scan is fine since P is small relative to N by construction (a
	// shard is sized to fit the memory budget, so P rarely exceeds a few
	// hundred). Binary search would be the natural upgrade if P grows
	// large enough to matter.
	for i, iv := range s.intervals {
		if vertex >= iv.Lo && vertex <= iv.Hi {
			return i
		}
	}
	return -1
}
