package walkpool

// spill.go implements the on-disk spill-file format from spec.md §4.3,
// bit-exact:
//   Header: 8 bytes, little-endian u64 count of walks.
//   Body:   count fixed-width walk words (u64), little-endian.
//   No per-walk metadata; all state is inside the encoded word.

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/outcore/graphwalker/internal/unsafehelpers"
)

// ErrIO is the sentinel wrapped by every spill read/write failure.
// pkg/graphwalker maps it to the SpillIoError error kind.
var ErrIO = errors.New("walkpool: spill I/O failed")

func spillPath(base string, shard int) string {
	return fmt.Sprintf("%s.%d.walks", base, shard)
}

// Spill appends every thread's bucket for shard to the walks already in
// the shard's spill file (those spilled after an earlier interval and not
// yet freshened) and clears the in-memory buckets. No-op if the shard
// isn't dirty (spec.md §4.3: "no-op if dirty[p] is false").
func (p *Pool) Spill(shard int) error {
	if !p.dirty[shard].Load() {
		return nil
	}

	words, err := readSpillFile(spillPath(p.basePath, shard))
	if err != nil {
		return fmt.Errorf("%w: shard %d: %v", ErrIO, shard, err)
	}
	onDisk := len(words)
	for t := 0; t < p.numThreads; t++ {
		words = append(words, p.buckets[p.idx(t, shard)]...)
	}

	if err := writeSpillFile(spillPath(p.basePath, shard), words); err != nil {
		return fmt.Errorf("%w: shard %d: %v", ErrIO, shard, err)
	}

	for t := 0; t < p.numThreads; t++ {
		p.buckets[p.idx(t, shard)] = nil
	}
	p.dirty[shard].Store(false)
	p.observer.Spilled(shard, len(words)-onDisk)
	return nil
}

// Freshen is called when shard becomes resident: it merges the on-disk
// spill file into the pool's thread buckets (load-balanced round-robin
// across threads so no single thread inherits every parked walk), clears
// the spill file, and recomputes walknum[shard] and minstep[shard] from
// the merged truth so both counters stay exact across the residency
// transition even if they drifted under relaxed atomics.
func (p *Pool) Freshen(shard int) error {
	words, err := readSpillFile(spillPath(p.basePath, shard))
	if err != nil {
		return fmt.Errorf("%w: shard %d: %v", ErrIO, shard, err)
	}

	for i, w := range words {
		t := i % p.numThreads
		idx := p.idx(t, shard)
		p.buckets[idx] = append(p.buckets[idx], w)
	}

	if err := clearSpillFile(spillPath(p.basePath, shard)); err != nil {
		return fmt.Errorf("%w: shard %d: %v", ErrIO, shard, err)
	}

	var total int64
	minHop := noMinStep
	for t := 0; t < p.numThreads; t++ {
		bucket := p.buckets[p.idx(t, shard)]
		total += int64(len(bucket))
		for _, w := range bucket {
			_, _, hop := p.codec.Decode(w)
			if hop < minHop {
				minHop = hop
			}
		}
	}
	p.walknum[shard].Store(total)
	p.minstep[shard].Store(minHop)
	p.dirty[shard].Store(false)
	p.observer.Freshened(shard, len(words))
	return nil
}

func writeSpillFile(path string, words []uint64) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	var hdr [8]byte
	binary.LittleEndian.PutUint64(hdr[:], uint64(len(words)))
	if _, err := f.Write(hdr[:]); err != nil {
		f.Close()
		return err
	}
	if len(words) > 0 {
		if _, err := f.Write(unsafehelpers.BytesFromUint64Slice(words)); err != nil {
			f.Close()
			return err
		}
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readSpillFile(path string) ([]uint64, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		// Shard has never been spilled (e.g. it was the first shard made
		// resident and got walks only via Seed): an empty spill is
		// logically equivalent to a zero-count file.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var hdr [8]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	count := binary.LittleEndian.Uint64(hdr[:])
	if count == 0 {
		return nil, nil
	}

	body := make([]byte, count*8)
	if _, err := io.ReadFull(f, body); err != nil {
		return nil, err
	}
	src := unsafehelpers.Uint64SliceFromBytes(body)
	words := make([]uint64, len(src))
	copy(words, src)
	return words, nil
}

func clearSpillFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
