// Package visitstore persists the per-vertex visit-count vector the
// application hook accumulates (spec.md §4.7, §6 "Visit-count file").
// Two backends share one interface: a file-backed store doing positional
// read-modify-write over an on-disk counter array, and a RAM-backed store
// for the `semi_external` configuration knob that keeps counters resident
// instead of paying disk I/O on every interval merge.
//
// © 2025 graphwalker authors. MIT License.
package visitstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/outcore/graphwalker/internal/unsafehelpers"
)

// ErrIO is the sentinel wrapped by every visit-store I/O failure.
var ErrIO = errors.New("visitstore: I/O failed")

// Width is the on-disk counter width, 4 or 8 bytes (spec.md §6: "Counter
// width is a configuration parameter (4 or 8 bytes)").
type Width int

const (
	Width32 Width = 4
	Width64 Width = 8
)

func (w Width) valid() bool { return w == Width32 || w == Width64 }

// Store is the persistence surface after_interval merges into: add a
// window of freshly accumulated per-thread counts into the persistent
// counter array at the given vertex offset, and read the full vector
// back out once the engine has finished (or for an inspector tool).
type Store interface {
	// AddWindow adds delta[i] to the persistent counter for vertex
	// lo+i, for every i in range. This is the read-modify-write
	// spec.md §4.7's after_interval performs over the window slice.
	AddWindow(lo uint32, delta []uint64) error
	// ReadAll returns every counter for vertices [0, n).
	ReadAll(n uint32) ([]uint64, error)
	// Close releases any underlying resources.
	Close() error
}

// Open constructs the configured backend. RAM-backed when ram is true
// (the engine's semi_external option), file-backed otherwise, rooted at
// path with the given counter width.
func Open(path string, n uint32, width Width, ram bool) (Store, error) {
	if !width.valid() {
		return nil, fmt.Errorf("visitstore: invalid counter width %d, want 4 or 8", width)
	}
	if ram {
		return newRAMStore(n), nil
	}
	return newFileStore(path, n, width)
}

// ramStore keeps every counter in a plain Go slice. Used when the engine
// is configured with semi_external, trading the disk I/O a large graph's
// visit-count file would otherwise incur for full in-memory residency.
type ramStore struct {
	counts []uint64
}

func newRAMStore(n uint32) *ramStore {
	return &ramStore{counts: make([]uint64, n)}
}

func (s *ramStore) AddWindow(lo uint32, delta []uint64) error {
	for i, d := range delta {
		s.counts[int(lo)+i] += d
	}
	return nil
}

func (s *ramStore) ReadAll(n uint32) ([]uint64, error) {
	out := make([]uint64, n)
	copy(out, s.counts)
	return out, nil
}

func (s *ramStore) Close() error { return nil }

// fileStore backs the visit-count file with os.File.ReadAt/WriteAt,
// little-endian, fixed counter width (spec.md §6). It keeps counters on
// disk between intervals, reading only the window slice a shard's
// vertices fall into and writing it straight back, so resident memory
// stays proportional to one shard's width rather than N.
type fileStore struct {
	f     *os.File
	width Width
}

func newFileStore(path string, n uint32, width Width) (*fileStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", ErrIO, err)
	}
	size := int64(n) * int64(width)
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: truncate: %v", ErrIO, err)
	}
	return &fileStore{f: f, width: width}, nil
}

func (s *fileStore) AddWindow(lo uint32, delta []uint64) error {
	if len(delta) == 0 {
		return nil
	}
	n := len(delta)
	buf := make([]byte, n*int(s.width))
	off := int64(lo) * int64(s.width)
	if _, err := s.f.ReadAt(buf, off); err != nil {
		return fmt.Errorf("%w: read window at %d: %v", ErrIO, lo, err)
	}
	for i, d := range delta {
		if d == 0 {
			continue
		}
		switch s.width {
		case Width32:
			cur := binary.LittleEndian.Uint32(buf[i*4:])
			binary.LittleEndian.PutUint32(buf[i*4:], cur+uint32(d))
		case Width64:
			cur := binary.LittleEndian.Uint64(buf[i*8:])
			binary.LittleEndian.PutUint64(buf[i*8:], cur+d)
		}
	}
	if _, err := s.f.WriteAt(buf, off); err != nil {
		return fmt.Errorf("%w: write window at %d: %v", ErrIO, lo, err)
	}
	return nil
}

func (s *fileStore) ReadAll(n uint32) ([]uint64, error) {
	buf := make([]byte, int64(n)*int64(s.width))
	if _, err := s.f.ReadAt(buf, 0); err != nil {
		return nil, fmt.Errorf("%w: read all: %v", ErrIO, err)
	}
	out := make([]uint64, n)
	switch s.width {
	case Width32:
		words := unsafehelpers.Uint32SliceFromBytes(buf)
		for i, v := range words {
			out[i] = uint64(v)
		}
	case Width64:
		words := unsafehelpers.Uint64SliceFromBytes(buf)
		copy(out, words)
	}
	return out, nil
}

func (s *fileStore) Close() error {
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", ErrIO, err)
	}
	return nil
}
