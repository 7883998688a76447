// Package unsafehelpers centralises **all** unavoidable usage of the
// `unsafe` standard-library package so that the rest of graphwalker stays
// clean and easier to audit. Every helper is documented with clear
// pre-/post-conditions.
//
// ⚠️  DISCLAIMER   These helpers deliberately bypass Go's usual bounds and
// aliasing guarantees for the sake of zero-copy reinterpretation of large
// on-disk buffers (visit counters, walk spill words). Use ONLY inside
// this repository; they are not part of the public API and may change
// without notice.
//
// All functions are go:linkname-free, cgo-free and pure Go 1.24.
//
// © 2025 graphwalker authors. MIT License.
package unsafehelpers

import (
	"encoding/binary"
	"unsafe"
)

// nativeLittleEndian reports whether this process's host is little-endian,
// computed once at init. Every reinterpret-cast helper below falls back to
// a byte-by-byte encoding/binary path when the host is big-endian, since
// the shard/spill file formats are mandated little-endian on the wire.
var nativeLittleEndian = func() bool {
	var x uint16 = 1
	b := (*[2]byte)(unsafe.Pointer(&x))
	return b[0] == 1
}()

// Uint32SliceFromBytes reinterprets a little-endian byte buffer as a
// []uint32 without copying, when the host is little-endian. buf's length
// must be a multiple of 4. On a big-endian host it allocates and decodes
// instead, so callers get correct results on every platform at the cost of
// an allocation on the rare non-x86/arm64 target.
func Uint32SliceFromBytes(buf []byte) []uint32 {
	if len(buf)%4 != 0 {
		panic("unsafehelpers: buffer length not a multiple of 4")
	}
	n := len(buf) / 4
	if n == 0 {
		return nil
	}
	if nativeLittleEndian {
		return unsafe.Slice((*uint32)(unsafe.Pointer(&buf[0])), n)
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
	return out
}

// Uint64SliceFromBytes reinterprets a little-endian byte buffer as a
// []uint64 without copying, when the host is little-endian. buf's length
// must be a multiple of 8. Used for the walk spill file body, which is a
// flat run of little-endian 64-bit walk words.
func Uint64SliceFromBytes(buf []byte) []uint64 {
	if len(buf)%8 != 0 {
		panic("unsafehelpers: buffer length not a multiple of 8")
	}
	n := len(buf) / 8
	if n == 0 {
		return nil
	}
	if nativeLittleEndian {
		return unsafe.Slice((*uint64)(unsafe.Pointer(&buf[0])), n)
	}
	out := make([]uint64, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(buf[i*8:])
	}
	return out
}

// BytesFromUint64Slice is the inverse of Uint64SliceFromBytes: it returns a
// little-endian byte view of a []uint64 suitable for writing straight to a
// spill file on a little-endian host, falling back to an allocating encode
// elsewhere. The returned slice aliases words; callers must not mutate
// words while the byte view is in use for I/O.
func BytesFromUint64Slice(words []uint64) []byte {
	if len(words) == 0 {
		return nil
	}
	if nativeLittleEndian {
		return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(words)*8)
	}
	out := make([]byte, len(words)*8)
	for i, w := range words {
		binary.LittleEndian.PutUint64(out[i*8:], w)
	}
	return out
}

/* -------------------------------------------------------------------------
   Alignment helpers — not called anywhere in this repository at present.
   ------------------------------------------------------------------------- */

// AlignUp rounds x up to the nearest multiple of align (which must be a
// power of two).
func AlignUp(x, align uintptr) uintptr {
	return (x + align - 1) &^ (align - 1)
}

// IsPowerOfTwo returns true if x is a power of two (exactly one bit set).
func IsPowerOfTwo(x uintptr) bool {
	return x != 0 && (x&(x-1)) == 0
}
