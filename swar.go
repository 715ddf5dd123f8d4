package flatjson

import "github.com/klauspost/cpuid/v2"

// This file implements the SIMD-within-a-register (SWAR) byte search
// described in spec.md §4.2 and §9: broadcast a byte across a 64-bit
// word, XOR against the haystack word, then use the classic
// "has a zero byte" trick (subtract-one/invert/and-high-bits) to find
// a candidate position in one word at a time, without branching per
// byte. This is portable 64-bit arithmetic, not an assembly intrinsic
// (spec.md §9's portability note); the only machine-specific knob is
// how many words we scan per iteration before checking for a hit,
// which is chosen once at init time below.

const (
	loBits = 0x0101010101010101
	hiBits = 0x8080808080808080
)

// broadcast replicates b into every byte of a 64-bit word.
func broadcast(b byte) uint64 {
	return uint64(b) * loBits
}

// hasZeroByte returns a word with the high bit of each zero byte in x
// set (and everything else is not reliably zero -- candidates must be
// confirmed), using the well known SWAR "hasless" trick adapted for
// equality testing against a broadcast mask by the caller.
func hasZeroByte(x uint64) uint64 {
	return (x - loBits) & ^x & hiBits
}

// firstMatchingByte returns the byte index (0-7, little-endian) of the
// first byte in word equal to target, and whether any match was found.
func firstMatchingByte(word uint64, target byte) (int, bool) {
	masked := word ^ broadcast(target)
	hits := hasZeroByte(masked)
	if hits == 0 {
		return 0, false
	}
	// Index of the lowest set bit, divided by 8 (each byte owns one
	// high bit at position 8k+7).
	return trailingZeroBytes(hits), true
}

// trailingZeroBytes returns the index (0-7) of the lowest set high-bit byte.
func trailingZeroBytes(hits uint64) int {
	n := 0
	for hits&0xff == 0 {
		hits >>= 8
		n++
	}
	return n
}

// swarChunkWords is how many consecutive 8-byte words the raw
// container scanners (§4.2) examine before re-checking loop bounds.
// Wide-vector-capable CPUs get a longer unrolled stride since the
// per-iteration bookkeeping overhead amortizes better; this mirrors
// the cpuid-gated dispatch in simdjson-go's stage1_find_marks_amd64.go,
// minus the actual SIMD instructions -- we are only choosing a loop
// stride, never branching to assembly.
var swarChunkWords = func() int {
	if cpuid.CPU.Has(cpuid.AVX2) {
		return 8 // 64 bytes per outer iteration
	}
	return 1 // 8 bytes per outer iteration
}()

// combinedMask ORs together per-byte hit masks for three structural
// byte classes in one pass, letting the caller short-circuit an entire
// word when it contains none of them (spec.md §4.2's "combined bit-mask
// short-circuits chunks that contain no interesting byte").
func combinedMask(word uint64, a, b, c byte) uint64 {
	m1 := hasZeroByte(word ^ broadcast(a))
	m2 := hasZeroByte(word ^ broadcast(b))
	m3 := hasZeroByte(word ^ broadcast(c))
	return m1 | m2 | m3
}
