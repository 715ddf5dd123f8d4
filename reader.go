package flatjson

import "encoding/binary"

// reader is a position-tracked cursor over input bytes (spec.md §4.1,
// component C1). It performs no UTF-8 validation; that happens only at
// span extraction, via the pluggable Validator.
type reader struct {
	buf []byte
	idx int
}

func newReader(buf []byte) *reader {
	return &reader{buf: buf}
}

// next returns the byte at the cursor and advances past it.
func (r *reader) next() (byte, bool) {
	if r.idx >= len(r.buf) {
		return 0, false
	}
	b := r.buf[r.idx]
	r.idx++
	return b, true
}

// peek returns the byte at the cursor without advancing.
func (r *reader) peek() (byte, bool) {
	if r.idx >= len(r.buf) {
		return 0, false
	}
	return r.buf[r.idx], true
}

// matchPattern advances past the pattern only if it matches fully at
// the cursor; otherwise the cursor is left untouched.
func (r *reader) matchPattern(pattern []byte) bool {
	end := r.idx + len(pattern)
	if end > len(r.buf) {
		return false
	}
	for i, b := range pattern {
		if r.buf[r.idx+i] != b {
			return false
		}
	}
	r.idx = end
	return true
}

// setIndex repositions the cursor.
func (r *reader) setIndex(i int) { r.idx = i }

// index returns the current cursor position.
func (r *reader) index() int { return r.idx }

// sliceFrom returns a borrowed span [start, current cursor).
func (r *reader) sliceFrom(start int) []byte {
	return r.buf[start:r.idx]
}

// byteAt returns the byte at an absolute buffer offset.
func (r *reader) byteAt(i int) byte { return r.buf[i] }

// peekU64 reads the next little-endian word (zero-padded if short)
// without moving the cursor, and returns how many real bytes it holds.
func (r *reader) peekU64() (word uint64, n int) {
	remaining := len(r.buf) - r.idx
	if remaining >= 8 {
		return binary.LittleEndian.Uint64(r.buf[r.idx : r.idx+8]), 8
	}
	if remaining <= 0 {
		return 0, 0
	}
	var tmp [8]byte
	copy(tmp[:], r.buf[r.idx:])
	return binary.LittleEndian.Uint64(tmp[:]), remaining
}

// advance moves the cursor forward by n bytes.
func (r *reader) advance(n int) { r.idx += n }

// sliceBetween returns a borrowed span [start, end).
func (r *reader) sliceBetween(start, end int) []byte {
	return r.buf[start:end]
}

// skipWhitespace advances the cursor past JSON whitespace (space, tab,
// newline, carriage return).
func (r *reader) skipWhitespace() {
	for r.idx < len(r.buf) {
		switch r.buf[r.idx] {
		case ' ', '\t', '\n', '\r':
			r.idx++
		default:
			return
		}
	}
}
