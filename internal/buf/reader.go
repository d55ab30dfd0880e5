package buf

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShort is returned when a read would cross the end of the active range.
var ErrShort = errors.New("buf: read past end of range")

// Reader is a big-endian cursor over a byte slice.
//
// Nested structures are decoded inside a bounded sub-range: PushLimit narrows
// the readable range to the next n bytes and PopLimit restores the enclosing
// one. Reads never cross the innermost limit.
type Reader struct {
	data   []byte
	pos    int
	limits []int
}

// NewReader returns a Reader positioned at the start of b.
func NewReader(b []byte) *Reader {
	return &Reader{data: b}
}

// Pos returns the absolute cursor offset.
func (r *Reader) Pos() int { return r.pos }

// End returns the absolute end of the active range.
func (r *Reader) End() int {
	if n := len(r.limits); n > 0 {
		return r.limits[n-1]
	}
	return len(r.data)
}

// Remaining returns the bytes left in the active range.
func (r *Reader) Remaining() int { return r.End() - r.pos }

// Depth returns the number of pushed limits.
func (r *Reader) Depth() int { return len(r.limits) }

// PushLimit restricts reads to the next n bytes.
func (r *Reader) PushLimit(n int) error {
	if n < 0 || n > r.Remaining() {
		return fmt.Errorf("%w (limit %d, have %d)", ErrShort, n, r.Remaining())
	}
	r.limits = append(r.limits, r.pos+n)
	return nil
}

// PopLimit drops the innermost limit. The cursor is left where it is.
func (r *Reader) PopLimit() {
	if n := len(r.limits); n > 0 {
		r.limits = r.limits[:n-1]
	}
}

// Peek returns the next n bytes without advancing.
func (r *Reader) Peek(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, fmt.Errorf("%w (need %d at %d, have %d)", ErrShort, n, r.pos, r.Remaining())
	}
	return r.data[r.pos : r.pos+n], nil
}

// Bytes returns a copy of the next n bytes and advances past them.
func (r *Reader) Bytes(n int) ([]byte, error) {
	b, err := r.Peek(n)
	if err != nil {
		return nil, err
	}
	r.pos += n
	return append([]byte(nil), b...), nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	if _, err := r.Peek(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

// IndexByte returns the index of c relative to the cursor, or -1 if c does
// not occur before the end of the active range.
func (r *Reader) IndexByte(c byte) int {
	for i, b := range r.data[r.pos:r.End()] {
		if b == c {
			return i
		}
	}
	return -1
}

// U8 reads one byte.
func (r *Reader) U8() (uint8, error) {
	b, err := r.Peek(1)
	if err != nil {
		return 0, err
	}
	r.pos++
	return b[0], nil
}

// U16 reads a big-endian uint16.
func (r *Reader) U16() (uint16, error) {
	b, err := r.Peek(2)
	if err != nil {
		return 0, err
	}
	r.pos += 2
	return binary.BigEndian.Uint16(b), nil
}

// U32 reads a big-endian uint32.
func (r *Reader) U32() (uint32, error) {
	b, err := r.Peek(4)
	if err != nil {
		return 0, err
	}
	r.pos += 4
	return binary.BigEndian.Uint32(b), nil
}

// U64 reads a big-endian uint64.
func (r *Reader) U64() (uint64, error) {
	b, err := r.Peek(8)
	if err != nil {
		return 0, err
	}
	r.pos += 8
	return binary.BigEndian.Uint64(b), nil
}

// Uint reads a big-endian unsigned integer of width 1, 2, 4 or 8 bytes.
func (r *Reader) Uint(width int) (uint64, error) {
	switch width {
	case 1:
		v, err := r.U8()
		return uint64(v), err
	case 2:
		v, err := r.U16()
		return uint64(v), err
	case 4:
		v, err := r.U32()
		return uint64(v), err
	case 8:
		return r.U64()
	default:
		return 0, fmt.Errorf("buf: unsupported integer width %d", width)
	}
}
