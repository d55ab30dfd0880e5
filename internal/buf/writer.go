package buf

import "encoding/binary"

// Writer accumulates big-endian output. Length prefixes whose value is only
// known after the body is written are handled with Reserve and PutUintAt.
type Writer struct {
	b []byte
}

// NewWriter returns a Writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{b: make([]byte, 0, capacity)}
}

// Len returns the number of bytes written.
func (w *Writer) Len() int { return len(w.b) }

// Bytes returns the written bytes. The slice aliases the Writer's buffer.
func (w *Writer) Bytes() []byte { return w.b }

// Write appends p. It never fails.
func (w *Writer) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}

// Zero appends n zero bytes.
func (w *Writer) Zero(n int) {
	for ; n > 0; n-- {
		w.b = append(w.b, 0)
	}
}

// U8 appends one byte.
func (w *Writer) U8(v uint8) { w.b = append(w.b, v) }

// U16 appends a big-endian uint16.
func (w *Writer) U16(v uint16) { w.b = binary.BigEndian.AppendUint16(w.b, v) }

// U32 appends a big-endian uint32.
func (w *Writer) U32(v uint32) { w.b = binary.BigEndian.AppendUint32(w.b, v) }

// U64 appends a big-endian uint64.
func (w *Writer) U64(v uint64) { w.b = binary.BigEndian.AppendUint64(w.b, v) }

// Uint appends the low width bytes of v, big-endian. Width must be 1, 2, 4 or 8.
func (w *Writer) Uint(width int, v uint64) {
	switch width {
	case 1:
		w.U8(uint8(v))
	case 2:
		w.U16(uint16(v))
	case 4:
		w.U32(uint32(v))
	case 8:
		w.U64(v)
	default:
		panic("buf: unsupported integer width")
	}
}

// Reserve appends n zero bytes and returns their offset.
func (w *Writer) Reserve(n int) int {
	off := len(w.b)
	w.Zero(n)
	return off
}

// PutUintAt overwrites width bytes at off with v, big-endian.
func (w *Writer) PutUintAt(off, width int, v uint64) {
	b := w.b[off : off+width]
	switch width {
	case 1:
		b[0] = uint8(v)
	case 2:
		binary.BigEndian.PutUint16(b, uint16(v))
	case 4:
		binary.BigEndian.PutUint32(b, uint32(v))
	case 8:
		binary.BigEndian.PutUint64(b, v)
	default:
		panic("buf: unsupported integer width")
	}
}
