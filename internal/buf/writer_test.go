package buf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterIntegers(t *testing.T) {
	w := NewWriter(0)
	w.U8(0x01)
	w.U16(0x0203)
	w.U32(0x04050607)
	w.U64(0x08090a0b0c0d0e0f)
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f}, w.Bytes())
	require.Equal(t, 15, w.Len())
}

func TestWriterUintWidths(t *testing.T) {
	w := NewWriter(16)
	w.Uint(1, 0x1ff)
	w.Uint(2, 0x10203)
	w.Uint(4, 0xAABBCCDD)
	require.Equal(t, []byte{0xff, 0x02, 0x03, 0xAA, 0xBB, 0xCC, 0xDD}, w.Bytes())

	require.Panics(t, func() { w.Uint(3, 0) })
}

func TestWriterReserveAndPatch(t *testing.T) {
	w := NewWriter(8)
	w.U8(0xEE)
	off := w.Reserve(2)
	_, err := w.Write([]byte("abc"))
	require.NoError(t, err)
	w.PutUintAt(off, 2, uint64(w.Len()-off-2))
	w.Zero(1)

	require.Equal(t, 1, off)
	require.Equal(t, []byte{0xEE, 0x00, 0x03, 'a', 'b', 'c', 0x00}, w.Bytes())

	require.Panics(t, func() { w.PutUintAt(0, 3, 0) })
}
