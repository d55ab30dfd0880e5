package buf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReaderIntegers(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f})

	u8, err := r.U8()
	require.NoError(t, err)
	require.Equal(t, uint8(0x01), u8)

	u16, err := r.U16()
	require.NoError(t, err)
	require.Equal(t, uint16(0x0203), u16)

	u32, err := r.U32()
	require.NoError(t, err)
	require.Equal(t, uint32(0x04050607), u32)

	u64, err := r.U64()
	require.NoError(t, err)
	require.Equal(t, uint64(0x08090a0b0c0d0e0f), u64)

	require.Equal(t, 0, r.Remaining())
	_, err = r.U8()
	require.True(t, errors.Is(err, ErrShort))
}

func TestReaderLimits(t *testing.T) {
	r := NewReader([]byte{1, 2, 3, 4, 5, 6})
	require.NoError(t, r.Skip(1))
	require.NoError(t, r.PushLimit(3))
	require.Equal(t, 4, r.End())
	require.Equal(t, 1, r.Depth())

	b, err := r.Bytes(3)
	require.NoError(t, err)
	require.Equal(t, []byte{2, 3, 4}, b)

	_, err = r.U8()
	require.ErrorIs(t, err, ErrShort, "read must not cross the pushed limit")

	r.PopLimit()
	require.Equal(t, 2, r.Remaining())
	require.Error(t, r.PushLimit(3))
}

func TestReaderIndexByte(t *testing.T) {
	r := NewReader([]byte{'a', 'b', 0, 'c', 0})
	require.Equal(t, 2, r.IndexByte(0))
	require.NoError(t, r.Skip(3))
	require.Equal(t, 1, r.IndexByte(0))
	require.NoError(t, r.PushLimit(1))
	require.Equal(t, -1, r.IndexByte(0))
}

func TestReaderBytesCopies(t *testing.T) {
	src := []byte{9, 8, 7}
	r := NewReader(src)
	b, err := r.Bytes(3)
	require.NoError(t, err)
	b[0] = 0
	require.Equal(t, byte(9), src[0])
}

func TestWriterReserve(t *testing.T) {
	w := NewWriter(0)
	off := w.Reserve(2)
	w.U8(0xaa)
	w.Uint(4, 0x01020304)
	w.PutUintAt(off, 2, uint64(w.Len()))
	require.Equal(t, []byte{0x00, 0x07, 0xaa, 0x01, 0x02, 0x03, 0x04}, w.Bytes())
}

func TestReaderUintWidths(t *testing.T) {
	w := NewWriter(16)
	for _, width := range []int{1, 2, 4, 8} {
		w.Uint(width, 0x7f)
	}
	r := NewReader(w.Bytes())
	for _, width := range []int{1, 2, 4, 8} {
		v, err := r.Uint(width)
		require.NoError(t, err)
		require.Equal(t, uint64(0x7f), v, "width %d", width)
	}
	_, err := r.Uint(3)
	require.Error(t, err)
}
