package testutil

import (
	"encoding/binary"
	"testing"
)

// TMPL encodes (label, type) pairs as TMPL resource bytes.
//
// Example:
//
//	data := testutil.TMPL(t,
//	    "Count", "OCNT",
//	    "*****", "LSTC",
//	    "String", "PSTR",
//	    "*****", "LSTE",
//	)
func TMPL(t *testing.T, pairs ...string) []byte {
	t.Helper()

	if len(pairs)%2 != 0 {
		t.Fatalf("TMPL needs label/type pairs, got %d strings", len(pairs))
	}
	var out []byte
	for i := 0; i < len(pairs); i += 2 {
		label, code := pairs[i], pairs[i+1]
		if len(label) > 255 || len(code) != 4 {
			t.Fatalf("bad TMPL entry %q %q", label, code)
		}
		out = append(out, byte(len(label)))
		out = append(out, label...)
		out = append(out, code...)
	}
	return out
}

// Buf builds big-endian test data.
//
//	data := new(testutil.Buf).U16(2).PStr("one").PStr("two").Bytes()
type Buf struct {
	b []byte
}

// U8 appends a byte.
func (b *Buf) U8(v uint8) *Buf { b.b = append(b.b, v); return b }

// U16 appends a big-endian uint16.
func (b *Buf) U16(v uint16) *Buf { b.b = binary.BigEndian.AppendUint16(b.b, v); return b }

// U32 appends a big-endian uint32.
func (b *Buf) U32(v uint32) *Buf { b.b = binary.BigEndian.AppendUint32(b.b, v); return b }

// U64 appends a big-endian uint64.
func (b *Buf) U64(v uint64) *Buf { b.b = binary.BigEndian.AppendUint64(b.b, v); return b }

// Raw appends p unchanged.
func (b *Buf) Raw(p ...byte) *Buf { b.b = append(b.b, p...); return b }

// Str appends s unchanged.
func (b *Buf) Str(s string) *Buf { b.b = append(b.b, s...); return b }

// PStr appends a Pascal string (length byte then bytes).
func (b *Buf) PStr(s string) *Buf { return b.U8(uint8(len(s))).Str(s) }

// CStr appends a NUL-terminated string.
func (b *Buf) CStr(s string) *Buf { return b.Str(s).U8(0) }

// Zero appends n zero bytes.
func (b *Buf) Zero(n int) *Buf { b.b = append(b.b, make([]byte, n)...); return b }

// Len returns the number of bytes built so far.
func (b *Buf) Len() int { return len(b.b) }

// Bytes returns a copy of the built data.
func (b *Buf) Bytes() []byte { return append([]byte(nil), b.b...) }
