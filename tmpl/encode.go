package tmpl

import (
	"fmt"

	"github.com/joshuapare/tmplkit/internal/buf"
	"github.com/joshuapare/tmplkit/pkg/types"
)

// Encode writes the list back to bytes. Offsets and sizes of every element
// are updated to the new layout and counters are recomputed from their
// lists. For an unmodified list the result equals the decoded input.
func (l *ElementList) Encode() ([]byte, error) {
	enc := &encoder{w: buf.NewWriter(l.size)}
	if err := enc.encodeRange(l.roots); err != nil {
		return nil, err
	}
	l.size = enc.w.Len()
	return enc.w.Bytes(), nil
}

type encoder struct {
	w       *buf.Writer
	bitsOff int
}

func encodeErr(e *Element, kind types.ErrKind, msg string) error {
	return &types.Error{Kind: kind, Field: e.field.ident(), Msg: msg, Offset: e.offset}
}

func (enc *encoder) encodeRange(list []*Element) error {
	for i, e := range list {
		f := e.field
		if f.Kind == KindCounter && !f.desc.fixed && i+1 < len(list) && list[i+1].field == f.list {
			e.num = uint64(len(list[i+1].children))
		}
		if f.Kind == KindBits && f.lead {
			enc.bitsOff = enc.w.Len()
			enc.w.Uint(f.desc.width, bitGroup(list[i:]))
		}
		if err := enc.encodeElement(e); err != nil {
			return err
		}
	}
	return nil
}

// bitGroup packs the bit fields of the group starting at list[0].
func bitGroup(list []*Element) uint64 {
	var v uint64
	for i, e := range list {
		f := e.field
		if f.Kind != KindBits || (i > 0 && f.lead) {
			break
		}
		v |= (e.num & mask(f.desc.size)) << uint(f.shift)
	}
	return v
}

func (enc *encoder) encodeElement(e *Element) error {
	w := enc.w
	f := e.field
	s := f.desc
	e.offset = w.Len()

	switch f.Kind {
	case KindInt, KindChar, KindTypeCode, KindBool, KindFlag, KindDate, KindFloat:
		if !s.rid {
			w.Uint(s.width, e.num)
		}
	case KindRect, KindPoint:
		for _, v := range e.nums {
			w.U16(v)
		}
	case KindColor:
		if s.width == 6 {
			for _, v := range e.nums {
				w.U16(v)
			}
		} else {
			w.Uint(s.width, e.num)
		}
	case KindAlign:
		pad := (s.width - w.Len()%s.width) % s.width
		e.slack = keepSlack(e.slack, pad)
		_, _ = w.Write(e.slack)
	case KindFill:
		e.data = fit(e.data, s.size)
		_, _ = w.Write(e.data)
	case KindString:
		if err := enc.encodeString(e); err != nil {
			return err
		}
	case KindHex:
		if err := enc.encodeHex(e); err != nil {
			return err
		}
	case KindBits:
		// written by encodeRange with the group lead
		e.offset = enc.bitsOff
		if f.lead {
			e.size = s.width
		}
		return nil
	case KindCounter:
		if err := enc.encodeCounter(e); err != nil {
			return err
		}
	case KindList:
		for _, entry := range e.children {
			entry.offset = w.Len()
			if err := enc.encodeRange(entry.children); err != nil {
				return err
			}
			entry.size = w.Len() - entry.offset
			if s.list == ListZero && (entry.size == 0 || w.Bytes()[entry.offset] == 0) {
				return encodeErr(entry, types.ErrKindValue, "LSTZ entry starts with a zero byte, which ends the list")
			}
		}
		if s.list == ListZero {
			w.U8(0)
		}
	case KindSkip:
		off := w.Reserve(s.width)
		if err := enc.encodeRange(e.children); err != nil {
			return err
		}
		n := w.Len() - off
		if !s.inclusive {
			n -= s.width
		}
		if uint64(n) > mask(s.width*8) {
			return encodeErr(e, types.ErrKindValue, fmt.Sprintf("section of %d bytes overflows its length prefix", n))
		}
		w.PutUintAt(off, s.width, uint64(n))
	case KindCosmetic:
	default:
		return encodeErr(e, types.ErrKindUnknownField, "no encoder")
	}
	if s.key {
		if err := enc.encodeRange(e.children); err != nil {
			return err
		}
	}
	e.size = w.Len() - e.offset
	return nil
}

// keepSlack returns old when it has the wanted length, else n zero bytes.
func keepSlack(old []byte, n int) []byte {
	if len(old) == n {
		return old
	}
	return make([]byte, n)
}

// fit pads or cuts b to exactly n bytes.
func fit(b []byte, n int) []byte {
	if len(b) == n {
		return b
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

func (enc *encoder) encodeString(e *Element) error {
	w := enc.w
	s := e.field.desc
	n := len(e.data)
	switch {
	case s.size > 0 && !s.cstr:
		if n > s.size-1 {
			return encodeErr(e, types.ErrKindValue, fmt.Sprintf("%d bytes do not fit %d-byte field", n, s.size))
		}
		w.U8(uint8(n))
		_, _ = w.Write(e.data)
		e.slack = keepSlack(e.slack, s.size-1-n)
		_, _ = w.Write(e.slack)
	case s.size > 0:
		if n > s.size-1 {
			return encodeErr(e, types.ErrKindValue, fmt.Sprintf("%d bytes do not fit %d-byte field", n, s.size))
		}
		_, _ = w.Write(e.data)
		e.slack = keepSlack(e.slack, s.size-n)
		_, _ = w.Write(e.slack)
	case s.cstr:
		_, _ = w.Write(e.data)
		w.U8(0)
		e.slack = keepSlack(e.slack, padLen(s.pad, n+1))
		_, _ = w.Write(e.slack)
	default:
		if uint64(n) > mask(s.width*8) {
			return encodeErr(e, types.ErrKindValue, fmt.Sprintf("%d bytes overflow the length prefix", n))
		}
		w.Uint(s.width, uint64(n))
		_, _ = w.Write(e.data)
		e.slack = keepSlack(e.slack, padLen(s.pad, s.width+n))
		_, _ = w.Write(e.slack)
	}
	return nil
}

func (enc *encoder) encodeHex(e *Element) error {
	w := enc.w
	s := e.field.desc
	switch {
	case s.rest:
	case s.size > 0:
		e.data = fit(e.data, s.size)
	default:
		n := uint64(len(e.data))
		if s.inclusive {
			n += uint64(s.width)
		}
		if n > mask(s.width*8) {
			return encodeErr(e, types.ErrKindValue, fmt.Sprintf("%d bytes overflow the length prefix", len(e.data)))
		}
		w.Uint(s.width, n)
	}
	_, _ = w.Write(e.data)
	return nil
}

func (enc *encoder) encodeCounter(e *Element) error {
	s := e.field.desc
	if s.fixed {
		return nil
	}
	v := e.num
	limit := mask(s.width * 8)
	if s.zeroBased {
		limit = mask(s.width*8-1) + 1
		v = (v - 1) & mask(s.width*8)
	}
	if e.num > limit {
		return encodeErr(e, types.ErrKindRepeatCount, fmt.Sprintf("%d entries overflow the counter", e.num))
	}
	enc.w.Uint(s.width, v)
	return nil
}
