package tmpl

import (
	"errors"
	"fmt"

	"github.com/joshuapare/tmplkit/internal/buf"
	"github.com/joshuapare/tmplkit/pkg/types"
)

// DecodeOptions controls Decode.
type DecodeOptions struct {
	// KeepTrailing keeps bytes left after the last field (top level or in a
	// skip section) in a synthetic hex element instead of failing with
	// ErrTrailingData.
	KeepTrailing bool

	// Limits bounds nesting, list sizes, tree size and input size. The zero
	// value means types.DefaultLimits().
	Limits types.Limits

	// ResourceID is the ID of the resource being decoded. KRID keys select
	// their section by it.
	ResourceID int16
}

func (o DecodeOptions) limits() types.Limits {
	if o.Limits == (types.Limits{}) {
		return types.DefaultLimits()
	}
	return o.Limits
}

// trailingField describes leftover bytes kept by KeepTrailing.
var trailingField = &Field{Label: "Unparsed data", Type: "HEXD", Kind: KindHex, desc: registry["HEXD"]}

// Decode interprets data according to t. On failure it returns a
// *types.Error and no list.
func Decode(t *Template, data []byte, opts DecodeOptions) (*ElementList, error) {
	lim := opts.limits()
	if err := lim.Validate(); err != nil {
		return nil, types.NewError(types.ErrKindValue, "bad limits", err)
	}
	if len(data) > lim.MaxDataSize {
		return nil, &types.Error{
			Kind:   types.ErrKindValue,
			Msg:    fmt.Sprintf("resource is %d bytes, limit %d", len(data), lim.MaxDataSize),
			Offset: -1,
		}
	}
	l := &ElementList{tmpl: t, opts: opts}
	d := &decoder{r: buf.NewReader(data), limits: lim, keep: opts.KeepTrailing, rid: opts.ResourceID, owner: l}
	roots, err := d.decodeRange(t.Fields, nil)
	if err != nil {
		return nil, err
	}
	if roots, err = d.trailing(roots, nil); err != nil {
		return nil, err
	}
	l.roots = roots
	l.size = d.r.Pos()
	return l, nil
}

type decoder struct {
	r      *buf.Reader
	limits types.Limits
	keep   bool
	rid    int16
	owner  *ElementList
	depth  int
	made   int // elements created so far

	bits    uint64 // current bit group value
	bitsOff int    // offset of the current bit group
	count   int    // last counter value, consumed by LSTC
}

func (d *decoder) fail(kind types.ErrKind, f *Field, msg string, err error) error {
	var te *types.Error
	if errors.As(err, &te) {
		return err
	}
	return &types.Error{Kind: kind, Field: f.ident(), Msg: msg, Offset: d.r.Pos(), Err: err}
}

// short maps a reader error to a truncation error for f.
func (d *decoder) short(f *Field, err error) error {
	return d.fail(types.ErrKindTruncated, f, "", err)
}

func (d *decoder) decodeRange(fields []*Field, parent *Element) ([]*Element, error) {
	out := make([]*Element, 0, len(fields))
	for _, f := range fields {
		e, err := d.decodeField(f, parent)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// trailing handles bytes left in the active range after its fields.
func (d *decoder) trailing(list []*Element, parent *Element) ([]*Element, error) {
	n := d.r.Remaining()
	if n == 0 {
		return list, nil
	}
	if !d.keep {
		return nil, &types.Error{
			Kind:   types.ErrKindTrailing,
			Msg:    fmt.Sprintf("%d bytes after the last field", n),
			Offset: d.r.Pos(),
		}
	}
	e := &Element{field: trailingField, parent: parent, owner: d.owner, offset: d.r.Pos(), size: n}
	e.data, _ = d.r.Bytes(n)
	return append(list, e), nil
}

func (d *decoder) enter(f *Field) error {
	d.depth++
	if d.depth > d.limits.MaxDepth {
		return &types.Error{
			Kind:   types.ErrKindStructure,
			Field:  f.ident(),
			Msg:    fmt.Sprintf("nesting deeper than %d", d.limits.MaxDepth),
			Offset: d.r.Pos(),
		}
	}
	return nil
}

func (d *decoder) leave() { d.depth-- }

// grow counts one more element against MaxElements.
func (d *decoder) grow(f *Field) error {
	d.made++
	if d.made > d.limits.MaxElements {
		return d.fail(types.ErrKindRepeatCount, f, fmt.Sprintf("more than %d elements", d.limits.MaxElements), nil)
	}
	return nil
}

func (d *decoder) decodeField(f *Field, parent *Element) (*Element, error) {
	if err := d.grow(f); err != nil {
		return nil, err
	}
	r := d.r
	s := f.desc
	e := &Element{field: f, parent: parent, owner: d.owner, offset: r.Pos()}
	var err error

	switch f.Kind {
	case KindInt, KindChar, KindTypeCode, KindBool, KindFlag, KindDate, KindFloat:
		if s.rid {
			e.num = uint64(uint16(d.rid))
			break
		}
		e.num, err = r.Uint(s.width)
	case KindRect, KindPoint:
		e.nums, err = d.words(s.width / 2)
	case KindColor:
		if s.width == 6 {
			e.nums, err = d.words(3)
		} else {
			e.num, err = r.Uint(s.width)
		}
	case KindAlign:
		pad := (s.width - r.Pos()%s.width) % s.width
		e.slack, err = r.Bytes(pad)
	case KindFill:
		e.data, err = r.Bytes(s.size)
	case KindString:
		err = d.decodeString(e)
	case KindHex:
		err = d.decodeHex(e)
	case KindBits:
		if f.lead {
			d.bits, err = r.Uint(s.width)
			d.bitsOff = e.offset
		}
		e.offset = d.bitsOff
		e.num = d.bits >> uint(f.shift) & mask(s.size)
	case KindCounter:
		err = d.decodeCounter(e)
	case KindList:
		err = d.decodeList(e)
	case KindSkip:
		err = d.decodeSkip(e)
	case KindCosmetic:
	default:
		return nil, d.fail(types.ErrKindUnknownField, f, "no decoder", nil)
	}
	if err != nil {
		if errors.Is(err, buf.ErrShort) {
			return nil, d.short(f, err)
		}
		return nil, err
	}
	if s.key {
		if err := d.decodeSection(e); err != nil {
			return nil, err
		}
	}
	if f.Kind != KindBits {
		e.size = r.Pos() - e.offset
	} else if f.lead {
		e.size = s.width
	}
	return e, nil
}

func (d *decoder) words(n int) ([]uint16, error) {
	out := make([]uint16, n)
	for i := range out {
		v, err := d.r.U16()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// padLen returns the padding needed after total bytes for p.
func padLen(p Padding, total int) int {
	switch {
	case p == PadOdd && total%2 == 0, p == PadEven && total%2 == 1:
		return 1
	}
	return 0
}

func (d *decoder) decodeString(e *Element) error {
	r := d.r
	s := e.field.desc
	var err error
	switch {
	case s.size > 0 && !s.cstr:
		b, err := r.Bytes(s.size)
		if err != nil {
			return err
		}
		n := int(b[0])
		if n > s.size-1 {
			return d.fail(types.ErrKindValue, e.field, fmt.Sprintf("length %d exceeds field of %d bytes", n, s.size), nil)
		}
		e.data, e.slack = b[1:1+n], b[1+n:]
	case s.size > 0:
		b, err := r.Bytes(s.size)
		if err != nil {
			return err
		}
		n := indexZero(b)
		if n < 0 {
			n = s.size - 1
		}
		e.data, e.slack = b[:n], b[n:]
	case s.cstr:
		n := r.IndexByte(0)
		if n < 0 {
			return d.fail(types.ErrKindTruncated, e.field, "missing NUL terminator", nil)
		}
		if e.data, err = r.Bytes(n); err != nil {
			return err
		}
		_ = r.Skip(1)
		e.slack, err = r.Bytes(padLen(s.pad, n+1))
	default:
		n, err := r.Uint(s.width)
		if err != nil {
			return err
		}
		if n > uint64(r.Remaining()) {
			return d.fail(types.ErrKindTruncated, e.field, fmt.Sprintf("length %d, %d bytes left", n, r.Remaining()), nil)
		}
		if e.data, err = r.Bytes(int(n)); err != nil {
			return err
		}
		e.slack, err = r.Bytes(padLen(s.pad, s.width+int(n)))
		return err
	}
	return err
}

func indexZero(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}

func (d *decoder) decodeHex(e *Element) error {
	r := d.r
	s := e.field.desc
	var err error
	switch {
	case s.rest:
		e.data, err = r.Bytes(r.Remaining())
	case s.size > 0:
		e.data, err = r.Bytes(s.size)
	default:
		n, err := d.prefix(e.field)
		if err != nil {
			return err
		}
		e.data, err = r.Bytes(n)
		return err
	}
	return err
}

// prefix reads a length prefix and returns the body length that follows it.
func (d *decoder) prefix(f *Field) (int, error) {
	s := f.desc
	v, err := d.r.Uint(s.width)
	if err != nil {
		return 0, err
	}
	if s.inclusive {
		if v < uint64(s.width) {
			return 0, d.fail(types.ErrKindValue, f, fmt.Sprintf("length %d smaller than its own prefix", v), nil)
		}
		v -= uint64(s.width)
	}
	if v > uint64(d.r.Remaining()) {
		return 0, d.fail(types.ErrKindTruncated, f, fmt.Sprintf("length %d, %d bytes left", v, d.r.Remaining()), nil)
	}
	return int(v), nil
}

func (d *decoder) decodeCounter(e *Element) error {
	s := e.field.desc
	if s.fixed {
		e.num = uint64(e.field.count)
		d.count = e.field.count
		return nil
	}
	v, err := d.r.Uint(s.width)
	if err != nil {
		return err
	}
	n := int64(v)
	if s.zeroBased {
		n = signExtend(v, s.width) + 1
	}
	if n < 0 {
		return d.fail(types.ErrKindRepeatCount, e.field, fmt.Sprintf("count %d", n), nil)
	}
	e.num = uint64(n)
	d.count = int(n)
	return nil
}

func (d *decoder) decodeList(e *Element) error {
	f := e.field
	if err := d.enter(f); err != nil {
		return err
	}
	defer d.leave()

	r := d.r
	switch f.desc.list {
	case ListCounted:
		n := d.count
		if n > d.limits.MaxEntries {
			return d.fail(types.ErrKindRepeatCount, f, fmt.Sprintf("%d entries, limit %d", n, d.limits.MaxEntries), nil)
		}
		if err := buf.CheckCount(r.Remaining(), n, minSize(f.entry.Fields)); err != nil {
			return d.fail(types.ErrKindRepeatCount, f, fmt.Sprintf("%d entries", n), err)
		}
		for i := 0; i < n; i++ {
			if err := d.appendEntry(e); err != nil {
				return err
			}
		}
	case ListZero:
		for {
			b, err := r.Peek(1)
			if err != nil {
				return d.fail(types.ErrKindTruncated, f, "missing zero terminator", err)
			}
			if b[0] == 0 {
				_ = r.Skip(1)
				return nil
			}
			if err := d.appendGrowing(e); err != nil {
				return err
			}
		}
	default:
		for r.Remaining() > 0 {
			if err := d.appendGrowing(e); err != nil {
				return err
			}
		}
	}
	return nil
}

// appendGrowing decodes an entry of an open-ended list and rejects entries
// that consume nothing, which would never terminate.
func (d *decoder) appendGrowing(list *Element) error {
	if len(list.children) >= d.limits.MaxEntries {
		return d.fail(types.ErrKindRepeatCount, list.field, fmt.Sprintf("more than %d entries", d.limits.MaxEntries), nil)
	}
	start := d.r.Pos()
	if err := d.appendEntry(list); err != nil {
		return err
	}
	if d.r.Pos() == start {
		return d.fail(types.ErrKindStructure, list.field, "list entry consumes no bytes", nil)
	}
	return nil
}

func (d *decoder) appendEntry(list *Element) error {
	if err := d.grow(list.field); err != nil {
		return err
	}
	entry := &Element{field: list.field.entry, parent: list, owner: d.owner, offset: d.r.Pos()}
	children, err := d.decodeRange(entry.field.Fields, entry)
	if err != nil {
		return err
	}
	entry.children = children
	entry.size = d.r.Pos() - entry.offset
	list.children = append(list.children, entry)
	return nil
}

func (d *decoder) decodeSkip(e *Element) error {
	f := e.field
	n, err := d.prefix(f)
	if err != nil {
		return err
	}
	if err := d.enter(f); err != nil {
		return err
	}
	defer d.leave()
	if err := d.r.PushLimit(n); err != nil {
		return err
	}
	defer d.r.PopLimit()
	children, err := d.decodeRange(f.Fields, e)
	if err != nil {
		return err
	}
	if children, err = d.trailing(children, e); err != nil {
		return err
	}
	e.children = children
	return nil
}

func (d *decoder) decodeSection(e *Element) error {
	f := e.field
	key := e.Text()
	for _, sec := range f.Sections {
		if !sec.Matches(key) {
			continue
		}
		if err := d.enter(f); err != nil {
			return err
		}
		defer d.leave()
		children, err := d.decodeRange(sec.Fields, e)
		if err != nil {
			return err
		}
		e.section, e.children = sec, children
		return nil
	}
	return &types.Error{
		Kind:   types.ErrKindValue,
		Field:  f.ident(),
		Msg:    fmt.Sprintf("key value %s selects no section", key),
		Offset: e.offset,
	}
}

// minSize is the smallest number of bytes an entry with these fields can
// occupy.
func minSize(fields []*Field) int {
	n := 0
	for _, f := range fields {
		if sz := f.FixedSize(); sz > 0 {
			n += sz
		}
	}
	return n
}
