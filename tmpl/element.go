package tmpl

import (
	"math"
	"strconv"
	"strings"

	"github.com/joshuapare/tmplkit/internal/format"
)

// Element is one decoded field instance.
//
// Offsets and sizes describe the element's byte range in the most recently
// decoded or encoded data. Containers (lists, entries, keys, skip sections)
// span all of their children.
type Element struct {
	field  *Field
	parent *Element
	owner  *ElementList

	offset int
	size   int

	num   uint64   // scalar value in its stored form
	nums  []uint16 // RECT, PNT and COLR components
	data  []byte   // string bytes (Mac OS Roman), hex and filler bytes
	slack []byte   // padding kept verbatim for exact re-encoding

	children []*Element
	section  *Section // key: active section
}

// Field returns the descriptor the element was decoded from.
func (e *Element) Field() *Field { return e.field }

// Type returns the four-character type code.
func (e *Element) Type() string { return e.field.Type }

// Label returns the template label.
func (e *Element) Label() string { return e.field.Label }

// Kind returns the field kind.
func (e *Element) Kind() Kind { return e.field.Kind }

// Parent returns the enclosing element, or nil at the top level.
func (e *Element) Parent() *Element { return e.parent }

// Children returns list entries, entry bodies, the active key section or a
// skip section body. The slice must not be modified.
func (e *Element) Children() []*Element { return e.children }

// Section returns the active section of a key element.
func (e *Element) Section() *Section { return e.section }

// Offset returns the element's byte offset in the resource.
func (e *Element) Offset() int { return e.offset }

// Size returns the element's byte length, including children.
func (e *Element) Size() int { return e.size }

// Index returns the position of e among its siblings.
func (e *Element) Index() int {
	return indexOf(e.siblings(), e)
}

// Path returns a slash-separated address that Lookup resolves back to e.
func (e *Element) Path() string {
	var segs []string
	for n := e; n != nil; n = n.parent {
		segs = append(segs, n.segment())
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return strings.Join(segs, "/")
}

func (e *Element) segment() string {
	if e.parent != nil && e.parent.field.Kind == KindList {
		return strconv.Itoa(e.Index())
	}
	label := e.field.Label
	siblings := e.siblings()
	if label == "" || strings.Contains(label, "/") || strings.HasPrefix(label, "#") {
		return "#" + strconv.Itoa(indexOf(siblings, e))
	}
	for _, s := range siblings {
		if s.field.Label == label {
			if s != e {
				return "#" + strconv.Itoa(indexOf(siblings, e))
			}
			break
		}
	}
	return label
}

func (e *Element) siblings() []*Element {
	if e.parent != nil {
		return e.parent.children
	}
	if e.owner != nil {
		return e.owner.roots
	}
	return nil
}

func indexOf(list []*Element, e *Element) int {
	for i, c := range list {
		if c == e {
			return i
		}
	}
	return -1
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Editable reports whether Set accepts text for this element.
func (e *Element) Editable() bool {
	switch e.field.Kind {
	case KindFill, KindAlign, KindCounter, KindList, KindEntry, KindSkip, KindCosmetic:
		return false
	}
	return !e.field.desc.rid
}

// Symbol returns the CASE symbol matching the current value, if any. OR-value
// fields name every set flag, joined with '|'.
func (e *Element) Symbol() string {
	if len(e.field.Cases) == 0 {
		return ""
	}
	if c, ok := e.field.caseFor(e.Text()); ok {
		return c.Symbol
	}
	if e.field.desc.orv {
		return e.orSymbols()
	}
	return ""
}

// Value returns the element's value as a Go value: int64 or uint64 for
// integers, float64, string, bool, []byte, time.Time, []int16 for RECT and
// PNT, int for counters and lists, nil for containers without a value.
func (e *Element) Value() any {
	f := e.field
	switch f.Kind {
	case KindInt:
		if f.desc.signed {
			return signExtend(e.num, f.desc.width)
		}
		return e.num
	case KindBits:
		return e.num
	case KindCounter:
		return int(e.num)
	case KindList:
		return len(e.children)
	case KindFloat:
		if f.desc.width == 4 {
			return float64(math.Float32frombits(uint32(e.num)))
		}
		return math.Float64frombits(e.num)
	case KindString:
		return format.DecodeMacRoman(e.data)
	case KindChar, KindTypeCode, KindColor:
		return e.Text()
	case KindBool, KindFlag:
		return e.num != 0
	case KindHex, KindFill:
		return append([]byte(nil), e.data...)
	case KindAlign:
		return append([]byte(nil), e.slack...)
	case KindDate:
		return format.MacToTime(uint32(e.num))
	case KindRect, KindPoint:
		out := make([]int16, len(e.nums))
		for i, v := range e.nums {
			out[i] = int16(v)
		}
		return out
	}
	return nil
}

func signExtend(v uint64, width int) int64 {
	shift := uint(64 - width*8)
	return int64(v<<shift) >> shift
}

// ElementList is a decoded resource: the top-level elements plus the
// template they came from.
type ElementList struct {
	tmpl  *Template
	roots []*Element
	opts  DecodeOptions
	size  int
}

// Template returns the template the list was decoded with.
func (l *ElementList) Template() *Template { return l.tmpl }

// Elements returns the top-level elements. The slice must not be modified.
func (l *ElementList) Elements() []*Element { return l.roots }

// Len returns the total byte length of the top-level elements.
func (l *ElementList) Len() int { return l.size }

// Walk visits every element depth-first until fn returns false.
func (l *ElementList) Walk(fn func(e *Element, depth int) bool) {
	walkElements(l.roots, 0, fn)
}

func walkElements(list []*Element, depth int, fn func(*Element, int) bool) bool {
	for _, e := range list {
		if !fn(e, depth) {
			return false
		}
		if !walkElements(e.children, depth+1, fn) {
			return false
		}
	}
	return true
}

// Lookup resolves a path produced by Element.Path. Segments are labels,
// "#i" for the i-th child, or a decimal entry index below a list.
func (l *ElementList) Lookup(path string) (*Element, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, notFound(path)
	}
	var (
		cur  *Element
		list = l.roots
	)
	for _, seg := range strings.Split(path, "/") {
		next := childBySegment(cur, list, seg)
		if next == nil {
			return nil, notFound(path)
		}
		cur, list = next, next.children
	}
	return cur, nil
}

func childBySegment(parent *Element, list []*Element, seg string) *Element {
	if strings.HasPrefix(seg, "#") {
		i, err := strconv.Atoi(seg[1:])
		if err != nil || i < 0 || i >= len(list) {
			return nil
		}
		return list[i]
	}
	if parent != nil && parent.field.Kind == KindList && isIndex(seg) {
		i, err := strconv.Atoi(seg)
		if err != nil || i >= len(list) {
			return nil
		}
		return list[i]
	}
	for _, e := range list {
		if e.field.Label == seg {
			return e
		}
	}
	return nil
}
