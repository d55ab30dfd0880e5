package tmpl

import (
	"fmt"

	"github.com/joshuapare/tmplkit/pkg/types"
)

// New builds the default tree for an empty resource: zero values, empty
// strings and lists, the first CASE value for keys (the resource ID for
// KRID) and the fixed number of entries for FCNT lists. The tree is bounded
// by opts.Limits like a decoded one.
func New(t *Template, opts DecodeOptions) (*ElementList, error) {
	lim := opts.limits()
	if err := lim.Validate(); err != nil {
		return nil, types.NewError(types.ErrKindValue, "bad limits", err)
	}
	l := &ElementList{tmpl: t, opts: opts}
	b := l.defaults(0)
	roots, err := b.newRange(t.Fields, nil)
	if err != nil {
		return nil, err
	}
	l.roots = roots
	if _, err := l.Encode(); err != nil {
		return nil, err
	}
	return l, nil
}

type defaults struct {
	owner  *ElementList
	limits types.Limits
	made   int // elements in the tree, counting those built so far
	count  int
}

// defaults returns a builder for l whose element budget starts from existing.
func (l *ElementList) defaults(existing int) *defaults {
	return &defaults{owner: l, limits: l.opts.limits(), made: existing}
}

// elementCount returns the number of elements in the tree.
func (l *ElementList) elementCount() int { return countElements(l.roots) }

func (b *defaults) grow(f *Field) error {
	b.made++
	if b.made > b.limits.MaxElements {
		return &types.Error{
			Kind:   types.ErrKindRepeatCount,
			Field:  f.ident(),
			Msg:    fmt.Sprintf("more than %d elements", b.limits.MaxElements),
			Offset: -1,
		}
	}
	return nil
}

func (b *defaults) newRange(fields []*Field, parent *Element) ([]*Element, error) {
	out := make([]*Element, 0, len(fields))
	for _, f := range fields {
		e, err := b.newElement(f, parent)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (b *defaults) newElement(f *Field, parent *Element) (*Element, error) {
	if err := b.grow(f); err != nil {
		return nil, err
	}
	s := f.desc
	e := &Element{field: f, parent: parent, owner: b.owner}
	switch f.Kind {
	case KindRect, KindPoint:
		e.nums = make([]uint16, s.width/2)
	case KindColor:
		if s.width == 6 {
			e.nums = make([]uint16, 3)
		}
	case KindFill:
		e.data = make([]byte, s.size)
	case KindHex:
		if s.size > 0 {
			e.data = make([]byte, s.size)
		}
	case KindCounter:
		b.count = 0
		if s.fixed {
			b.count = f.count
		}
		e.num = uint64(b.count)
	case KindList:
		n := 0
		if s.list == ListCounted {
			n = b.count
		}
		if n > b.limits.MaxEntries {
			return nil, &types.Error{
				Kind:   types.ErrKindRepeatCount,
				Field:  f.ident(),
				Msg:    fmt.Sprintf("%d entries, limit %d", n, b.limits.MaxEntries),
				Offset: -1,
			}
		}
		for i := 0; i < n; i++ {
			if _, err := b.appendEntry(e, -1); err != nil {
				return nil, err
			}
		}
	case KindSkip:
		children, err := b.newRange(f.Fields, e)
		if err != nil {
			return nil, err
		}
		e.children = children
	}
	if s.key {
		if s.rid {
			e.num = uint64(uint16(b.owner.opts.ResourceID))
		} else if err := e.parse(defaultKey(f), false); err != nil {
			return nil, err
		}
		if err := b.selectSection(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// appendEntry inserts a default entry at index (-1 appends).
func (b *defaults) appendEntry(list *Element, index int) (*Element, error) {
	if err := b.grow(list.field); err != nil {
		return nil, err
	}
	entry := &Element{field: list.field.entry, parent: list, owner: b.owner}
	children, err := b.newRange(entry.field.Fields, entry)
	if err != nil {
		return nil, err
	}
	entry.children = children
	if index < 0 || index >= len(list.children) {
		list.children = append(list.children, entry)
		return entry, nil
	}
	list.children = append(list.children, nil)
	copy(list.children[index+1:], list.children[index:])
	list.children[index] = entry
	return entry, nil
}

// selectSection rebuilds a key element's children for its current value.
func (b *defaults) selectSection(e *Element) error {
	key := e.Text()
	for _, sec := range e.field.Sections {
		if !sec.Matches(key) {
			continue
		}
		children, err := b.newRange(sec.Fields, e)
		if err != nil {
			return err
		}
		e.section, e.children = sec, children
		return nil
	}
	return &types.Error{
		Kind:   types.ErrKindValue,
		Field:  e.field.ident(),
		Msg:    "key value " + key + " selects no section",
		Offset: -1,
	}
}

// defaultKey picks the first CASE value that selects a section, falling back
// to the first section's first value.
func defaultKey(f *Field) string {
	for _, c := range f.Cases {
		for _, sec := range f.Sections {
			if sec.Matches(c.Value) {
				return c.Value
			}
		}
	}
	for _, sec := range f.Sections {
		if v, ok := sec.first(); ok {
			return v
		}
	}
	return "0"
}
