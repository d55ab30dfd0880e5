package tmpl

import (
	"fmt"

	"github.com/joshuapare/tmplkit/pkg/types"
)

// state is the mutable part of an element, saved so that a failed edit can
// be undone.
type state struct {
	num      uint64
	nums     []uint16
	data     []byte
	slack    []byte
	children []*Element
	section  *Section
}

func (e *Element) save() state {
	return state{
		num:      e.num,
		nums:     e.nums,
		data:     e.data,
		slack:    e.slack,
		children: e.children,
		section:  e.section,
	}
}

func (e *Element) restore(s state) {
	e.num, e.nums, e.data, e.slack = s.num, s.nums, s.data, s.slack
	e.children, e.section = s.children, s.section
}

// Set parses text into the element at path. On error nothing changes.
func (l *ElementList) Set(path, text string) error {
	e, err := l.Lookup(path)
	if err != nil {
		return err
	}
	return l.SetElement(e, text)
}

// SetElement parses text into e, which must belong to l. Text may be a CASE
// symbol. Changing a key value replaces the key's section with a default one
// for the new value. On error nothing changes.
func (l *ElementList) SetElement(e *Element, text string) error {
	if e.owner != l {
		return types.NewError(types.ErrKindNotFound, "element belongs to another list", nil)
	}
	if !e.Editable() {
		return &types.Error{Kind: types.ErrKindValue, Field: e.field.ident(), Msg: "field is not editable", Offset: e.offset}
	}
	saved := e.save()
	// parse may write into nums in place
	if e.nums != nil {
		e.nums = append([]uint16(nil), e.nums...)
	}
	if err := e.parse(text, true); err != nil {
		e.restore(saved)
		return err
	}
	if e.field.Keyed() && (e.section == nil || !e.section.Matches(e.Text())) {
		b := l.defaults(l.elementCount() - countElements(e.children))
		if err := b.selectSection(e); err != nil {
			e.restore(saved)
			return err
		}
	}
	return l.commit(func() { e.restore(saved) })
}

// commit re-encodes after a mutation and undoes it if encoding fails.
func (l *ElementList) commit(undo func()) error {
	if _, err := l.Encode(); err != nil {
		undo()
		if _, rerr := l.Encode(); rerr != nil {
			return fmt.Errorf("%w (relayout after undo: %v)", err, rerr)
		}
		return err
	}
	return nil
}

func (l *ElementList) listAt(path string) (*Element, error) {
	e, err := l.Lookup(path)
	if err != nil {
		return nil, err
	}
	if e.field.Kind != KindList {
		return nil, &types.Error{Kind: types.ErrKindValue, Field: e.field.ident(), Msg: "not a list", Offset: e.offset}
	}
	if c := e.field.counter; c != nil && c.desc.fixed {
		return nil, &types.Error{Kind: types.ErrKindValue, Field: e.field.ident(), Msg: "list has a fixed number of entries", Offset: e.offset}
	}
	return e, nil
}

// InsertEntry inserts a default entry into the list at path before index.
// An index of -1 or len appends.
func (l *ElementList) InsertEntry(path string, index int) (*Element, error) {
	list, err := l.listAt(path)
	if err != nil {
		return nil, err
	}
	if index < -1 || index > len(list.children) {
		return nil, &types.Error{Kind: types.ErrKindNotFound, Field: list.field.ident(), Msg: fmt.Sprintf("entry index %d", index), Offset: list.offset}
	}
	if max := l.opts.limits().MaxEntries; len(list.children) >= max {
		return nil, &types.Error{Kind: types.ErrKindRepeatCount, Field: list.field.ident(), Msg: fmt.Sprintf("list is at its limit of %d entries", max), Offset: list.offset}
	}
	saved := list.children
	list.children = append([]*Element(nil), saved...)
	b := l.defaults(l.elementCount())
	entry, err := b.appendEntry(list, index)
	if err != nil {
		list.children = saved
		return nil, err
	}
	if err := l.commit(func() { list.children = saved }); err != nil {
		return nil, err
	}
	return entry, nil
}

// RemoveEntry removes the entry at index from the list at path.
func (l *ElementList) RemoveEntry(path string, index int) error {
	list, err := l.listAt(path)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(list.children) {
		return &types.Error{Kind: types.ErrKindNotFound, Field: list.field.ident(), Msg: fmt.Sprintf("entry index %d", index), Offset: list.offset}
	}
	saved := list.children
	next := make([]*Element, 0, len(saved)-1)
	next = append(next, saved[:index]...)
	next = append(next, saved[index+1:]...)
	list.children = next
	return l.commit(func() { list.children = saved })
}

// countElements counts list and everything below it.
func countElements(list []*Element) int {
	n := 0
	walkElements(list, 0, func(*Element, int) bool {
		n++
		return true
	})
	return n
}

func notFound(path string) error {
	return &types.Error{Kind: types.ErrKindNotFound, Msg: fmt.Sprintf("no element at %q", path), Offset: -1}
}
