package tmpl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joshuapare/tmplkit/internal/buf"
	"github.com/joshuapare/tmplkit/internal/format"
	"github.com/joshuapare/tmplkit/pkg/types"
)

// Entry is one raw (label, type code) pair as stored in a TMPL resource.
type Entry struct {
	Label string `yaml:"label" json:"label"`
	Type  string `yaml:"type" json:"type"`
}

// Case is a named value offered for the preceding field. A CASR range
// covers every value from Min to Max and stands for Min when chosen.
type Case struct {
	Symbol string // display name
	Value  string // canonical value text, the lower bound of a range
	Range  bool
	Min    int64
	Max    int64
}

// Covers reports whether the canonical value text falls under c.
func (c Case) Covers(text string) bool {
	if !c.Range {
		return c.Value == text
	}
	v, ok := numericValue(text)
	return ok && v >= c.Min && v <= c.Max
}

// Section is one KEYB..KEYE block of a key field.
type Section struct {
	Label  string
	Fields []*Field

	values []string // canonical key values selecting this section
	ranges []Case   // CASR ranges selecting this section
}

// Matches reports whether the key value text selects s.
func (s *Section) Matches(text string) bool {
	for _, v := range s.values {
		if v == text {
			return true
		}
	}
	for _, c := range s.ranges {
		if c.Covers(text) {
			return true
		}
	}
	return false
}

// first returns a value that selects s.
func (s *Section) first() (string, bool) {
	if len(s.values) > 0 {
		return s.values[0], true
	}
	if len(s.ranges) > 0 {
		return s.ranges[0].Value, true
	}
	return "", false
}

// Field is one resolved field descriptor.
type Field struct {
	Label string
	Type  string
	Kind  Kind

	Fields   []*Field   // body of a skip section or list entry
	Cases    []Case     // options from following CASE entries
	Sections []*Section // key sections, in template order

	desc    desc
	entry   *Field // list: synthetic entry descriptor
	counter *Field // LSTC: preceding counter
	list    *Field // counter: the list it counts
	shift   int    // bit field: position of the lowest bit
	lead    bool   // bit field: first of its group
	count   int    // FCNT: fixed entry count
}

// Width returns the integer, prefix or alignment width in bytes.
func (f *Field) Width() int { return f.desc.width }

// Keyed reports whether the field's value selects a section.
func (f *Field) Keyed() bool { return f.desc.key }

// Signed reports whether an integer field is signed.
func (f *Field) Signed() bool { return f.desc.signed }

// ListMode returns how a list field finds its entry count.
func (f *Field) ListMode() ListMode { return f.desc.list }

// Entry returns the descriptor of one list entry, or nil for non-lists.
func (f *Field) Entry() *Field { return f.entry }

// FixedSize returns the fixed byte size of the field, or -1 if it depends on
// the data.
func (f *Field) FixedSize() int {
	s := f.desc
	if s.rid {
		return 0
	}
	switch f.Kind {
	case KindInt, KindFloat, KindChar, KindTypeCode, KindBool, KindFlag,
		KindDate, KindColor, KindRect, KindPoint:
		return s.width
	case KindBits:
		if f.lead {
			return s.width
		}
		return 0
	case KindFill:
		return s.size
	case KindCosmetic:
		return 0
	case KindCounter:
		if s.fixed {
			return 0
		}
		return s.width
	case KindString, KindHex:
		if s.size > 0 {
			return s.size
		}
	}
	return -1
}

// caseFor returns the case whose value equals text, or else the first range
// covering it.
func (f *Field) caseFor(text string) (Case, bool) {
	for _, c := range f.Cases {
		if !c.Range && c.Value == text {
			return c, true
		}
	}
	for _, c := range f.Cases {
		if c.Range && c.Covers(text) {
			return c, true
		}
	}
	return Case{}, false
}

// caseNamed returns the case with the given symbol.
func (f *Field) caseNamed(sym string) (Case, bool) {
	for _, c := range f.Cases {
		if c.Symbol == sym {
			return c, true
		}
	}
	return Case{}, false
}

func (f *Field) ident() string {
	return fmt.Sprintf("%s %q", f.Type, f.Label)
}

// Template is an immutable, validated template. It is safe to share between
// sessions.
type Template struct {
	Name    string
	Entries []Entry // as loaded, before repeat expansion
	Fields  []*Field
}

// ParseTMPL parses the bytes of a TMPL resource.
func ParseTMPL(name string, data []byte) (*Template, error) {
	r := buf.NewReader(data)
	var entries []Entry
	for r.Remaining() > 0 {
		n, err := r.U8()
		if err != nil {
			return nil, corrupt(r.Pos(), err)
		}
		label, err := r.Bytes(int(n))
		if err != nil {
			return nil, corrupt(r.Pos(), err)
		}
		code, err := r.Bytes(4)
		if err != nil {
			return nil, corrupt(r.Pos(), err)
		}
		entries = append(entries, Entry{
			Label: format.DecodeMacRoman(label),
			Type:  format.DecodeMacRoman(code),
		})
	}
	return FromEntries(name, entries)
}

func corrupt(off int, err error) error {
	return &types.Error{Kind: types.ErrKindTemplate, Msg: "entry cut short", Offset: off, Err: err}
}

// FromEntries resolves and validates a list of raw entries.
func FromEntries(name string, entries []Entry) (*Template, error) {
	expanded, err := expand(entries)
	if err != nil {
		return nil, err
	}
	b := &builder{entries: expanded}
	fields, err := b.parseRange("")
	if err != nil {
		return nil, err
	}
	return &Template{
		Name:    name,
		Entries: append([]Entry(nil), entries...),
		Fields:  fields,
	}, nil
}

// Bytes encodes the template as TMPL resource data.
func (t *Template) Bytes() ([]byte, error) {
	w := buf.NewWriter(len(t.Entries) * 12)
	for _, e := range t.Entries {
		label, err := format.EncodeMacRoman(e.Label)
		if err != nil {
			return nil, err
		}
		if len(label) > 255 {
			return nil, types.NewError(types.ErrKindValue, fmt.Sprintf("label %q longer than 255 bytes", e.Label), nil)
		}
		code, err := format.ParseFourCC(e.Type)
		if err != nil {
			return nil, types.NewError(types.ErrKindValue, "bad type code", err)
		}
		w.U8(uint8(len(label)))
		_, _ = w.Write(label)
		w.U32(uint32(code))
	}
	return w.Bytes(), nil
}

// Walk visits every field depth-first, including list entry bodies and
// key sections.
func (t *Template) Walk(fn func(f *Field, depth int) bool) {
	walkFields(t.Fields, 0, fn)
}

func walkFields(fields []*Field, depth int, fn func(*Field, int) bool) bool {
	for _, f := range fields {
		if !fn(f, depth) {
			return false
		}
		body := f.Fields
		if f.entry != nil {
			body = f.entry.Fields
		}
		if !walkFields(body, depth+1, fn) {
			return false
		}
		for _, s := range f.Sections {
			if !walkFields(s.Fields, depth+1, fn) {
				return false
			}
		}
	}
	return true
}

// rawEntry is an entry with its resolved descriptor.
type rawEntry struct {
	Entry
	desc desc
}

// expand resolves every type code and unrolls Rnnn repeats. A repeat copies
// the next entry together with the CASE and CASR entries that follow it;
// ResEdit repeats only the entry itself, so this is an extension.
func expand(entries []Entry) ([]rawEntry, error) {
	out := make([]rawEntry, 0, len(entries))
	for i := 0; i < len(entries); i++ {
		e := entries[i]
		s, err := lookup(e.Type)
		if err != nil {
			if te, ok := err.(*types.Error); ok {
				te.Msg = fmt.Sprintf("entry %d %q", i, e.Label)
			}
			return nil, err
		}
		if s.kind != kindRepeat {
			out = append(out, rawEntry{Entry: e, desc: s})
			continue
		}
		if i+1 >= len(entries) {
			return nil, structureErr(e, "repeat has no element to repeat")
		}
		target := entries[i+1]
		ts, err := lookup(target.Type)
		if err != nil {
			return nil, err
		}
		if !repeatable(ts) {
			return nil, structureErr(target, "cannot be repeated")
		}
		j := i + 2
		var cases []rawEntry
		for ; j < len(entries) && (entries[j].Type == "CASE" || entries[j].Type == "CASR"); j++ {
			cases = append(cases, rawEntry{Entry: entries[j], desc: registry[entries[j].Type]})
		}
		first := repeatStart(e.Label)
		for n := 0; n < s.size; n++ {
			label := strings.ReplaceAll(target.Label, "%", strconv.Itoa(first+n))
			out = append(out, rawEntry{Entry: Entry{Label: label, Type: target.Type}, desc: ts})
			out = append(out, cases...)
		}
		i = j - 1
	}
	return out, nil
}

func repeatable(s desc) bool {
	switch s.kind {
	case KindList, KindSkip, kindCase, kindCaseRange, kindListEnd, kindKeyBegin, kindKeyEnd, kindSkipEnd, kindRepeat:
		return false
	}
	return !s.key
}

// repeatStart reads the first index from an R label of the form "...=n".
func repeatStart(label string) int {
	if i := strings.LastIndexByte(label, '='); i >= 0 {
		label = label[i+1:]
	}
	if n, err := strconv.Atoi(strings.TrimSpace(label)); err == nil {
		return n
	}
	return 1
}

func structureErr(e Entry, msg string) error {
	return &types.Error{
		Kind:   types.ErrKindStructure,
		Field:  fmt.Sprintf("%s %q", e.Type, e.Label),
		Msg:    msg,
		Offset: -1,
	}
}

// builder turns the flat entry list into a field tree.
type builder struct {
	entries []rawEntry
	pos     int
}

func closerFor(k Kind) string {
	switch k {
	case KindList:
		return "LSTE"
	case KindSkip:
		return "SKPE"
	case kindKeyBegin:
		return "KEYE"
	}
	return ""
}

// parseRange reads fields until the closer type code (or the end of the
// template when closer is empty).
func (b *builder) parseRange(closer string) ([]*Field, error) {
	var (
		fields  []*Field
		group   *Field // open bit group lead
		used    int    // bits used in the open group
		last    *Field // last field in this range
		mustEnd *Field // HEXD/LSTB that must be the last field
	)
	closeGroup := func(at Entry) error {
		if group != nil && used != group.desc.width*8 {
			return structureErr(at, fmt.Sprintf("bit group starting at %s uses %d of %d bits", group.ident(), used, group.desc.width*8))
		}
		group, used = nil, 0
		return nil
	}

	for b.pos < len(b.entries) {
		e := b.entries[b.pos]
		s := e.desc
		b.pos++

		switch s.kind {
		case kindListEnd, kindSkipEnd, kindKeyEnd:
			if e.Type != closer {
				return nil, structureErr(e.Entry, "unexpected closer")
			}
			if last != nil && last.Kind == KindCounter {
				return nil, structureErr(e.Entry, fmt.Sprintf("counter %s must be followed by LSTC", last.ident()))
			}
			if err := closeGroup(e.Entry); err != nil {
				return nil, err
			}
			return fields, nil
		case kindCase, kindCaseRange:
			if last == nil || !caseable(last) || len(last.Sections) > 0 {
				return nil, structureErr(e.Entry, e.Type+" must follow a value field")
			}
			c, err := parseCaseEntry(last, e)
			if err != nil {
				return nil, err
			}
			last.Cases = append(last.Cases, c)
			continue
		case kindKeyBegin:
			return nil, structureErr(e.Entry, "KEYB must follow a key field and its cases")
		}

		if mustEnd != nil {
			return nil, structureErr(e.Entry, fmt.Sprintf("follows %s, which must be last", mustEnd.ident()))
		}
		if s.kind != KindBits {
			if err := closeGroup(e.Entry); err != nil {
				return nil, err
			}
		}
		if last != nil && last.Kind == KindCounter && (s.kind != KindList || s.list != ListCounted) {
			return nil, structureErr(e.Entry, fmt.Sprintf("counter %s must be followed by LSTC", last.ident()))
		}

		f := &Field{Label: e.Label, Type: e.Type, Kind: s.kind, desc: s}
		switch s.kind {
		case KindBits:
			if group != nil && group.desc.width != s.width {
				return nil, structureErr(e.Entry, "bit field width differs from its group")
			}
			if group == nil {
				group, used = f, 0
				f.lead = true
			}
			used += s.size
			if used > group.desc.width*8 {
				return nil, structureErr(e.Entry, "bit group overflows its integer")
			}
			f.shift = group.desc.width*8 - used
			if used == group.desc.width*8 {
				group, used = nil, 0
			}
		case KindCounter:
			if s.fixed {
				n, err := fixedCount(e.Label)
				if err != nil {
					return nil, structureErr(e.Entry, err.Error())
				}
				f.count = n
			}
		case KindList:
			if s.list == ListCounted {
				if last == nil || last.Kind != KindCounter {
					return nil, structureErr(e.Entry, "LSTC must follow a counter")
				}
				f.counter, last.list = last, f
			}
			body, err := b.parseRange("LSTE")
			if err != nil {
				return nil, err
			}
			f.entry = &Field{Label: e.Label, Type: e.Type, Kind: KindEntry, Fields: body}
			if s.list == ListToEnd {
				mustEnd = f
			}
		case KindSkip:
			body, err := b.parseRange("SKPE")
			if err != nil {
				return nil, err
			}
			f.Fields = body
		case KindHex:
			if s.rest {
				mustEnd = f
			}
		}
		if s.key {
			if err := b.parseKey(f); err != nil {
				return nil, err
			}
		}
		fields = append(fields, f)
		last = f
	}

	if closer != "" {
		return nil, &types.Error{Kind: types.ErrKindStructure, Msg: "missing " + closer, Offset: -1}
	}
	if last != nil && last.Kind == KindCounter {
		return nil, structureErr(Entry{Label: last.Label, Type: last.Type}, "counter must be followed by LSTC")
	}
	if err := closeGroup(Entry{}); err != nil {
		return nil, err
	}
	return fields, nil
}

// parseKey consumes the CASE entries and KEYB..KEYE sections after a key
// field.
func (b *builder) parseKey(f *Field) error {
	for b.pos < len(b.entries) && isCase(b.entries[b.pos].desc.kind) {
		c, err := parseCaseEntry(f, b.entries[b.pos])
		if err != nil {
			return err
		}
		f.Cases = append(f.Cases, c)
		b.pos++
	}
	for b.pos < len(b.entries) && b.entries[b.pos].desc.kind == kindKeyBegin {
		e := b.entries[b.pos]
		b.pos++
		body, err := b.parseRange("KEYE")
		if err != nil {
			return err
		}
		sec := &Section{Label: e.Label, Fields: body}
		for _, tok := range strings.Split(e.Label, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			if c, ok := f.caseNamed(tok); ok && c.Range {
				sec.ranges = append(sec.ranges, c)
				continue
			}
			v, err := keyValue(f, tok)
			if err != nil {
				return structureErr(e.Entry, err.Error())
			}
			sec.values = append(sec.values, v)
		}
		f.Sections = append(f.Sections, sec)
	}
	if len(f.Sections) == 0 {
		return structureErr(Entry{Label: f.Label, Type: f.Type}, "key field has no KEYB sections")
	}
	return nil
}

// keyValue canonicalizes a KEYB token: a case symbol or a literal value.
func keyValue(f *Field, tok string) (string, error) {
	if c, ok := f.caseNamed(tok); ok {
		return c.Value, nil
	}
	return canonical(f, tok)
}

func caseable(f *Field) bool {
	switch f.Kind {
	case KindInt, KindFloat, KindChar, KindTypeCode, KindFlag, KindBits, KindCounter, KindString:
		return true
	}
	return false
}

func isCase(k Kind) bool { return k == kindCase || k == kindCaseRange }

func parseCaseEntry(f *Field, e rawEntry) (Case, error) {
	if e.desc.kind == kindCaseRange {
		return parseCaseRange(f, e.Label)
	}
	return parseCase(f, e.Label)
}

// parseCaseRange splits "Symbol=min,max". Only numeric fields take ranges.
func parseCaseRange(f *Field, label string) (Case, error) {
	bad := func(msg string) (Case, error) {
		return Case{}, structureErr(Entry{Label: label, Type: "CASR"}, msg)
	}
	switch f.Kind {
	case KindInt, KindBits, KindCounter:
	default:
		return bad("CASR needs a numeric field")
	}
	i := strings.LastIndexByte(label, '=')
	if i < 0 {
		return bad("CASR label must be Symbol=min,max")
	}
	sym, bounds := label[:i], strings.Split(label[i+1:], ",")
	if len(bounds) != 2 {
		return bad("CASR label must be Symbol=min,max")
	}
	var lim [2]int64
	var lo string
	for j, tok := range bounds {
		v, err := canonical(f, strings.TrimSpace(tok))
		if err != nil {
			return bad(err.Error())
		}
		n, ok := numericValue(v)
		if !ok {
			return bad(fmt.Sprintf("bound %q is not numeric", tok))
		}
		if j == 0 {
			lo = v
		}
		lim[j] = n
	}
	if lim[0] > lim[1] {
		return bad("CASR minimum exceeds maximum")
	}
	return Case{Symbol: sym, Value: lo, Range: true, Min: lim[0], Max: lim[1]}, nil
}

// parseCase splits "Symbol=value". Without '=' the label is both.
func parseCase(f *Field, label string) (Case, error) {
	sym, val := label, label
	if i := strings.LastIndexByte(label, '='); i >= 0 {
		sym, val = label[:i], label[i+1:]
	}
	v, err := canonical(f, val)
	if err != nil {
		return Case{}, structureErr(Entry{Label: label, Type: "CASE"}, err.Error())
	}
	return Case{Symbol: sym, Value: v}, nil
}

// fixedCount reads an FCNT count from its label: the text after the last
// '=' or the whole label, in decimal, $hex or 0xhex.
func fixedCount(label string) (int, error) {
	s := label
	if i := strings.LastIndexByte(s, '='); i >= 0 {
		s = s[i+1:]
	} else if i := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }); i > 0 {
		s = s[:i]
	}
	n, err := parseUint(strings.TrimSpace(s), 16)
	if err != nil {
		return 0, fmt.Errorf("FCNT label %q has no count", label)
	}
	return int(n), nil
}
