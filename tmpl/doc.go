// Package tmpl interprets resource bytes according to a ResEdit-style
// template and exposes the result as an editable tree.
//
// # Templates
//
// A Template is an ordered list of field descriptors. Each descriptor has a
// label and a four-character type code naming how its bytes are laid out:
// integers (DWRD, ULNG, HBYT...), strings (PSTR, CSTR, P020...), bit fields
// (BBIT, WB04...), hex dumps, dates, colours, and structural codes that nest
// other fields: lists (LSTB/LSTZ/LSTC..LSTE), keyed sections (KEYB..KEYE)
// and length-prefixed sections (BSKP/WSIZ..SKPE).
//
// CASE and CASR entries name values and value ranges of the preceding field.
// BORV/WORV/LORV values are OR-ed CASE flags. KRID is a key that takes its
// value from DecodeOptions.ResourceID and occupies no bytes.
//
// Templates are read from TMPL resource bytes with ParseTMPL or from YAML
// with LoadYAML. Both produce the same immutable *Template.
//
// # Decoding
//
//	t, err := tmpl.ParseTMPL("STR#", tmplBytes)
//	list, err := tmpl.Decode(t, resourceBytes, tmpl.DecodeOptions{})
//	for _, e := range list.Elements() {
//	    fmt.Println(e.Label(), e.Text())
//	}
//
// Decoding is all-or-nothing: it either returns a complete ElementList
// whose top-level sizes add up to len(data), or a *types.Error and no list.
//
// # Editing and encoding
//
//	if err := list.Set("Count", "12"); err != nil { ... }
//	if _, err := list.InsertEntry("Strings", 0); err != nil { ... }
//	data, err := list.Encode()
//
// Encode is the inverse of Decode: for unmodified lists it reproduces the
// decoded bytes exactly, including padding and filler contents.
//
// # Thread Safety
//
// Templates are safe for concurrent reads. ElementLists are not safe for
// concurrent use; callers serialize edits.
package tmpl
