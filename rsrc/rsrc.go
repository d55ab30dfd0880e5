// Package rsrc reads and writes classic Mac OS resource forks.
//
// A fork is a 16-byte header, a data area of length-prefixed blobs and a
// resource map. The map holds a type list, one reference list per type and a
// name list. Everything is big-endian.
//
// Files are parsed into memory: resource data is copied out, so a File does
// not keep the underlying mapping or buffer alive.
package rsrc

import (
	"errors"
	"fmt"
	"sort"

	"github.com/joshuapare/tmplkit/internal/buf"
	"github.com/joshuapare/tmplkit/internal/format"
	"github.com/joshuapare/tmplkit/internal/mmfile"
	"github.com/joshuapare/tmplkit/internal/writer"
	"github.com/joshuapare/tmplkit/pkg/types"
)

// Layout constants.
const (
	HeaderSize     = 16
	DataOffset     = 256 // data area start used when writing
	mapHeaderSize  = 28  // header copy, next map, file ref, attrs, list offsets
	typeEntrySize  = 8
	refEntrySize   = 12
	noName         = 0xFFFF
	maxDataOffset  = 1<<24 - 1
	maxMapListSize = 0xFFFF
)

// ErrMalformed reports a structurally invalid resource fork.
var ErrMalformed = errors.New("rsrc: malformed resource fork")

// File is an in-memory resource fork.
type File struct {
	Attributes uint16 // resource map attributes

	types []string
	byKey map[string][]*types.Resource
}

// New returns an empty resource file.
func New() *File {
	return &File{byKey: make(map[string][]*types.Resource)}
}

// Open maps the file at path and parses it.
func Open(path string) (*File, error) {
	data, cleanup, err := mmfile.Map(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cleanup() }()
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrMalformed}, args...)...)
}

// Parse decodes a resource fork. An empty input yields an empty file.
func Parse(data []byte) (*File, error) {
	f := New()
	if len(data) == 0 {
		return f, nil
	}
	if len(data) < HeaderSize {
		return nil, malformed("%d bytes is shorter than the header", len(data))
	}
	dataOff := int(buf.U32BE(data[0:]))
	mapOff := int(buf.U32BE(data[4:]))
	dataLen := int(buf.U32BE(data[8:]))
	mapLen := int(buf.U32BE(data[12:]))

	area, ok := buf.Slice(data, dataOff, dataLen)
	if !ok {
		return nil, malformed("data area %d+%d outside %d-byte file", dataOff, dataLen, len(data))
	}
	rmap, ok := buf.Slice(data, mapOff, mapLen)
	if !ok || mapLen < mapHeaderSize {
		return nil, malformed("map %d+%d outside %d-byte file", mapOff, mapLen, len(data))
	}

	f.Attributes = buf.U16BE(rmap[22:])
	typeListOff := int(buf.U16BE(rmap[24:]))
	nameListOff := int(buf.U16BE(rmap[26:]))

	typeList, ok := buf.Slice(rmap, typeListOff, 2)
	if !ok {
		return nil, malformed("type list offset %d", typeListOff)
	}
	numTypes := int(int16(buf.U16BE(typeList))) + 1
	if err := buf.CheckCount(len(rmap)-typeListOff-2, numTypes, typeEntrySize); err != nil {
		return nil, malformed("type list: %v", err)
	}

	for i := 0; i < numTypes; i++ {
		entry := rmap[typeListOff+2+i*typeEntrySize:]
		typ := format.FourCCFromBytes(entry).String()
		count := int(buf.U16BE(entry[4:])) + 1
		refOff := typeListOff + int(buf.U16BE(entry[6:]))
		if err := buf.CheckCount(len(rmap)-refOff, count, refEntrySize); err != nil || refOff < 0 {
			return nil, malformed("reference list for '%s': %v", typ, err)
		}
		for j := 0; j < count; j++ {
			ref := rmap[refOff+j*refEntrySize:]
			r := &types.Resource{
				Type:       typ,
				ID:         buf.I16BE(ref),
				Attributes: ref[4],
			}
			if nameOff := buf.U16BE(ref[2:]); nameOff != noName {
				name, err := readName(rmap, nameListOff+int(nameOff))
				if err != nil {
					return nil, fmt.Errorf("%s: %w", r, err)
				}
				r.Name = name
			}
			body, err := readData(area, int(buf.U24BE(ref[5:])))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", r, err)
			}
			r.Data = body
			if err := f.Add(r); err != nil {
				return nil, malformed("%v", err)
			}
		}
	}
	return f, nil
}

func readName(rmap []byte, off int) (string, error) {
	n, ok := buf.Slice(rmap, off, 1)
	if !ok {
		return "", malformed("name offset %d", off)
	}
	b, ok := buf.Slice(rmap, off+1, int(n[0]))
	if !ok {
		return "", malformed("name at %d runs past the map", off)
	}
	return format.DecodeMacRoman(b), nil
}

func readData(area []byte, off int) ([]byte, error) {
	lb, ok := buf.Slice(area, off, 4)
	if !ok {
		return nil, malformed("data offset %d", off)
	}
	b, ok := buf.Slice(area, off+4, int(buf.U32BE(lb)))
	if !ok {
		return nil, malformed("data at %d runs past the data area", off)
	}
	return append([]byte(nil), b...), nil
}

// Types returns the resource types in file order.
func (f *File) Types() []string {
	return append([]string(nil), f.types...)
}

// Resources returns the resources of one type in file order. An empty typ
// returns every resource.
func (f *File) Resources(typ string) []*types.Resource {
	if typ != "" {
		return append([]*types.Resource(nil), f.byKey[typ]...)
	}
	var out []*types.Resource
	for _, t := range f.types {
		out = append(out, f.byKey[t]...)
	}
	return out
}

// Len returns the number of resources.
func (f *File) Len() int {
	n := 0
	for _, rs := range f.byKey {
		n += len(rs)
	}
	return n
}

// Get returns the resource with the given type and id.
func (f *File) Get(typ string, id int16) (*types.Resource, error) {
	for _, r := range f.byKey[typ] {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, &types.Error{Kind: types.ErrKindNotFound, Msg: fmt.Sprintf("no resource '%s' #%d", typ, id), Offset: -1}
}

// GetNamed returns the first resource of typ with the given name.
func (f *File) GetNamed(typ, name string) (*types.Resource, error) {
	for _, r := range f.byKey[typ] {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, &types.Error{Kind: types.ErrKindNotFound, Msg: fmt.Sprintf("no resource '%s' named %q", typ, name), Offset: -1}
}

// Add appends r. The type must be a valid four-character code and the
// (type, id) pair must be unused.
func (f *File) Add(r *types.Resource) error {
	if _, err := format.ParseFourCC(r.Type); err != nil {
		return types.NewError(types.ErrKindValue, "resource type", err)
	}
	if _, err := f.Get(r.Type, r.ID); err == nil {
		return &types.Error{Kind: types.ErrKindValue, Msg: fmt.Sprintf("%s already exists", r), Offset: -1}
	}
	if _, ok := f.byKey[r.Type]; !ok {
		f.types = append(f.types, r.Type)
	}
	f.byKey[r.Type] = append(f.byKey[r.Type], r)
	return nil
}

// Remove deletes the resource with the given type and id.
func (f *File) Remove(typ string, id int16) error {
	rs := f.byKey[typ]
	for i, r := range rs {
		if r.ID != id {
			continue
		}
		rs = append(rs[:i:i], rs[i+1:]...)
		if len(rs) == 0 {
			delete(f.byKey, typ)
			for j, t := range f.types {
				if t == typ {
					f.types = append(f.types[:j:j], f.types[j+1:]...)
					break
				}
			}
		} else {
			f.byKey[typ] = rs
		}
		return nil
	}
	return &types.Error{Kind: types.ErrKindNotFound, Msg: fmt.Sprintf("no resource '%s' #%d", typ, id), Offset: -1}
}

// Sort orders types and the resources within each type by id.
func (f *File) Sort() {
	sort.Strings(f.types)
	for _, rs := range f.byKey {
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].ID < rs[j].ID })
	}
}

// Bytes encodes the file as a resource fork.
func (f *File) Bytes() ([]byte, error) {
	all := f.Resources("")

	// data area
	data := buf.NewWriter(0)
	offsets := make(map[*types.Resource]int, len(all))
	for _, r := range all {
		if data.Len() > maxDataOffset {
			return nil, fmt.Errorf("rsrc: data area exceeds %d bytes", maxDataOffset)
		}
		offsets[r] = data.Len()
		data.U32(uint32(len(r.Data)))
		_, _ = data.Write(r.Data)
	}

	// name list
	names := buf.NewWriter(0)
	nameOffsets := make(map[*types.Resource]int)
	for _, r := range all {
		if r.Name == "" {
			continue
		}
		b, err := format.EncodeMacRoman(r.Name)
		if err != nil || len(b) > 255 {
			return nil, fmt.Errorf("rsrc: %s: name must be at most 255 Mac OS Roman bytes", r)
		}
		nameOffsets[r] = names.Len()
		names.U8(uint8(len(b)))
		_, _ = names.Write(b)
	}
	if names.Len() > maxMapListSize {
		return nil, fmt.Errorf("rsrc: name list exceeds %d bytes", maxMapListSize)
	}

	// type list and reference lists
	tl := buf.NewWriter(0)
	tl.U16(uint16(len(f.types) - 1))
	refStart := 2 + len(f.types)*typeEntrySize
	refs := buf.NewWriter(0)
	for _, typ := range f.types {
		rs := f.byKey[typ]
		code, err := format.ParseFourCC(typ)
		if err != nil {
			return nil, fmt.Errorf("rsrc: %w", err)
		}
		tl.U32(uint32(code))
		tl.U16(uint16(len(rs) - 1))
		tl.U16(uint16(refStart + refs.Len()))
		for _, r := range rs {
			refs.U16(uint16(r.ID))
			if off, ok := nameOffsets[r]; ok {
				refs.U16(uint16(off))
			} else {
				refs.U16(noName)
			}
			refs.U8(r.Attributes &^ types.AttrChanged)
			var off [3]byte
			buf.PutU24BE(off[:], uint32(offsets[r]))
			_, _ = refs.Write(off[:])
			refs.U32(0)
		}
	}
	if refStart+refs.Len() > maxMapListSize {
		return nil, fmt.Errorf("rsrc: type list exceeds %d bytes", maxMapListSize)
	}

	mapOff := DataOffset + data.Len()
	mapLen := mapHeaderSize + tl.Len() + refs.Len() + names.Len()

	out := buf.NewWriter(mapOff + mapLen)
	header := func() {
		out.U32(DataOffset)
		out.U32(uint32(mapOff))
		out.U32(uint32(data.Len()))
		out.U32(uint32(mapLen))
	}
	header()
	out.Zero(DataOffset - HeaderSize)
	_, _ = out.Write(data.Bytes())

	header()
	out.U32(0) // next map handle
	out.U16(0) // file reference number
	out.U16(f.Attributes)
	out.U16(mapHeaderSize)
	out.U16(uint16(mapHeaderSize + tl.Len() + refs.Len()))
	_, _ = out.Write(tl.Bytes())
	_, _ = out.Write(refs.Bytes())
	_, _ = out.Write(names.Bytes())
	return out.Bytes(), nil
}

// WriteTo encodes the file and hands it to sink.
func (f *File) WriteTo(sink writer.Sink) error {
	b, err := f.Bytes()
	if err != nil {
		return err
	}
	return sink.WriteFork(b)
}

// WriteFile atomically replaces the file at path.
func (f *File) WriteFile(path string) error {
	return f.WriteTo(&writer.FileWriter{Path: path})
}
