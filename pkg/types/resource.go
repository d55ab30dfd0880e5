package types

import "fmt"

// Resource attribute bits as stored in a resource map reference entry.
const (
	AttrSysHeap   uint8 = 0x40
	AttrPurgeable uint8 = 0x20
	AttrLocked    uint8 = 0x10
	AttrProtected uint8 = 0x08
	AttrPreload   uint8 = 0x04
	AttrChanged   uint8 = 0x02
)

// Resource is raw resource data plus its identifying metadata.
//
// The owner (a resource file or a host application) manages its lifetime.
// Editors keep a reference and replace Data only when committing.
type Resource struct {
	Type       string // four-character type code, e.g. "STR#"
	ID         int16
	Name       string // may be empty
	Attributes uint8
	Data       []byte
}

// String formats the resource as 'TYPE' #id "name".
func (r *Resource) String() string {
	if r == nil {
		return "<nil>"
	}
	if r.Name == "" {
		return fmt.Sprintf("'%s' #%d", r.Type, r.ID)
	}
	return fmt.Sprintf("'%s' #%d %q", r.Type, r.ID, r.Name)
}
