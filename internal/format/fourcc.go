package format

import (
	"encoding/binary"
	"fmt"
)

// FourCC is a classic Mac OS four-character code such as a resource type
// ('TMPL', 'STR#') or a template field type ('DWRD', 'PNT ').
type FourCC uint32

// ParseFourCC encodes s as Mac OS Roman and requires exactly four bytes.
func ParseFourCC(s string) (FourCC, error) {
	b, err := EncodeMacRoman(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadFourCC, s)
	}
	if len(b) != 4 {
		return 0, fmt.Errorf("%w: %q is %d bytes", ErrBadFourCC, s, len(b))
	}
	return FourCC(binary.BigEndian.Uint32(b)), nil
}

// MustFourCC is ParseFourCC for constants; it panics on invalid input.
func MustFourCC(s string) FourCC {
	c, err := ParseFourCC(s)
	if err != nil {
		panic(err)
	}
	return c
}

// FourCCFromBytes reads a code from the first four bytes of b.
func FourCCFromBytes(b []byte) FourCC {
	if len(b) < 4 {
		return 0
	}
	return FourCC(binary.BigEndian.Uint32(b))
}

// Bytes returns the code's four bytes.
func (c FourCC) Bytes() []byte {
	return binary.BigEndian.AppendUint32(nil, uint32(c))
}

// String decodes the code as Mac OS Roman.
func (c FourCC) String() string {
	return DecodeMacRoman(c.Bytes())
}
