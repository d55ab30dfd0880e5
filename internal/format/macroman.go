package format

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// DecodeMacRoman converts Mac OS Roman bytes to a UTF-8 string.
// Every byte value maps to a rune, so decoding cannot fail.
func DecodeMacRoman(b []byte) string {
	if isASCII(b) {
		return string(b)
	}
	out, err := charmap.Macintosh.NewDecoder().Bytes(b)
	if err != nil {
		// Unreachable for a single-byte charmap; fall back to raw bytes.
		return string(b)
	}
	return string(out)
}

// EncodeMacRoman converts a UTF-8 string to Mac OS Roman bytes.
func EncodeMacRoman(s string) ([]byte, error) {
	if isASCII([]byte(s)) {
		return []byte(s), nil
	}
	out, err := charmap.Macintosh.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnencodable, s)
	}
	return out, nil
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}
