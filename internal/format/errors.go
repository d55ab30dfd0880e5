package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrBadFourCC indicates a type code that is not exactly four Mac OS Roman bytes.
	ErrBadFourCC = errors.New("format: invalid four-character code")
	// ErrUnencodable indicates text with characters outside Mac OS Roman.
	ErrUnencodable = errors.New("format: text not representable in Mac OS Roman")
	// ErrDateRange indicates a time outside the unsigned 32-bit Mac epoch range.
	ErrDateRange = errors.New("format: date outside Mac epoch range")
	// ErrSanityLimit indicates a count or size beyond what the format allows.
	ErrSanityLimit = errors.New("format: value exceeds sanity limit")
)
