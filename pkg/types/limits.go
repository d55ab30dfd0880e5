package types

import "fmt"

const (
	// DefaultMaxDepth bounds template nesting (lists, keyed and skip sections).
	DefaultMaxDepth = 64

	// DefaultMaxEntries bounds the number of entries in a single list.
	DefaultMaxEntries = 1 << 16

	// DefaultMaxElements bounds the total number of elements in one decoded
	// or default-built tree.
	DefaultMaxElements = 1 << 20

	// DefaultMaxDataSize bounds the resource size accepted for decoding.
	// Classic resource forks cap data at 16 MiB.
	DefaultMaxDataSize = 16 << 20

	// RelaxedMaxEntries is used by RelaxedLimits for huge tables.
	RelaxedMaxEntries = 1 << 24

	// RelaxedMaxElements is used by RelaxedLimits.
	RelaxedMaxElements = 1 << 26

	// RelaxedMaxDataSize is used by RelaxedLimits.
	RelaxedMaxDataSize = 1 << 30
)

// Limits guards the decoder against absurd or malicious input.
type Limits struct {
	MaxDepth    int // maximum nesting depth of lists and sections
	MaxEntries  int // maximum entries per list
	MaxElements int // maximum elements in one tree
	MaxDataSize int // maximum resource size in bytes
}

// DefaultLimits returns limits suitable for any real resource.
func DefaultLimits() Limits {
	return Limits{
		MaxDepth:    DefaultMaxDepth,
		MaxEntries:  DefaultMaxEntries,
		MaxElements: DefaultMaxElements,
		MaxDataSize: DefaultMaxDataSize,
	}
}

// RelaxedLimits returns permissive limits for synthetic or oversized data.
func RelaxedLimits() Limits {
	return Limits{
		MaxDepth:    DefaultMaxDepth * 4,
		MaxEntries:  RelaxedMaxEntries,
		MaxElements: RelaxedMaxElements,
		MaxDataSize: RelaxedMaxDataSize,
	}
}

// Validate reports non-positive limits.
func (l Limits) Validate() error {
	if l.MaxDepth <= 0 {
		return fmt.Errorf("limits: MaxDepth must be positive, got %d", l.MaxDepth)
	}
	if l.MaxEntries <= 0 {
		return fmt.Errorf("limits: MaxEntries must be positive, got %d", l.MaxEntries)
	}
	if l.MaxElements <= 0 {
		return fmt.Errorf("limits: MaxElements must be positive, got %d", l.MaxElements)
	}
	if l.MaxDataSize <= 0 {
		return fmt.Errorf("limits: MaxDataSize must be positive, got %d", l.MaxDataSize)
	}
	return nil
}
