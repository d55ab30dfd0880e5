package types

import (
	"strconv"
	"strings"
)

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindTruncated    ErrKind = iota // data ended inside a field
	ErrKindUnknownField                // template names a type code with no codec
	ErrKindRepeatCount                 // negative or impossible repeat/list count
	ErrKindStructure                   // template nesting or ordering is invalid
	ErrKindTemplate                    // template bytes are themselves corrupt
	ErrKindTrailing                    // bytes left over after the last field
	ErrKindValue                       // edit text does not fit the field
	ErrKindNotFound                    // missing element, resource or template
	ErrKindState                       // invalid operation for current state (e.g., closed)
)

var kindNames = [...]string{
	ErrKindTruncated:    "truncated data",
	ErrKindUnknownField: "unknown field type",
	ErrKindRepeatCount:  "invalid repeat count",
	ErrKindStructure:    "invalid template structure",
	ErrKindTemplate:     "corrupt template",
	ErrKindTrailing:     "trailing data",
	ErrKindValue:        "invalid value",
	ErrKindNotFound:     "not found",
	ErrKindState:        "invalid state",
}

// String implements the Stringer interface for ErrKind.
func (k ErrKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "error kind " + strconv.Itoa(int(k))
}

// Error is a typed error with optional field context and underlying cause.
type Error struct {
	Kind   ErrKind
	Msg    string
	Field  string // type code and label of the offending field, if any
	Offset int    // byte offset into the resource, or -1
	Err    error  // optional underlying cause
}

// NewError returns an Error without field context.
func NewError(kind ErrKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Offset: -1, Err: err}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.Field != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Field)
	}
	if e.Offset >= 0 {
		sb.WriteString(" at offset ")
		sb.WriteString(strconv.Itoa(e.Offset))
	}
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrTruncated)
// holds for every truncation regardless of field context.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t != nil && e != nil && t.Kind == e.Kind
}

// Sentinels for errors.Is checks, one per kind.
var (
	ErrTruncated        = &Error{Kind: ErrKindTruncated, Offset: -1}
	ErrUnknownFieldType = &Error{Kind: ErrKindUnknownField, Offset: -1}
	ErrInvalidRepeat    = &Error{Kind: ErrKindRepeatCount, Offset: -1}
	ErrInvalidStructure = &Error{Kind: ErrKindStructure, Offset: -1}
	ErrCorruptTemplate  = &Error{Kind: ErrKindTemplate, Offset: -1}
	ErrTrailingData     = &Error{Kind: ErrKindTrailing, Offset: -1}
	ErrInvalidValue     = &Error{Kind: ErrKindValue, Offset: -1}
	ErrNotFound         = &Error{Kind: ErrKindNotFound, Offset: -1}
	ErrClosed           = &Error{Kind: ErrKindState, Msg: "editor is closed", Offset: -1}
)
