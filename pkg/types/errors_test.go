package types

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := &Error{Kind: ErrKindTruncated, Field: `DWRD "Count"`, Offset: 12, Msg: "need 2 bytes"}
	wrapped := fmt.Errorf("decode: %w", err)

	require.True(t, errors.Is(wrapped, ErrTruncated))
	require.False(t, errors.Is(wrapped, ErrUnknownFieldType))

	var te *Error
	require.True(t, errors.As(wrapped, &te))
	assert.Equal(t, 12, te.Offset)
}

func TestErrorString(t *testing.T) {
	err := &Error{Kind: ErrKindTruncated, Field: `DWRD "Count"`, Offset: 12, Msg: "need 2 bytes", Err: io.ErrUnexpectedEOF}
	assert.Equal(t, `truncated data: DWRD "Count" at offset 12: need 2 bytes: unexpected EOF`, err.Error())

	plain := NewError(ErrKindNotFound, `no template for 'snd '`, nil)
	assert.Equal(t, `not found: no template for 'snd '`, plain.Error())
	assert.Equal(t, "invalid state: editor is closed", ErrClosed.Error())
}

func TestErrorUnwrap(t *testing.T) {
	err := NewError(ErrKindValue, "bad", io.EOF)
	assert.True(t, errors.Is(err, io.EOF))
}

func TestErrKindString(t *testing.T) {
	assert.Equal(t, "invalid repeat count", ErrKindRepeatCount.String())
	assert.Equal(t, "error kind 99", ErrKind(99).String())
}

func TestLimits(t *testing.T) {
	require.NoError(t, DefaultLimits().Validate())
	require.NoError(t, RelaxedLimits().Validate())
	require.Error(t, Limits{}.Validate())
	assert.Greater(t, RelaxedLimits().MaxEntries, DefaultLimits().MaxEntries)
	assert.Greater(t, RelaxedLimits().MaxElements, DefaultLimits().MaxElements)

	lim := DefaultLimits()
	lim.MaxElements = 0
	require.Error(t, lim.Validate())
}

func TestResourceString(t *testing.T) {
	r := &Resource{Type: "STR#", ID: 128}
	assert.Equal(t, "'STR#' #128", r.String())
	r.Name = "Messages"
	assert.Equal(t, `'STR#' #128 "Messages"`, r.String())
}
