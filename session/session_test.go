package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/joshuapare/tmplkit/internal/testutil"
	"github.com/joshuapare/tmplkit/pkg/types"
	"github.com/joshuapare/tmplkit/tmpl"
)

func strList(t *testing.T) *tmpl.Template {
	t.Helper()
	tm, err := tmpl.FromEntries("STR#", []tmpl.Entry{
		{Label: "Count", Type: "OCNT"},
		{Label: "*****", Type: "LSTC"},
		{Label: "String", Type: "PSTR"},
		{Label: "*****", Type: "LSTE"},
	})
	require.NoError(t, err)
	return tm
}

func strRes(strs ...string) *types.Resource {
	b := new(testutil.Buf).U16(uint16(len(strs)))
	for _, s := range strs {
		b.PStr(s)
	}
	return &types.Resource{Type: "STR#", ID: 128, Data: b.Bytes()}
}

func TestOpen_EditCommit(t *testing.T) {
	res := strRes("one", "two")
	orig := append([]byte(nil), res.Data...)
	s, err := Open(res, strList(t), nil)
	require.NoError(t, err)
	assert.NotEqual(t, [16]byte{}, [16]byte(s.ID()))
	assert.False(t, s.Dirty())

	require.NoError(t, s.Set("*****/1/String", "deux"))
	assert.True(t, s.Dirty())
	assert.Equal(t, orig, res.Data, "resource untouched before commit")

	require.NoError(t, s.Commit())
	assert.False(t, s.Dirty())
	assert.Equal(t, strRes("one", "deux").Data, res.Data)
	assert.NotZero(t, res.Attributes&types.AttrChanged)
	require.NoError(t, s.Close())
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(nil, strList(t), nil)
	assert.ErrorIs(t, err, types.ErrClosed)

	res := &types.Resource{Type: "STR#", ID: 1, Data: []byte{0, 2, 1}}
	_, err = Open(res, strList(t), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrTruncated)
}

func TestOpen_EmptyUsesDefaults(t *testing.T) {
	res := &types.Resource{Type: "STR#", ID: 1}
	s, err := Open(res, strList(t), nil)
	require.NoError(t, err)
	assert.False(t, s.Dirty())

	_, err = s.InsertEntry("*****", -1)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.Equal(t, strRes("").Data, res.Data)
}

func TestClose_CommitOnClose(t *testing.T) {
	res := strRes("a")
	s, err := Open(res, strList(t), nil)
	require.NoError(t, err)
	require.NoError(t, s.RemoveEntry("*****", 0))
	require.NoError(t, s.Close())
	assert.Equal(t, []byte{0, 0}, res.Data)
	assert.True(t, s.Closed())
	assert.Nil(t, s.List())

	require.NoError(t, s.Close(), "second close is a no-op")
	assert.ErrorIs(t, s.Set("*****/0/String", "x"), types.ErrClosed)
	_, err = s.InsertEntry("*****", 0)
	assert.ErrorIs(t, err, types.ErrClosed)
	assert.ErrorIs(t, s.RemoveEntry("*****", 0), types.ErrClosed)
	assert.ErrorIs(t, s.Reload(nil), types.ErrClosed)
	assert.ErrorIs(t, s.Revert(), types.ErrClosed)
	assert.ErrorIs(t, s.Commit(), types.ErrClosed)
	_, err = s.Bytes()
	assert.ErrorIs(t, err, types.ErrClosed)
}

func TestClose_Discard(t *testing.T) {
	res := strRes("a")
	orig := append([]byte(nil), res.Data...)
	opts := DefaultOptions()
	opts.CommitOnClose = false
	s, err := Open(res, strList(t), &opts)
	require.NoError(t, err)
	require.NoError(t, s.Set("*****/0/String", "b"))
	require.NoError(t, s.Close())
	assert.Equal(t, orig, res.Data)
	assert.Zero(t, res.Attributes&types.AttrChanged)
}

func TestReload_AllOrNothing(t *testing.T) {
	res := strRes("a", "b")
	s, err := Open(res, strList(t), nil)
	require.NoError(t, err)
	require.NoError(t, s.Set("*****/0/String", "edited"))
	before, err := s.Bytes()
	require.NoError(t, err)

	err = s.Reload([]byte{0, 5, 1, 'x'})
	require.Error(t, err)
	after, err := s.Bytes()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.True(t, s.Dirty())

	require.NoError(t, s.Reload(strRes("z").Data))
	assert.True(t, s.Dirty())
	out, err := s.Bytes()
	require.NoError(t, err)
	assert.Equal(t, strRes("z").Data, out)

	require.NoError(t, s.Reload(res.Data))
	assert.False(t, s.Dirty())
}

func TestRevert(t *testing.T) {
	res := strRes("a")
	s, err := Open(res, strList(t), nil)
	require.NoError(t, err)
	_, err = s.InsertEntry("*****", -1)
	require.NoError(t, err)
	require.NoError(t, s.Revert())
	assert.False(t, s.Dirty())
	out, err := s.Bytes()
	require.NoError(t, err)
	assert.Equal(t, res.Data, out)
}

func TestWithSession(t *testing.T) {
	res := strRes("a")
	err := WithSession(res, strList(t), nil, func(s *Session) error {
		return s.Set("*****/0/String", "b")
	})
	require.NoError(t, err)
	assert.Equal(t, strRes("b").Data, res.Data)

	boom := errors.New("boom")
	err = WithSession(res, strList(t), nil, func(s *Session) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	opts := DefaultOptions()
	opts.Logger = zap.New(core)
	s, err := Open(strRes("a"), strList(t), &opts)
	require.NoError(t, err)
	require.NoError(t, s.Set("*****/0/String", "b"))
	require.NoError(t, s.Close())

	assert.Equal(t, 1, logs.FilterMessage("session opened").Len())
	assert.Equal(t, 1, logs.FilterMessage("committed").Len())
	entry := logs.FilterMessage("set").All()[0]
	assert.Equal(t, "*****/0/String", entry.ContextMap()["path"])
	assert.Equal(t, s.ID().String(), entry.ContextMap()["session"])
}

func TestOpen_ResourceIDKey(t *testing.T) {
	tm, err := tmpl.FromEntries("TEST", []tmpl.Entry{
		{Label: "ID", Type: "KRID"},
		{Label: "128", Type: "KEYB"},
		{Label: "Name", Type: "PSTR"},
		{Label: "", Type: "KEYE"},
		{Label: "200", Type: "KEYB"},
		{Label: "Value", Type: "UWRD"},
		{Label: "", Type: "KEYE"},
	})
	require.NoError(t, err)

	res := &types.Resource{Type: "TEST", ID: 128, Data: new(testutil.Buf).PStr("ok").Bytes()}
	s, err := Open(res, tm, nil)
	require.NoError(t, err)
	name, err := s.List().Lookup("ID/Name")
	require.NoError(t, err)
	assert.Equal(t, "ok", name.Text())
	require.NoError(t, s.Close())

	empty := &types.Resource{Type: "TEST", ID: 200}
	s, err = Open(empty, tm, nil)
	require.NoError(t, err)
	_, err = s.List().Lookup("ID/Value")
	require.NoError(t, err)
	require.NoError(t, s.Close())
}
