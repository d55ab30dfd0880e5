package host

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/tmplkit/internal/testutil"
	"github.com/joshuapare/tmplkit/pkg/types"
	"github.com/joshuapare/tmplkit/rsrc"
	"github.com/joshuapare/tmplkit/session"
)

const strYAML = `name: STR#
fields:
  - {label: Count, type: OCNT}
  - {label: "*****", type: LSTC}
  - {label: String, type: PSTR}
  - {label: "*****", type: LSTE}
`

func supportFile(t *testing.T) string {
	t.Helper()
	f := rsrc.New()
	require.NoError(t, f.Add(&types.Resource{Type: TemplateType, ID: 128, Name: "vers", Data: testutil.TMPL(t,
		"Major", "HBYT",
		"Minor", "HBYT",
		"Stage", "HBYT",
		"Build", "UBYT",
		"Region", "DWRD",
		"Short", "PSTR",
		"Long", "PSTR",
	)}))
	require.NoError(t, f.Add(&types.Resource{Type: TemplateType, ID: 129, Name: "BAD!", Data: testutil.TMPL(t, "X", "NOPE")}))
	b, err := f.Bytes()
	require.NoError(t, err)
	return testutil.WriteTemp(t, "support.rsrc", b)
}

func TestSupport_LoadFile(t *testing.T) {
	s := NewSupport(nil)
	n, err := s.LoadFile(supportFile(t))
	assert.Equal(t, 1, n)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnknownFieldType)

	tm, err := s.Lookup("vers")
	require.NoError(t, err)
	assert.Len(t, tm.Fields, 7)
	assert.Contains(t, s.Source("vers"), "support.rsrc")

	_, err = s.Lookup("BAD!")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestSupport_LoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "str.yaml"), []byte(strYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yml"), []byte("name: ["), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	src, err := os.ReadFile(supportFile(t))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "more.rsrc"), src, 0o644))

	s := NewSupport(nil)
	n, err := s.LoadDir(dir)
	assert.Equal(t, 2, n)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrCorruptTemplate)
	assert.Equal(t, []string{"STR#", "vers"}, s.Types())

	s2 := NewSupport(nil)
	n, err = s2.Load(filepath.Join(dir, "str.yaml"), filepath.Join(dir, "missing"))
	assert.Equal(t, 1, n)
	assert.Error(t, err)
	assert.Equal(t, 1, s2.Len())
}

func TestHost_Lifecycle(t *testing.T) {
	s := NewSupport(nil)
	_, err := s.Load(supportFile(t))
	require.Error(t, err)

	h := New(s, nil)
	res := &types.Resource{Type: "vers", ID: 1, Data: new(testutil.Buf).
		U8(1).U8(0x20).U8(0x80).U8(0).U16(0).PStr("1.2").PStr("1.2, 1994").Bytes()}

	handle, err := h.OpenEditor(res, nil)
	require.NoError(t, err)
	got, ok := h.EditorFor(res)
	require.True(t, ok)
	assert.Equal(t, handle, got)

	ed, err := h.Editor(handle)
	require.NoError(t, err)
	require.NoError(t, ed.Set("Short", "1.3"))

	require.NoError(t, h.CloseEditor(handle))
	assert.True(t, ed.Closed())
	assert.Equal(t, "1.3", string(res.Data[7:10]))

	_, err = h.Editor(handle)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, h.CloseEditor(handle), types.ErrNotFound)
}

func TestHost_OpenEditorErrors(t *testing.T) {
	h := New(nil, nil)
	_, err := h.OpenEditor(&types.Resource{Type: "ZZZZ", ID: 1}, nil)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = h.OpenEditor(nil, nil)
	assert.Error(t, err)
	assert.Empty(t, h.Editors())
}

func TestHost_Close(t *testing.T) {
	s := NewSupport(nil)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "str.yaml"), []byte(strYAML), 0o644))
	_, err := s.LoadDir(dir)
	require.NoError(t, err)

	opts := session.DefaultOptions()
	h := New(s, &opts)
	a := &types.Resource{Type: "STR#", ID: 1}
	b := &types.Resource{Type: "STR#", ID: 2}
	ha, err := h.OpenEditor(a, nil)
	require.NoError(t, err)
	_, err = h.OpenEditor(b, nil)
	require.NoError(t, err)
	assert.Len(t, h.Editors(), 2)

	ed, err := h.Editor(ha)
	require.NoError(t, err)
	_, err = ed.InsertEntry("*****", 0)
	require.NoError(t, err)

	require.NoError(t, h.Close())
	assert.Empty(t, h.Editors())
	assert.Equal(t, []byte{0, 1, 0}, a.Data)
	assert.Empty(t, b.Data)

	_, err = h.OpenEditor(a, nil)
	assert.ErrorIs(t, err, types.ErrClosed)
}
