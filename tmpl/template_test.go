package tmpl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/tmplkit/internal/testutil"
	"github.com/joshuapare/tmplkit/pkg/types"
)

func TestLookup_ExactAndSized(t *testing.T) {
	tests := []struct {
		code string
		kind Kind
		size int
	}{
		{"DWRD", KindInt, 0},
		{"PNT ", KindPoint, 0},
		{"F010", KindFill, 0x10},
		{"H004", KindHex, 4},
		{"P020", KindString, 0x20},
		{"C100", KindString, 0x100},
		{"WB03", KindBits, 3},
		{"LB32", KindBits, 32},
		{"R00A", kindRepeat, 10},
		{"BORV", KindInt, 0},
		{"LORV", KindInt, 0},
		{"KRID", KindInt, 0},
		{"CASR", kindCaseRange, 0},
		{"PACK", KindCosmetic, 0},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			s, err := lookup(tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, s.kind)
			if tt.size > 0 {
				assert.Equal(t, tt.size, s.size)
			}
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	for _, code := range []string{"ZZZZ", "F000", "BB00", "BB09", "KRIX", "P001", "FACE", "dwrd"} {
		_, err := lookup(code)
		require.Error(t, err, code)
		assert.ErrorIs(t, err, types.ErrUnknownFieldType, code)
	}
}

func TestParseTMPL_Basic(t *testing.T) {
	data := testutil.TMPL(t,
		"Count", "OCNT",
		"*****", "LSTC",
		"String", "PSTR",
		"*****", "LSTE",
	)
	tm, err := ParseTMPL("STR#", data)
	require.NoError(t, err)

	assert.Equal(t, "STR#", tm.Name)
	require.Len(t, tm.Fields, 2)
	assert.Equal(t, KindCounter, tm.Fields[0].Kind)
	assert.Equal(t, KindList, tm.Fields[1].Kind)
	assert.Equal(t, ListCounted, tm.Fields[1].ListMode())
	require.NotNil(t, tm.Fields[1].Entry())
	require.Len(t, tm.Fields[1].Entry().Fields, 1)
	assert.Equal(t, "String", tm.Fields[1].Entry().Fields[0].Label)

	out, err := tm.Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestParseTMPL_Corrupt(t *testing.T) {
	data := testutil.TMPL(t, "Value", "DWRD")
	_, err := ParseTMPL("TEST", data[:len(data)-1])
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrCorruptTemplate)
}

func TestParseTMPL_UnknownType(t *testing.T) {
	_, err := ParseTMPL("TEST", testutil.TMPL(t, "Value", "XYZW"))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnknownFieldType)
	assert.Contains(t, err.Error(), "XYZW")
}

func TestFromEntries_Repeat(t *testing.T) {
	tm, err := FromEntries("TEST", []Entry{
		{Label: "=0", Type: "R003"},
		{Label: "Item %", Type: "DBYT"},
		{Label: "None=0", Type: "CASE"},
		{Label: "Tail", Type: "UBYT"},
	})
	require.NoError(t, err)
	require.Len(t, tm.Fields, 4)
	assert.Equal(t, "Item 0", tm.Fields[0].Label)
	assert.Equal(t, "Item 2", tm.Fields[2].Label)
	for _, f := range tm.Fields[:3] {
		require.Len(t, f.Cases, 1)
		assert.Equal(t, "None", f.Cases[0].Symbol)
	}
	assert.Len(t, tm.Entries, 4, "entries keep the unexpanded form")
}

func TestFromEntries_RepeatDefaultsToOne(t *testing.T) {
	tm, err := FromEntries("TEST", []Entry{
		{Label: "", Type: "R002"},
		{Label: "Slot %", Type: "UWRD"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Slot 1", tm.Fields[0].Label)
	assert.Equal(t, "Slot 2", tm.Fields[1].Label)
}

func TestFromEntries_StructureErrors(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
	}{
		{"counter without list", []Entry{{"Count", "OCNT"}, {"Value", "DWRD"}}},
		{"counter at end", []Entry{{"Count", "OCNT"}}},
		{"LSTC without counter", []Entry{{"*", "LSTC"}, {"V", "DWRD"}, {"*", "LSTE"}}},
		{"unclosed list", []Entry{{"*", "LSTB"}, {"V", "DWRD"}}},
		{"stray closer", []Entry{{"V", "DWRD"}, {"*", "LSTE"}}},
		{"mismatched closer", []Entry{{"*", "LSTB"}, {"V", "DWRD"}, {"*", "SKPE"}}},
		{"short bit group", []Entry{{"A", "BBIT"}, {"B", "BB03"}, {"V", "DWRD"}}},
		{"mixed bit widths", []Entry{{"A", "BB04"}, {"B", "WB12"}}},
		{"field after HEXD", []Entry{{"Rest", "HEXD"}, {"V", "DWRD"}}},
		{"field after LSTB", []Entry{{"*", "LSTB"}, {"V", "DWRD"}, {"*", "LSTE"}, {"T", "DWRD"}}},
		{"KEYB without key", []Entry{{"V", "DWRD"}, {"1", "KEYB"}, {"*", "KEYE"}}},
		{"key without sections", []Entry{{"K", "KBYT"}, {"V", "DWRD"}}},
		{"CASE first", []Entry{{"A=1", "CASE"}, {"V", "DWRD"}}},
		{"CASE after list", []Entry{{"*", "LSTB"}, {"V", "DWRD"}, {"*", "LSTE"}, {"A=1", "CASE"}}},
		{"bad CASE value", []Entry{{"V", "UBYT"}, {"Big=300", "CASE"}}},
		{"repeat of list", []Entry{{"", "R002"}, {"*", "LSTB"}, {"*", "LSTE"}}},
		{"repeat at end", []Entry{{"", "R002"}}},
		{"FCNT without count", []Entry{{"Items", "FCNT"}, {"*", "LSTC"}, {"*", "LSTE"}}},
		{"CASR on string", []Entry{{"S", "PSTR"}, {"A=1,2", "CASR"}}},
		{"CASR without bounds", []Entry{{"V", "UBYT"}, {"A=5", "CASR"}}},
		{"CASR reversed", []Entry{{"V", "UBYT"}, {"A=9,1", "CASR"}}},
		{"CASR out of range", []Entry{{"V", "UBYT"}, {"A=1,300", "CASR"}}},
		{"CASR first", []Entry{{"A=1,2", "CASR"}, {"V", "UBYT"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEntries("TEST", tt.entries)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrInvalidStructure), "got %v", err)
		})
	}
}

func TestFromEntries_BitGroup(t *testing.T) {
	tm, err := FromEntries("TEST", []Entry{
		{"High", "BBIT"},
		{"Mid", "BB03"},
		{"Low", "BB04"},
	})
	require.NoError(t, err)
	require.Len(t, tm.Fields, 3)
	assert.True(t, tm.Fields[0].lead)
	assert.Equal(t, 7, tm.Fields[0].shift)
	assert.Equal(t, 4, tm.Fields[1].shift)
	assert.Equal(t, 0, tm.Fields[2].shift)
	assert.Equal(t, 1, tm.Fields[0].FixedSize())
	assert.Equal(t, 0, tm.Fields[1].FixedSize())
}

func TestFromEntries_KeySections(t *testing.T) {
	tm, err := FromEntries("TEST", []Entry{
		{"Kind", "KUBT"},
		{"Number=1", "CASE"},
		{"Text=$02", "CASE"},
		{"Number", "KEYB"},
		{"Value", "DLNG"},
		{"", "KEYE"},
		{"2, 3", "KEYB"},
		{"Text", "PSTR"},
		{"", "KEYE"},
	})
	require.NoError(t, err)
	require.Len(t, tm.Fields, 1)
	key := tm.Fields[0]
	assert.True(t, key.Keyed())
	require.Len(t, key.Cases, 2)
	assert.Equal(t, "2", key.Cases[1].Value, "case values are canonical")
	require.Len(t, key.Sections, 2)
	assert.True(t, key.Sections[0].Matches("1"))
	assert.True(t, key.Sections[1].Matches("2"))
	assert.True(t, key.Sections[1].Matches("3"))
	assert.False(t, key.Sections[1].Matches("4"))
}

func TestFixedCount(t *testing.T) {
	tests := []struct {
		label string
		want  int
	}{
		{"Items=4", 4},
		{"Items=$10", 16},
		{"Items=0x0A", 10},
		{"12 entries", 12},
		{"3", 3},
	}
	for _, tt := range tests {
		n, err := fixedCount(tt.label)
		require.NoError(t, err, tt.label)
		assert.Equal(t, tt.want, n, tt.label)
	}
}

func TestParseYAML(t *testing.T) {
	src := `
name: STR#
fields:
  - {label: "Number of Strings", type: OCNT}
  - {label: "*****", type: LSTC}
  - {label: "The String", type: PSTR}
  - {label: "*****", type: LSTE}
`
	tm, err := ParseYAML([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, "STR#", tm.Name)
	require.Len(t, tm.Fields, 2)

	fromTMPL, err := ParseTMPL("STR#", testutil.TMPL(t,
		"Number of Strings", "OCNT",
		"*****", "LSTC",
		"The String", "PSTR",
		"*****", "LSTE",
	))
	require.NoError(t, err)
	assert.Equal(t, fromTMPL.Entries, tm.Entries)
}

func TestParseYAML_Errors(t *testing.T) {
	_, err := ParseYAML([]byte("fields: []"))
	assert.ErrorIs(t, err, types.ErrCorruptTemplate)

	_, err = ParseYAML([]byte("name: X\nfields: [{label: a, type: DWRD, extra: 1}]"))
	assert.ErrorIs(t, err, types.ErrCorruptTemplate)

	_, err = ParseYAML([]byte("name: X\nfields: [{label: a, type: NOPE}]"))
	assert.ErrorIs(t, err, types.ErrUnknownFieldType)
}

func TestTemplate_Walk(t *testing.T) {
	tm, err := FromEntries("TEST", []Entry{
		{"Count", "ZCNT"},
		{"*", "LSTC"},
		{"Name", "PSTR"},
		{"*", "LSTE"},
	})
	require.NoError(t, err)

	var labels []string
	tm.Walk(func(f *Field, depth int) bool {
		labels = append(labels, f.Label)
		return true
	})
	assert.Equal(t, []string{"Count", "*", "Name"}, labels)
}

func TestFromEntries_CaseRange(t *testing.T) {
	tm, err := FromEntries("TEST", []Entry{
		{"Level", "DWRD"},
		{"None=0", "CASE"},
		{"Low=1,5", "CASR"},
		{"Neg=-10,-1", "CASR"},
	})
	require.NoError(t, err)
	cases := tm.Fields[0].Cases
	require.Len(t, cases, 3)
	assert.False(t, cases[0].Range)
	assert.Equal(t, Case{Symbol: "Low", Value: "1", Range: true, Min: 1, Max: 5}, cases[1])
	assert.True(t, cases[2].Covers("-3"))
	assert.False(t, cases[2].Covers("0"))
}

func TestFromEntries_RepeatCopiesCaseRanges(t *testing.T) {
	tm, err := FromEntries("TEST", []Entry{
		{"", "R002"},
		{"Slot %", "UBYT"},
		{"Low=0,9", "CASR"},
	})
	require.NoError(t, err)
	require.Len(t, tm.Fields, 2)
	for _, f := range tm.Fields {
		require.Len(t, f.Cases, 1)
		assert.True(t, f.Cases[0].Range)
	}
}
