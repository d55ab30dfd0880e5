package tmpl

import (
	"strconv"

	"github.com/joshuapare/tmplkit/pkg/types"
)

// Kind classifies a field by how its bytes are decoded.
type Kind int

const (
	KindInt      Kind = iota // signed or unsigned integer, 1/2/4/8 bytes
	KindRect                 // four int16: top, left, bottom, right
	KindPoint                // two int16: v, h
	KindAlign                // zero bytes up to an alignment boundary
	KindFill                 // fixed run of filler bytes
	KindFloat                // IEEE 754 single or double
	KindString               // Pascal, C or fixed-field string
	KindChar                 // single Mac OS Roman character
	KindTypeCode             // four-character code
	KindBool                 // two bytes, true = 0x0100
	KindFlag                 // integer holding 0 or 1
	KindBits                 // bit field packed into a shared integer
	KindHex                  // raw bytes shown as hex
	KindCounter              // entry count for the following LSTC list
	KindList                 // repeated group of fields
	KindEntry                // one instance of a list body
	KindSkip                 // length-prefixed section
	KindDate                 // seconds since 1904-01-01 UTC
	KindColor                // QuickDraw colour
	KindCosmetic             // label only, no bytes

	// structural codes that never become fields
	kindCase
	kindCaseRange
	kindListEnd
	kindKeyBegin
	kindKeyEnd
	kindSkipEnd
	kindRepeat
)

var kindNames = [...]string{
	KindInt:       "int",
	KindRect:      "rect",
	KindPoint:     "point",
	KindAlign:     "align",
	KindFill:      "fill",
	KindFloat:     "float",
	KindString:    "string",
	KindChar:      "char",
	KindTypeCode:  "typecode",
	KindBool:      "bool",
	KindFlag:      "flag",
	KindBits:      "bits",
	KindHex:       "hex",
	KindCounter:   "counter",
	KindList:      "list",
	KindEntry:     "entry",
	KindSkip:      "skip",
	KindDate:      "date",
	KindColor:     "color",
	KindCosmetic:  "cosmetic",
	kindCase:      "case",
	kindCaseRange: "case range",
	kindListEnd:   "list end",
	kindKeyBegin:  "key section",
	kindKeyEnd:    "key section end",
	kindSkipEnd:   "skip end",
	kindRepeat:    "repeat",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ListMode says how a list decides its number of entries.
type ListMode int

const (
	ListToEnd   ListMode = iota // LSTB: entries until the end of the range
	ListZero                    // LSTZ: entries until a zero byte
	ListCounted                 // LSTC: entry count from the preceding counter
)

// Padding applies to OSTR/ESTR/OCST/ECST strings.
type Padding int

const (
	PadNone Padding = iota
	PadOdd          // total field length made odd
	PadEven         // total field length made even
)

// desc is the static description behind a type code.
type desc struct {
	kind      Kind
	width     int  // integer width, length prefix width, alignment
	size      int  // fixed size for Fnnn/Hnnn/Pnnn/Cnnn, bit count for bit fields
	signed    bool // integers and counters
	hex       bool // integers shown in hex
	key       bool // value selects a KEYB section
	cstr      bool // NUL-terminated string
	pad       Padding
	inclusive bool // BSHX/BSKP: length prefix counts itself
	zeroBased bool // ZCNT/LZCT: stored value is count-1
	fixed     bool // FCNT: count comes from the label
	rest      bool // HEXD: consume rest of range
	orv       bool // BORV/WORV/LORV: CASE values are OR-ed flags
	rid       bool // KRID: value is the resource ID, stored nowhere
	list      ListMode
}

func intDesc(width int, signed bool) desc { return desc{kind: KindInt, width: width, signed: signed} }
func hexDesc(width int) desc              { return desc{kind: KindInt, width: width, hex: true} }
func keyDesc(s desc) desc                 { s.key = true; return s }

var registry = map[string]desc{
	// integers
	"DBYT": intDesc(1, true),
	"DWRD": intDesc(2, true),
	"DLNG": intDesc(4, true),
	"DLLG": intDesc(8, true),
	"UBYT": intDesc(1, false),
	"UWRD": intDesc(2, false),
	"ULNG": intDesc(4, false),
	"ULLG": intDesc(8, false),
	"HBYT": hexDesc(1),
	"HWRD": hexDesc(2),
	"HLNG": hexDesc(4),
	"HLLG": hexDesc(8),

	// OR-values
	"BORV": {kind: KindInt, width: 1, orv: true},
	"WORV": {kind: KindInt, width: 2, orv: true},
	"LORV": {kind: KindInt, width: 4, orv: true},

	// compatibility aliases decoded as plain integers
	"SFRC": intDesc(2, false),
	"FXYZ": intDesc(2, false),
	"FWID": intDesc(2, false),
	"FRAC": intDesc(4, false),
	"FIXD": intDesc(4, false),
	"LLDT": intDesc(8, false),
	"STYL": intDesc(1, true),
	"SCPC": intDesc(2, true),
	"LNGC": intDesc(2, true),
	"RGNC": intDesc(2, true),
	"RSID": intDesc(2, true),

	// multiple fields
	"RECT": {kind: KindRect, width: 8},
	"PNT ": {kind: KindPoint, width: 4},

	// align & fill
	"AWRD": {kind: KindAlign, width: 2},
	"ALNG": {kind: KindAlign, width: 4},
	"AL08": {kind: KindAlign, width: 8},
	"AL16": {kind: KindAlign, width: 16},
	"FBYT": {kind: KindFill, size: 1},
	"FWRD": {kind: KindFill, size: 2},
	"FLNG": {kind: KindFill, size: 4},
	"FLLG": {kind: KindFill, size: 8},

	// fractions
	"REAL": {kind: KindFloat, width: 4},
	"DOUB": {kind: KindFloat, width: 8},

	// strings
	"PSTR": {kind: KindString, width: 1},
	"BSTR": {kind: KindString, width: 1},
	"WSTR": {kind: KindString, width: 2},
	"LSTR": {kind: KindString, width: 4},
	"OSTR": {kind: KindString, width: 1, pad: PadOdd},
	"ESTR": {kind: KindString, width: 1, pad: PadEven},
	"CSTR": {kind: KindString, cstr: true},
	"OCST": {kind: KindString, cstr: true, pad: PadOdd},
	"ECST": {kind: KindString, cstr: true, pad: PadEven},
	"CHAR": {kind: KindChar, width: 1},
	"TNAM": {kind: KindTypeCode, width: 4},

	// bits
	"BOOL": {kind: KindBool, width: 2},
	"BFLG": {kind: KindFlag, width: 1},
	"WFLG": {kind: KindFlag, width: 2},
	"LFLG": {kind: KindFlag, width: 4},
	"BBIT": {kind: KindBits, width: 1, size: 1},
	"WBIT": {kind: KindBits, width: 2, size: 1},
	"LBIT": {kind: KindBits, width: 4, size: 1},

	// hex dumps
	"HEXD": {kind: KindHex, rest: true},
	"BHEX": {kind: KindHex, width: 1},
	"WHEX": {kind: KindHex, width: 2},
	"LHEX": {kind: KindHex, width: 4},
	"BSHX": {kind: KindHex, width: 1, inclusive: true},
	"WSHX": {kind: KindHex, width: 2, inclusive: true},
	"LSHX": {kind: KindHex, width: 4, inclusive: true},

	// list counters
	"OCNT": {kind: KindCounter, width: 2},
	"WCNT": {kind: KindCounter, width: 2},
	"BCNT": {kind: KindCounter, width: 1},
	"LCNT": {kind: KindCounter, width: 4},
	"ZCNT": {kind: KindCounter, width: 2, signed: true, zeroBased: true},
	"LZCT": {kind: KindCounter, width: 4, signed: true, zeroBased: true},
	"FCNT": {kind: KindCounter, fixed: true},

	// list begin/end
	"LSTB": {kind: KindList, list: ListToEnd},
	"LSTZ": {kind: KindList, list: ListZero},
	"LSTC": {kind: KindList, list: ListCounted},
	"LSTE": {kind: kindListEnd},

	// length-prefixed sections
	"BSKP": {kind: KindSkip, width: 1, inclusive: true},
	"WSKP": {kind: KindSkip, width: 2, inclusive: true},
	"LSKP": {kind: KindSkip, width: 4, inclusive: true},
	"BSIZ": {kind: KindSkip, width: 1},
	"WSIZ": {kind: KindSkip, width: 2},
	"LSIZ": {kind: KindSkip, width: 4},
	"SKPE": {kind: kindSkipEnd},

	// options
	"CASE": {kind: kindCase},
	"CASR": {kind: kindCaseRange},

	// key selection
	"KBYT": keyDesc(intDesc(1, true)),
	"KWRD": keyDesc(intDesc(2, true)),
	"KLNG": keyDesc(intDesc(4, true)),
	"KLLG": keyDesc(intDesc(8, true)),
	"KUBT": keyDesc(intDesc(1, false)),
	"KUWD": keyDesc(intDesc(2, false)),
	"KULG": keyDesc(intDesc(4, false)),
	"KULL": keyDesc(intDesc(8, false)),
	"KHBT": keyDesc(hexDesc(1)),
	"KHWD": keyDesc(hexDesc(2)),
	"KHLG": keyDesc(hexDesc(4)),
	"KHLL": keyDesc(hexDesc(8)),
	"KCHR": keyDesc(desc{kind: KindChar, width: 1}),
	"KTYP": keyDesc(desc{kind: KindTypeCode, width: 4}),
	"KRID": keyDesc(desc{kind: KindInt, width: 2, signed: true, rid: true}),
	"KEYB": {kind: kindKeyBegin},
	"KEYE": {kind: kindKeyEnd},

	// dates
	"DATE": {kind: KindDate, width: 4},
	"MDAT": {kind: KindDate, width: 4},

	// colours
	"COLR": {kind: KindColor, width: 6},
	"WCOL": {kind: KindColor, width: 2},
	"LCOL": {kind: KindColor, width: 4},

	// cosmetic
	"DVDR": {kind: KindCosmetic},
	"RREF": {kind: KindCosmetic},
	"PACK": {kind: KindCosmetic},
}

// lookup resolves a type code: exact match first, then Xnnn (one letter and
// three hex digits) and XXnn (two letters and two decimal digits).
func lookup(code string) (desc, error) {
	if s, ok := registry[code]; ok {
		return s, nil
	}
	if n, ok := parseXnnn(code); ok {
		switch code[0] {
		case 'F':
			return desc{kind: KindFill, size: n}, nil
		case 'H':
			return desc{kind: KindHex, size: n}, nil
		case 'P':
			if n < 2 || n > 256 {
				break
			}
			return desc{kind: KindString, size: n}, nil
		case 'C':
			if n < 2 {
				break
			}
			return desc{kind: KindString, size: n, cstr: true}, nil
		case 'R':
			return desc{kind: kindRepeat, size: n}, nil
		}
	}
	if n, ok := parseXXnn(code); ok {
		width := 0
		switch code[:2] {
		case "BB":
			width = 1
		case "WB":
			width = 2
		case "LB":
			width = 4
		}
		if width > 0 && n <= width*8 {
			return desc{kind: KindBits, width: width, size: n}, nil
		}
	}
	return desc{}, &types.Error{Kind: types.ErrKindUnknownField, Field: strconv.Quote(code), Offset: -1}
}

// parseXnnn matches an upper-case letter followed by a decimal digit and two
// hex digits, excluding "000".
func parseXnnn(code string) (int, bool) {
	if len(code) != 4 || !isUpper(code[0]) || !isDigit(code[1]) || !isHex(code[2]) || !isHex(code[3]) {
		return 0, false
	}
	n, err := strconv.ParseUint(code[1:], 16, 16)
	if err != nil || n == 0 {
		return 0, false
	}
	return int(n), true
}

// parseXXnn matches two upper-case letters followed by two decimal digits,
// excluding "00".
func parseXXnn(code string) (int, bool) {
	if len(code) != 4 || !isUpper(code[0]) || !isUpper(code[1]) || !isDigit(code[2]) || !isDigit(code[3]) {
		return 0, false
	}
	n, _ := strconv.Atoi(code[2:])
	if n == 0 {
		return 0, false
	}
	return n, true
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isHex(c byte) bool   { return isDigit(c) || (c >= 'A' && c <= 'F') }
