package tmpl

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/joshuapare/tmplkit/internal/format"
	"github.com/joshuapare/tmplkit/pkg/types"
)

// Text returns the element's value in the form Set accepts.
func (e *Element) Text() string {
	f := e.field
	s := f.desc
	switch f.Kind {
	case KindInt:
		switch {
		case s.hex:
			return fmt.Sprintf("0x%0*X", s.width*2, e.num)
		case s.signed:
			return strconv.FormatInt(signExtend(e.num, s.width), 10)
		default:
			return strconv.FormatUint(e.num, 10)
		}
	case KindBits, KindCounter:
		return strconv.FormatUint(e.num, 10)
	case KindList:
		return strconv.Itoa(len(e.children))
	case KindFloat:
		if s.width == 4 {
			return strconv.FormatFloat(float64(math.Float32frombits(uint32(e.num))), 'g', -1, 32)
		}
		return strconv.FormatFloat(math.Float64frombits(e.num), 'g', -1, 64)
	case KindString:
		return format.DecodeMacRoman(e.data)
	case KindChar:
		return format.DecodeMacRoman([]byte{byte(e.num)})
	case KindTypeCode:
		return format.FourCC(e.num).String()
	case KindBool, KindFlag:
		return strconv.FormatBool(e.num != 0)
	case KindHex, KindFill:
		return hex.EncodeToString(e.data)
	case KindAlign:
		return hex.EncodeToString(e.slack)
	case KindDate:
		return format.MacToTime(uint32(e.num)).Format(time.RFC3339)
	case KindColor:
		return colorText(s.width, e)
	case KindRect, KindPoint:
		parts := make([]string, len(e.nums))
		for i, v := range e.nums {
			parts[i] = strconv.Itoa(int(int16(v)))
		}
		return strings.Join(parts, ",")
	}
	return ""
}

func colorText(width int, e *Element) string {
	switch width {
	case 6:
		return fmt.Sprintf("#%04X%04X%04X", e.nums[0], e.nums[1], e.nums[2])
	case 2:
		r, g, b := (e.num>>10)&0x1F, (e.num>>5)&0x1F, e.num&0x1F
		return fmt.Sprintf("#%02X%02X%02X", r<<3|r>>2, g<<3|g>>2, b<<3|b>>2)
	default:
		return fmt.Sprintf("#%06X", e.num&0xFFFFFF)
	}
}

func valueErr(f *Field, text, msg string) error {
	return &types.Error{
		Kind:   types.ErrKindValue,
		Field:  f.ident(),
		Msg:    fmt.Sprintf("%q: %s", text, msg),
		Offset: -1,
	}
}

// canonical parses text as a value of f and formats it back, so that
// equivalent spellings ("0x10", "$10", "16") compare equal.
func canonical(f *Field, text string) (string, error) {
	e := &Element{field: f}
	if err := e.parse(text, false); err != nil {
		return "", err
	}
	return e.Text(), nil
}

// parse stores text into e. Only the value changes: sizes, offsets and
// children are updated by the caller. When cases is true a CASE symbol is
// accepted in place of the value.
func (e *Element) parse(text string, cases bool) error {
	f := e.field
	s := f.desc
	if cases {
		if c, ok := f.caseNamed(text); ok {
			text = c.Value
		}
	}
	switch f.Kind {
	case KindInt:
		if s.orv {
			return e.parseOr(text, cases)
		}
		v, err := parseInt(text, s.width, s.signed)
		if err != nil {
			return valueErr(f, text, err.Error())
		}
		e.num = v
	case KindCounter:
		v, err := parseUint(text, 32)
		if err != nil {
			return valueErr(f, text, err.Error())
		}
		e.num = v
	case KindBits:
		if s.size == 1 {
			if b, err := strconv.ParseBool(text); err == nil {
				e.num = boolBit(b)
				return nil
			}
		}
		v, err := parseUint(text, s.size)
		if err != nil {
			return valueErr(f, text, err.Error())
		}
		e.num = v
	case KindFloat:
		v, err := strconv.ParseFloat(strings.TrimSpace(text), s.width*8)
		if err != nil {
			return valueErr(f, text, "not a number")
		}
		if s.width == 4 {
			e.num = uint64(math.Float32bits(float32(v)))
		} else {
			e.num = math.Float64bits(v)
		}
	case KindString:
		b, err := format.EncodeMacRoman(text)
		if err != nil {
			return valueErr(f, text, "not representable in Mac OS Roman")
		}
		if max := maxStringLen(s); len(b) > max {
			return valueErr(f, text, fmt.Sprintf("longer than %d bytes", max))
		}
		if s.cstr && strings.IndexByte(string(b), 0) >= 0 {
			return valueErr(f, text, "contains NUL")
		}
		e.data = b
	case KindChar:
		b, err := format.EncodeMacRoman(text)
		if err != nil || len(b) != 1 {
			return valueErr(f, text, "must be a single Mac OS Roman character")
		}
		e.num = uint64(b[0])
	case KindTypeCode:
		c, err := format.ParseFourCC(text)
		if err != nil {
			return valueErr(f, text, "must be four Mac OS Roman characters")
		}
		e.num = uint64(c)
	case KindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return valueErr(f, text, "must be true or false")
		}
		e.num = 0
		if b {
			e.num = 0x0100
		}
	case KindFlag:
		b, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return valueErr(f, text, "must be true or false")
		}
		e.num = boolBit(b)
	case KindHex:
		b, err := parseHex(text)
		if err != nil {
			return valueErr(f, text, "not a hex string")
		}
		if max := maxHexLen(s); max >= 0 && len(b) > max {
			return valueErr(f, text, fmt.Sprintf("longer than %d bytes", max))
		}
		e.data = b
	case KindDate:
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(text))
		if err != nil {
			return valueErr(f, text, "must be an RFC 3339 date")
		}
		secs, err := format.TimeToMac(t)
		if err != nil {
			return valueErr(f, text, err.Error())
		}
		e.num = uint64(secs)
	case KindColor:
		return e.parseColor(text)
	case KindRect, KindPoint:
		parts := strings.Split(text, ",")
		want := s.width / 2
		if len(parts) != want {
			return valueErr(f, text, fmt.Sprintf("needs %d comma-separated values", want))
		}
		nums := make([]uint16, want)
		for i, p := range parts {
			v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 16)
			if err != nil {
				return valueErr(f, text, "coordinates are 16-bit signed integers")
			}
			nums[i] = uint16(int16(v))
		}
		e.nums = nums
	default:
		return valueErr(f, text, "field has no editable value")
	}
	return nil
}

// parseOr reads "A|B|0x10": CASE symbols and numbers OR-ed together.
func (e *Element) parseOr(text string, cases bool) error {
	f := e.field
	var v uint64
	for _, tok := range strings.Split(text, "|") {
		tok = strings.TrimSpace(tok)
		if cases {
			if c, ok := f.caseNamed(tok); ok {
				tok = c.Value
			}
		}
		n, err := parseInt(tok, f.desc.width, false)
		if err != nil {
			return valueErr(f, text, err.Error())
		}
		v |= n
	}
	e.num = v
	return nil
}

// orSymbols names the CASE flags set in e, or returns "" when the flags do
// not account for every set bit.
func (e *Element) orSymbols() string {
	rest := e.num
	var names []string
	for _, c := range e.field.Cases {
		n, err := parseUint(c.Value, e.field.desc.width*8)
		if err != nil || n == 0 || e.num&n != n {
			continue
		}
		names = append(names, c.Symbol)
		rest &^= n
	}
	if rest != 0 || len(names) == 0 {
		return ""
	}
	return strings.Join(names, "|")
}

// numericValue reads the canonical text of a numeric field: decimal, or a
// 0x bit pattern for hex fields.
func numericValue(text string) (int64, bool) {
	if isHexLiteral(text) {
		v, err := parseUint(text, 64)
		return int64(v), err == nil
	}
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		return v, true
	}
	v, err := strconv.ParseUint(text, 10, 64)
	return int64(v), err == nil
}

func (e *Element) parseColor(text string) error {
	f := e.field
	digits := strings.TrimPrefix(strings.TrimSpace(text), "#")
	switch f.desc.width {
	case 6:
		if len(digits) != 12 {
			return valueErr(f, text, "must be #RRRRGGGGBBBB")
		}
		nums := make([]uint16, 3)
		for i := range nums {
			v, err := strconv.ParseUint(digits[i*4:i*4+4], 16, 16)
			if err != nil {
				return valueErr(f, text, "must be #RRRRGGGGBBBB")
			}
			nums[i] = uint16(v)
		}
		e.nums = nums
	default:
		if len(digits) != 6 {
			return valueErr(f, text, "must be #RRGGBB")
		}
		v, err := strconv.ParseUint(digits, 16, 32)
		if err != nil {
			return valueErr(f, text, "must be #RRGGBB")
		}
		if f.desc.width == 2 {
			r, g, b := v>>19&0x1F, v>>11&0x1F, v>>3&0x1F
			e.num = e.num&0x8000 | r<<10 | g<<5 | b
		} else {
			e.num = e.num&0xFF000000 | v
		}
	}
	return nil
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// parseInt parses decimal, 0x-prefixed or $-prefixed text into the low
// width bytes. Hex input is taken as a bit pattern; negative decimals are
// accepted only when signed is set.
func parseInt(text string, width int, signed bool) (uint64, error) {
	t := strings.TrimSpace(text)
	bits := width * 8
	if isHexLiteral(t) {
		return parseUint(t, bits)
	}
	if signed {
		v, err := strconv.ParseInt(t, 10, bits)
		if err != nil {
			return 0, rangeErr(text, bits)
		}
		return uint64(v) & mask(bits), nil
	}
	return parseUint(t, bits)
}

// parseUint parses an unsigned decimal, 0x or $ hex number that fits in bits.
func parseUint(text string, bits int) (uint64, error) {
	t := strings.TrimSpace(text)
	base := 10
	switch {
	case strings.HasPrefix(t, "0x"), strings.HasPrefix(t, "0X"):
		t, base = t[2:], 16
	case strings.HasPrefix(t, "$"):
		t, base = t[1:], 16
	}
	v, err := strconv.ParseUint(t, base, 64)
	if err != nil || (bits < 64 && v > mask(bits)) {
		return 0, rangeErr(text, bits)
	}
	return v, nil
}

func isHexLiteral(t string) bool {
	return strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X") || strings.HasPrefix(t, "$")
}

func rangeErr(text string, bits int) error {
	return fmt.Errorf("%q is not a %d-bit integer", text, bits)
}

func mask(bits int) uint64 {
	if bits >= 64 {
		return math.MaxUint64
	}
	return 1<<uint(bits) - 1
}

func parseHex(text string) ([]byte, error) {
	t := strings.TrimSpace(text)
	t = strings.TrimPrefix(strings.TrimPrefix(t, "0x"), "0X")
	t = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' {
			return -1
		}
		return r
	}, t)
	return hex.DecodeString(t)
}

func maxStringLen(s desc) int {
	switch {
	case s.size > 0:
		return s.size - 1
	case s.cstr:
		return math.MaxInt32
	case s.width == 1:
		return math.MaxUint8
	case s.width == 2:
		return math.MaxUint16
	}
	return math.MaxInt32
}

func maxHexLen(s desc) int {
	switch {
	case s.size > 0:
		return s.size
	case s.rest:
		return -1
	case s.width == 4:
		return math.MaxInt32
	}
	n := int(mask(s.width * 8))
	if s.inclusive {
		n -= s.width
	}
	return n
}
