//go:build rp2040 || rp2350

package fmtx

import (
	"strconv"
	"unicode/utf8"
)

// --- Public API (signatures match fmt) ---

func Sprintf(format string, a ...any) string {
	var b builder
	b.format(format, a...)
	return string(b.buf)
}

// --- Internals: tiny formatter subset ---
// Supports: %s %q %d %x %X %f %v %t %% with width, '0' padding for %d and
// precision for %s and %f. Enough for header text and console replies.

type builder struct{ buf []byte }

func (b *builder) byte(c byte)  { b.buf = append(b.buf, c) }
func (b *builder) str(s string) { b.buf = append(b.buf, s...) }

func (b *builder) pad(n int, c byte) {
	for ; n > 0; n-- {
		b.byte(c)
	}
}

func (b *builder) any(v any, prec int) {
	switch x := v.(type) {
	case string:
		b.str(x)
	case []byte:
		b.buf = append(b.buf, x...)
	case bool:
		b.str(strconv.FormatBool(x))
	case float32:
		b.str(strconv.FormatFloat(float64(x), 'f', prec, 32))
	case float64:
		b.str(strconv.FormatFloat(x, 'f', prec, 64))
	case error:
		b.str(x.Error())
	case interface{ String() string }:
		b.str(x.String())
	default:
		if n, ok := toI64(v); ok {
			b.str(strconv.FormatInt(n, 10))
			return
		}
		b.str("<?>")
	}
}

func (b *builder) format(format string, args ...any) {
	ai := 0
	for i := 0; i < len(format); {
		if format[i] != '%' {
			b.byte(format[i])
			i++
			continue
		}
		if i+1 < len(format) && format[i+1] == '%' {
			b.byte('%')
			i += 2
			continue
		}
		i++
		// %[0]<w>[.<p>]<verb>
		zero := false
		if i < len(format) && format[i] == '0' {
			zero = true
			i++
		}
		width, prec, hasPrec := 0, -1, false
		i = parseNum(format, i, &width)
		if i < len(format) && format[i] == '.' {
			i++
			hasPrec = true
			prec = 0
			i = parseNum(format, i, &prec)
		}
		if i >= len(format) || ai >= len(args) {
			return
		}
		verb := format[i]
		arg := args[ai]
		ai++
		i++

		switch verb {
		case 's', 'q', 'v':
			var s string
			switch v := arg.(type) {
			case string:
				s = v
			case []byte:
				s = string(v)
			default:
				var sub builder
				sub.any(arg, prec)
				s = string(sub.buf)
			}
			if verb == 'q' {
				s = strconv.Quote(s)
			}
			if hasPrec && verb != 'v' && prec < len(s) {
				s = s[:prec]
			}
			b.pad(width-utf8.RuneCountInString(s), ' ')
			b.str(s)
		case 'd', 'x', 'X':
			n, _ := toI64(arg)
			base := 10
			if verb != 'd' {
				base = 16
			}
			s := strconv.FormatInt(n, base)
			if verb == 'X' {
				s = upper(s)
			}
			fill := byte(' ')
			if zero {
				fill = '0'
			}
			if n < 0 && zero {
				b.byte('-')
				s = s[1:]
				width--
			}
			b.pad(width-len(s), fill)
			b.str(s)
		case 'f':
			if !hasPrec {
				prec = 6
			}
			var s string
			switch v := arg.(type) {
			case float32:
				s = strconv.FormatFloat(float64(v), 'f', prec, 32)
			case float64:
				s = strconv.FormatFloat(v, 'f', prec, 64)
			default:
				s = "%!f"
			}
			b.pad(width-len(s), ' ')
			b.str(s)
		case 't':
			v, _ := arg.(bool)
			b.str(strconv.FormatBool(v))
		default:
			b.byte('%')
			b.byte(verb)
		}
	}
}

func toI64(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint:
		return int64(t), true
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint64:
		return int64(t), true
	default:
		return 0, false
	}
}

func upper(s string) string {
	out := []byte(s)
	for i, c := range out {
		if 'a' <= c && c <= 'f' {
			out[i] = c - ('a' - 'A')
		}
	}
	return string(out)
}

func parseNum(s string, i int, out *int) int {
	n := 0
	start := i
	for i < len(s) && '0' <= s[i] && s[i] <= '9' {
		n = n*10 + int(s[i]-'0')
		i++
	}
	if i > start {
		*out = n
	}
	return i
}
