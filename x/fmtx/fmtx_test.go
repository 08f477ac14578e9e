package fmtx

import "testing"

// The verbs below are the ones the firmware uses; host and MCU builds must agree.
func TestSprintfVerbs(t *testing.T) {
	type C struct {
		fmt  string
		args []any
		want string
	}
	for _, c := range []C{
		{"hello %s", []any{"world"}, "hello world"},
		{"%d:%02d%s", []any{9, 5, "A"}, "9:05A"},
		{"%.0fC | %.0f%%", []any{float32(21.4), float32(40.6)}, "21C | 41%"},
		{"num %d hex %x HEX %X", []any{255, 255, 255}, "num 255 hex ff HEX FF"},
		{"bool %t", []any{true}, "bool true"},
		{"trim: %.3s", []any{"abcdef"}, "trim: abc"},
		{"%3d|", []any{7}, "  7|"},
	} {
		got := Sprintf(c.fmt, c.args...)
		if got != c.want {
			t.Fatalf("Sprintf(%q, ...) = %q, want %q", c.fmt, got, c.want)
		}
	}
}
