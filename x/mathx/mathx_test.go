package mathx

import "testing"

func TestClamp(t *testing.T) {
	if Clamp(5, 0, 3) != 3 || Clamp(-1, 0, 3) != 0 || Clamp(2, 3, 0) != 2 {
		t.Fatal("Clamp")
	}
}

func TestWrap(t *testing.T) {
	cases := []struct{ i, d, n, want int }{
		{0, 1, 3, 1},
		{2, 1, 3, 0},
		{0, -1, 3, 2},
		{1, 0, 3, 1},
		{0, 1, 1, 0},
		{5, 1, 0, 0},
	}
	for _, c := range cases {
		if got := Wrap(c.i, c.d, c.n); got != c.want {
			t.Fatalf("Wrap(%d,%d,%d)=%d want %d", c.i, c.d, c.n, got, c.want)
		}
	}
}

func TestSpan(t *testing.T) {
	if got := Span(float32(3.65), 3.1, 4.2, 100); int(got) != 49 && int(got) != 50 {
		t.Fatalf("Span mid = %v", got)
	}
	if Span(float32(2.0), 3.1, 4.2, 100) != 0 {
		t.Fatal("below range should be 0")
	}
	if Span(float32(9), 3.1, 4.2, 100) != 100 {
		t.Fatal("above range should be full")
	}
}
