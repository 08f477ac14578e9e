package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi]. If lo > hi, the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Wrap returns (i+d) mod n in [0, n). n <= 0 yields 0.
func Wrap[T constraints.Signed](i, d, n T) T {
	if n <= 0 {
		return 0
	}
	r := (i + d) % n
	if r < 0 {
		r += n
	}
	return r
}

// Span maps v from [lo, hi] onto [0, out], clamping first. The result is
// truncated toward zero.
func Span[T constraints.Float](v, lo, hi, out T) T {
	if hi == lo {
		return 0
	}
	v = Clamp(v, lo, hi)
	return (v - lo) / (hi - lo) * out
}
