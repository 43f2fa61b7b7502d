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

// Percent clamps v to 0..100.
func Percent[T constraints.Integer | constraints.Float](v T) T {
	return Clamp(v, 0, 100)
}

// MinMax returns the smallest and largest element of xs.
// ok is false for an empty slice.
func MinMax[T constraints.Ordered](xs []T) (lo, hi T, ok bool) {
	if len(xs) == 0 {
		return lo, hi, false
	}
	lo, hi = xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi, true
}

// Sum adds all elements of xs.
func Sum[T constraints.Integer | constraints.Float](xs []T) T {
	var s T
	for _, x := range xs {
		s += x
	}
	return s
}
