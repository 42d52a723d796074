package core

import "math"

const defaultEpsilon = 1e-12

// Float is the scalar precision a run is fixed to.
type Float interface {
	~float32 | ~float64
}

// Round rounds x half away from zero and returns the result as an int.
func Round[F Float](x F) int {
	return int(math.Round(float64(x)))
}

// RoundClamp rounds x half away from zero and limits the result to
// [lo, hi]. The comparison happens before the int conversion, so values
// beyond the int range (including infinities) clamp instead of wrapping.
// NaN yields lo.
func RoundClamp[F Float](x F, lo, hi int) int {
	r := math.Round(float64(x))
	switch {
	case !(r > float64(lo)):
		return lo
	case r >= float64(hi):
		return hi
	}
	return int(r)
}

// NearlyEqual reports whether a and b are equal within eps, either
// absolutely or relative to the larger magnitude.
func NearlyEqual[F Float](a, b, eps F) bool {
	if eps <= 0 {
		eps = F(defaultEpsilon)
	}

	diff := F(math.Abs(float64(a - b)))
	if diff <= eps {
		return true
	}

	largest := F(math.Max(math.Abs(float64(a)), math.Abs(float64(b))))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// LegalTransformLength reports whether n reduces to 1 after dividing out
// every factor of 2, 3, 5 and 7.
func LegalTransformLength(n int) bool {
	if n < 1 {
		return false
	}
	for _, p := range [...]int{2, 3, 5, 7} {
		for n%p == 0 {
			n /= p
		}
	}
	return n == 1
}
