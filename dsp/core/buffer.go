package core

// Fill sets all values in buf to v.
func Fill[T any](buf []T, v T) {
	for i := range buf {
		buf[i] = v
	}
}

// Zero sets all values in buf to the zero value.
func Zero[T any](buf []T) {
	var zero T
	Fill(buf, zero)
}

// Widen converts float32 samples to float64 into dst.
func Widen(dst []float64, src []float32) {
	for i, v := range src[:len(dst)] {
		dst[i] = float64(v)
	}
}

// Narrow converts float64 samples to float32 into dst.
func Narrow(dst []float32, src []float64) {
	for i, v := range src[:len(dst)] {
		dst[i] = float32(v)
	}
}
