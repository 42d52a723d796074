package engine

import (
	"github.com/mjibson/go-dsp/fft"
)

// godspSegment wraps go-dsp's allocation-per-call FFT. It is the slowest
// backend and serves mainly as an independent cross-check.
type godspSegment struct {
	n    int
	real []float64
	full []complex128
}

func newGodspSegment(n int) (segmentTransform, error) {
	return &godspSegment{
		n:    n,
		real: make([]float64, n),
		full: make([]complex128, n),
	}, nil
}

func (s *godspSegment) forward(dst, src []float32) error {
	for i, v := range src {
		s.real[i] = float64(v)
	}
	spec := fft.FFTReal(s.real)
	for k := range len(dst) / 2 {
		dst[2*k] = float32(real(spec[k]))
		dst[2*k+1] = float32(imag(spec[k]))
	}
	return nil
}

func (s *godspSegment) inverse(dst, re, im []float32) error {
	m := len(re)
	for k := range m {
		s.full[k] = complex(float64(re[k]), float64(im[k]))
	}
	for k := m; k < s.n; k++ {
		c := s.full[s.n-k]
		s.full[k] = complex(real(c), -imag(c))
	}
	// IFFT applies the 1/n scale.
	out := fft.IFFT(s.full)
	for i := range dst {
		dst[i] = float32(real(out[i]))
	}
	return nil
}
