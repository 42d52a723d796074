package engine

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// gonumSegment uses gonum's real FFT, which already produces the
// n/2+1 half spectrum, and evaluates it in double precision.
type gonumSegment struct {
	n     int
	fft   *fourier.FFT
	seq   []float64
	coeff []complex128
}

func newGonumSegment(n int) (segmentTransform, error) {
	return &gonumSegment{
		n:     n,
		fft:   fourier.NewFFT(n),
		seq:   make([]float64, n),
		coeff: make([]complex128, n/2+1),
	}, nil
}

func (s *gonumSegment) forward(dst, src []float32) error {
	for i, v := range src {
		s.seq[i] = float64(v)
	}
	s.fft.Coefficients(s.coeff, s.seq)
	for k, c := range s.coeff {
		dst[2*k] = float32(real(c))
		dst[2*k+1] = float32(imag(c))
	}
	return nil
}

func (s *gonumSegment) inverse(dst, re, im []float32) error {
	for k := range s.coeff {
		s.coeff[k] = complex(float64(re[k]), float64(im[k]))
	}
	// Sequence is unnormalized.
	s.fft.Sequence(s.seq, s.coeff)
	scale := 1 / float64(s.n)
	for i, v := range s.seq {
		dst[i] = float32(v * scale)
	}
	return nil
}
