package engine

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// algofftSegment runs a length-L complex plan over a zero-imaginary copy of
// the segment and keeps the non-negative half of the spectrum.
type algofftSegment struct {
	n    int
	plan *algofft.Plan[complex64]
	in   []complex64
	out  []complex64
}

func newAlgofftSegment(n int) (segmentTransform, error) {
	plan, err := algofft.NewPlanT[complex64](n)
	if err != nil {
		return nil, fmt.Errorf("%w: algofft length %d: %w", ErrInvalidPlan, n, err)
	}
	return &algofftSegment{
		n:    n,
		plan: plan,
		in:   make([]complex64, n),
		out:  make([]complex64, n),
	}, nil
}

func (s *algofftSegment) forward(dst, src []float32) error {
	for i, v := range src {
		s.in[i] = complex(v, 0)
	}
	if err := s.plan.Forward(s.out, s.in); err != nil {
		return fmt.Errorf("algofft forward: %w", err)
	}
	for k := range len(dst) / 2 {
		dst[2*k] = real(s.out[k])
		dst[2*k+1] = imag(s.out[k])
	}
	return nil
}

func (s *algofftSegment) inverse(dst, re, im []float32) error {
	m := len(re)
	for k := range m {
		s.in[k] = complex(re[k], im[k])
	}
	for k := m; k < s.n; k++ {
		c := s.in[s.n-k]
		s.in[k] = complex(real(c), -imag(c))
	}
	if err := s.plan.Inverse(s.out, s.in); err != nil {
		return fmt.Errorf("algofft inverse: %w", err)
	}
	for i := range dst {
		dst[i] = real(s.out[i])
	}
	return nil
}
