package window

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-filterbank/dsp/buffer"
	"github.com/cwbudde/algo-filterbank/dsp/core"
)

var scratch = buffer.NewPool[float64]()

// Taper applies one window to every segment of a batch. It is safe for
// concurrent use.
type Taper struct {
	typ      Type
	coeffs   []float64
	analysis Analysis
}

// NewTaper generates a window of segLen coefficients.
func NewTaper(t Type, segLen int, opts ...Option) (*Taper, error) {
	coeffs, err := Generate(t, segLen, opts...)
	if err != nil {
		return nil, err
	}
	return &Taper{typ: t, coeffs: coeffs, analysis: Analyze(coeffs)}, nil
}

// Type returns the window type.
func (tp *Taper) Type() Type { return tp.typ }

// Len returns the segment length the taper was generated for.
func (tp *Taper) Len() int { return len(tp.coeffs) }

// Coefficients returns a copy of the window coefficients.
func (tp *Taper) Coefficients() []float64 {
	return append([]float64(nil), tp.coeffs...)
}

// Analysis returns the spectral properties of the taper.
func (tp *Taper) Analysis() Analysis { return tp.analysis }

// Apply writes src multiplied segment by segment with the window to dst.
// src must hold a whole number of segments and dst at least as many
// values. dst and src may alias.
func (tp *Taper) Apply(dst, src []float32) error {
	n := len(tp.coeffs)
	if len(src)%n != 0 || len(dst) < len(src) {
		return fmt.Errorf("%w: %d samples into %d for segment length %d",
			errMismatchedLength, len(src), len(dst), n)
	}

	buf := scratch.Get(n)
	defer scratch.Put(buf)
	wide := buf.Samples()
	for off := 0; off < len(src); off += n {
		core.Widen(wide, src[off:off+n])
		vecmath.MulBlockInPlace(wide, tp.coeffs)
		core.Narrow(dst[off:off+n], wide)
	}
	return nil
}
