package grid

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-filterbank/dsp/core"
)

// Window is an inclusive bin range [FminID, FmaxID].
type Window struct {
	FminID int
	FmaxID int
}

// Width returns the number of bins in the window.
func (w Window) Width() int {
	return w.FmaxID - w.FminID + 1
}

// Validate checks 0 <= FminID <= FmaxID <= bins-1.
func (w Window) Validate(bins int) error {
	if w.FminID < 0 || w.FmaxID > bins-1 {
		return fmt.Errorf("%w: window [%d, %d] outside [0, %d]", core.ErrConfiguration, w.FminID, w.FmaxID, bins-1)
	}
	if w.FminID > w.FmaxID {
		return fmt.Errorf("%w: fmin_id = %d but max fmax_id = %d", core.ErrConfiguration, w.FminID, w.FmaxID)
	}
	return nil
}

// Grid is the resolved frequency layout of one segment.
type Grid[F core.Float] struct {
	// SegmentLength is the real sample count L per segment.
	SegmentLength int
	SampleRate    F
	// DF is the bin spacing fs/L.
	DF F
	// Bins is M, the number of spectrum bins per segment.
	Bins   int
	Window Window
}

// Width returns the selected channel count W.
func (g Grid[F]) Width() int {
	return g.Window.Width()
}

// Frequency returns the center frequency of bin k.
func (g Grid[F]) Frequency(k int) F {
	return F(k) * g.DF
}

// Bin returns round(f/df) without clamping.
func (g Grid[F]) Bin(f F) int {
	return core.Round(f / g.DF)
}

// Nyquist returns (L/2)*df, the default upper edge.
func (g Grid[F]) Nyquist() F {
	return F(g.SegmentLength/2) * g.DF
}

type options struct {
	fmin    float64
	fmax    float64
	hasFmax bool
	bins    int
}

// Option configures Resolve.
type Option func(*options)

// WithFmin sets the lower window edge. The default is 0.
func WithFmin(f float64) Option {
	return func(o *options) {
		o.fmin = f
	}
}

// WithFmax sets the upper window edge. The default is the Nyquist frequency.
func WithFmax(f float64) Option {
	return func(o *options) {
		o.fmax = f
		o.hasFmax = true
	}
}

// WithBins overrides M. Resolve then treats the segment length argument as
// the bin count and derives the real length as 2*(M-1); this is the layout
// of an inverse (complex to real) run.
func WithBins(m int) Option {
	return func(o *options) {
		o.bins = m
	}
}

// Resolve computes df, M and the inclusive bin window for segLen samples at fs.
//
// Ratios are evaluated in F, so float32 grids round bin edges exactly as
// single-precision arithmetic does.
func Resolve[F core.Float](segLen int, fs F, opts ...Option) (Grid[F], error) {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	bins := 1 + segLen/2
	if o.bins > 0 {
		bins = o.bins
		segLen = 2 * (bins - 1)
	}
	if segLen < 1 {
		return Grid[F]{}, fmt.Errorf("%w: segment length must be >= 1: %d", core.ErrConfiguration, segLen)
	}
	if !(fs > 0) || math.IsInf(float64(fs), 1) {
		return Grid[F]{}, fmt.Errorf("%w: sample rate must be finite and > 0: %v", core.ErrConfiguration, fs)
	}
	if !finite(o.fmin) || (o.hasFmax && !finite(o.fmax)) {
		return Grid[F]{}, fmt.Errorf("%w: fmin and fmax must be finite: %v, %v", core.ErrConfiguration, o.fmin, o.fmax)
	}

	g := Grid[F]{
		SegmentLength: segLen,
		SampleRate:    fs,
		DF:            fs / F(segLen),
		Bins:          bins,
	}

	fmax := g.Nyquist()
	if o.hasFmax {
		fmax = F(o.fmax)
	}

	// Only the inner edges clamp; an inverted window must stay inverted.
	fminID := core.RoundClamp(F(o.fmin)/g.DF, 0, math.MaxInt32)
	fmaxID := core.RoundClamp(fmax/g.DF, math.MinInt32, bins-1)

	g.Window = Window{FminID: fminID, FmaxID: fmaxID}
	if fminID > fmaxID {
		return g, fmt.Errorf("%w: fmin_id = %d but max fmax_id = %d", core.ErrConfiguration, fminID, fmaxID)
	}
	return g, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
