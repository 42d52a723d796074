// Package remap places channelized data recorded at one channel spacing
// onto a finer, evenly spaced frequency grid, filling every bin that no
// input channel lands on with a pad value.
//
// The output spacing is the approximate greatest common divisor of the
// input's top frequency and channel step, so every input channel falls on
// a grid line. Output rows run in ascending frequency starting at 0 Hz,
// which is the half-spectrum layout the inverse channelizer consumes.
package remap

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-filterbank/dsp/core"
	"github.com/cwbudde/algo-filterbank/internal/logging"
)

// GCD returns the approximate greatest common divisor of a and b: the
// Euclidean remainder sequence stops once the smaller operand drops below
// epsilon. The larger operand is always taken first.
// Non-finite operands yield NaN.
func GCD(a, b, epsilon float64) float64 {
	if !finite(a) || !finite(b) || math.IsNaN(epsilon) {
		return math.NaN()
	}
	for {
		if a < b {
			a, b = b, a
		}
		if math.Abs(b) < epsilon {
			return a
		}
		a, b = b, a-math.Floor(a/b)*b
	}
}

// Config describes the input grid and the padding.
type Config struct {
	// FmaxIn is the frequency of input channel 0.
	FmaxIn float64
	// DFIn is the input channel step. Its sign is ignored; channel i sits
	// at FmaxIn - |DFIn|*i.
	DFIn   float64
	NChans int
	// Epsilon is the GCD tolerance, the finest spacing the output may have.
	Epsilon float64
	// FmaxOut is the top output frequency. Zero selects FmaxIn; smaller
	// values are raised to FmaxIn with a warning.
	FmaxOut  float64
	PadValue float32
	Logger   logging.Logger
}

// Validate checks the config.
func (c Config) Validate() error {
	switch {
	case !(c.FmaxIn > 0) || !finite(c.FmaxIn):
		return fmt.Errorf("%w: fmax must be finite and > 0: %g", core.ErrConfiguration, c.FmaxIn)
	case c.DFIn == 0 || !finite(c.DFIn):
		return fmt.Errorf("%w: df must be finite and non-zero: %g", core.ErrConfiguration, c.DFIn)
	case c.NChans < 1:
		return fmt.Errorf("%w: nchans must be >= 1: %d", core.ErrConfiguration, c.NChans)
	case !(c.Epsilon > 0) || !finite(c.Epsilon):
		return fmt.Errorf("%w: epsilon must be finite and > 0: %g", core.ErrConfiguration, c.Epsilon)
	case !(c.FmaxOut >= 0) || !finite(c.FmaxOut):
		return fmt.Errorf("%w: fmax_out must be finite and >= 0: %g", core.ErrConfiguration, c.FmaxOut)
	}
	return nil
}

// Plan is a resolved output grid.
type Plan struct {
	cfg  Config
	log  logging.Logger
	dfIn float64

	// DFOut is the output bin spacing.
	DFOut float64
	// FmaxOut is the effective top output frequency.
	FmaxOut float64
	// SegLength is the number of output bins per sample, round(FmaxOut/DFOut)+1.
	SegLength int
}

// NewPlan resolves the output grid of cfg.
func NewPlan(cfg Config) (*Plan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Plan{
		cfg:  cfg,
		log:  logging.OrNop(cfg.Logger),
		dfIn: math.Abs(cfg.DFIn),
	}
	p.DFOut = GCD(cfg.FmaxIn, p.dfIn, cfg.Epsilon)

	p.FmaxOut = cfg.FmaxOut
	switch {
	case p.FmaxOut == 0:
		p.FmaxOut = cfg.FmaxIn
	case p.FmaxOut < cfg.FmaxIn:
		p.log.Warn("fmax_out below input fmax, using input fmax", logging.Fields{
			"fmax_out": cfg.FmaxOut,
			"fmax":     cfg.FmaxIn,
		})
		p.FmaxOut = cfg.FmaxIn
	}
	p.SegLength = core.Round(p.FmaxOut/p.DFOut) + 1

	p.log.Info("output grid", logging.Fields{
		"out_df":         p.DFOut,
		"out_seg_length": p.SegLength,
		"fmin":           p.Frequency(cfg.NChans - 1),
	})
	return p, nil
}

// Frequency returns the frequency of input channel i.
func (p *Plan) Frequency(i int) float64 {
	return p.cfg.FmaxIn - p.dfIn*float64(i)
}

// TargetBin returns the output bin input channel i maps to. It is negative
// for channels below 0 Hz.
func (p *Plan) TargetBin(i int) int {
	return core.Round(p.Frequency(i) / p.DFOut)
}

// Result is a padded filterbank.
type Result struct {
	// Data holds Samples rows of Width bins.
	Data    []float32
	Width   int
	Samples int
	// Skipped counts input elements that could not be placed.
	Skipped int
}

// Pad maps samples rows of NChans input channels onto the output grid.
// Elements whose input index lies past the end of in, or whose target bin
// is below 0 Hz, are skipped and counted.
func (p *Plan) Pad(in []float32, samples int) (Result, error) {
	if samples < 0 {
		return Result{}, fmt.Errorf("%w: samples_count must be >= 0: %d", core.ErrConfiguration, samples)
	}
	width, nchans := p.SegLength, p.cfg.NChans
	res := Result{
		Data:    make([]float32, width*samples),
		Width:   width,
		Samples: samples,
	}
	core.Fill(res.Data, p.cfg.PadValue)

	targets := make([]int, nchans)
	for i := range targets {
		targets[i] = p.TargetBin(i)
		if targets[i] >= width {
			panic(fmt.Sprintf("remap: channel %d maps to bin %d of %d", i, targets[i], width))
		}
	}

	var first logging.Fields
	for s := range samples {
		for i, bin := range targets {
			inIdx := nchans*s + i
			outIdx := width*s + bin
			if inIdx >= len(in) || bin < 0 {
				if first == nil {
					first = logging.Fields{"in_idx": inIdx, "in_size": len(in), "out_idx": outIdx, "out_size": len(res.Data)}
				}
				res.Skipped++
				continue
			}
			res.Data[outIdx] = in[inIdx]
		}
	}

	if res.Skipped > 0 {
		first["skipped"] = res.Skipped
		p.log.Warn("input elements out of range, skipped", first)
	}
	return res, nil
}

// Complex interleaves every padded value with the constant imaginary part
// imag, producing Width complex bins per sample.
func (r Result) Complex(imag float32) []float32 {
	out := make([]float32, 2*len(r.Data))
	for i, v := range r.Data {
		out[2*i] = v
		out[2*i+1] = imag
	}
	return out
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
