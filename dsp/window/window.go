// Package window generates the analysis tapers that may be applied to each
// segment before the forward transform.
//
// Tapers are generated in the periodic form by default, which is the
// framing that matches a length-N DFT. A rectangular taper leaves the
// segment untouched.
package window

import (
	"fmt"
	"math"
	"strings"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
	TypeBlackmanHarris
	TypeFlatTop
	TypeKaiser
)

var typeNames = map[Type]string{
	TypeRectangular:    "rectangular",
	TypeHann:           "hann",
	TypeHamming:        "hamming",
	TypeBlackman:       "blackman",
	TypeBlackmanHarris: "blackman-harris",
	TypeFlatTop:        "flattop",
	TypeKaiser:         "kaiser",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("window(%d)", int(t))
}

// Types lists the supported windows in declaration order.
func Types() []Type {
	return []Type{
		TypeRectangular, TypeHann, TypeHamming, TypeBlackman,
		TypeBlackmanHarris, TypeFlatTop, TypeKaiser,
	}
}

// Parse resolves a window name. Matching is case-insensitive; "none" and
// "" select the rectangular window.
func Parse(name string) (Type, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	switch s {
	case "", "none", "rect":
		return TypeRectangular, nil
	}
	for t, n := range typeNames {
		if n == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

var (
	hannCoeffs           = []float64{0.5, -0.5}
	hammingCoeffs        = []float64{0.54, -0.46}
	blackmanCoeffs       = []float64{0.42, -0.5, 0.08}
	blackmanHarrisCoeffs = []float64{0.35875, -0.48829, 0.14128, -0.01168}
	flatTopCoeffs        = []float64{0.21557895, -0.41663158, 0.277263158, -0.083578947, 0.006947368}
)

// DefaultKaiserBeta gives roughly 90 dB of sidelobe suppression.
const DefaultKaiserBeta = 8.6

// Option configures window generation.
type Option func(*config)

type config struct {
	beta      float64
	symmetric bool
	normalize bool
}

func defaultConfig() config {
	return config{beta: DefaultKaiserBeta}
}

// WithBeta sets the Kaiser shape parameter. Negative values are ignored.
func WithBeta(v float64) Option {
	return func(c *config) {
		if v >= 0 {
			c.beta = v
		}
	}
}

// WithSymmetric generates the symmetric (filter design) form instead of
// the periodic one.
func WithSymmetric() Option {
	return func(c *config) {
		c.symmetric = true
	}
}

// WithNormalize scales the coefficients by the inverse coherent gain so
// that a tone centred on a bin keeps its rectangular-window magnitude.
func WithNormalize() Option {
	return func(c *config) {
		c.normalize = true
	}
}

// Generate returns window coefficients of the given length.
func Generate(t Type, length int, opts ...Option) ([]float64, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrLength, length)
	}
	if _, ok := typeNames[t]; !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownType, t)
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, length)
	for i := range out {
		out[i] = evalWindow(t, samplePosition(i, length, !cfg.symmetric), cfg)
	}
	if cfg.normalize {
		g := CoherentGain(out)
		if g == 0 {
			return nil, ErrZeroCoherentGain
		}
		for i := range out {
			out[i] /= g
		}
	}
	return out, nil
}

func evalWindow(t Type, x float64, cfg config) float64 {
	switch t {
	case TypeHann:
		return cosineFromCoeffs(x, hannCoeffs)
	case TypeHamming:
		return cosineFromCoeffs(x, hammingCoeffs)
	case TypeBlackman:
		return cosineFromCoeffs(x, blackmanCoeffs)
	case TypeBlackmanHarris:
		return cosineFromCoeffs(x, blackmanHarrisCoeffs)
	case TypeFlatTop:
		return cosineFromCoeffs(x, flatTopCoeffs)
	case TypeKaiser:
		return kaiserAt(x, cfg.beta)
	default:
		return 1
	}
}

func cosineFromCoeffs(x float64, coeffs []float64) float64 {
	phase := 2 * math.Pi * x

	sum := 0.0
	for k, c := range coeffs {
		sum += c * math.Cos(float64(k)*phase)
	}
	return sum
}

func samplePosition(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0
	}
	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}
	return float64(n) / den
}

func kaiserAt(x, beta float64) float64 {
	if beta <= 0 {
		return 1
	}
	r := 2*x - 1
	term := math.Sqrt(math.Max(0, 1-r*r))

	return besselI0(beta*term) / besselI0(beta)
}

// besselI0 approximates the modified Bessel function I0.
func besselI0(x float64) float64 {
	ax := math.Abs(x)
	if ax < 3.75 {
		y := x / 3.75
		y *= y

		return 1.0 + y*(3.5156229+y*(3.0899424+y*(1.2067492+y*(0.2659732+y*(0.0360768+y*0.0045813)))))
	}

	y := 3.75 / ax

	return (math.Exp(ax) / math.Sqrt(ax)) *
		(0.39894228 + y*(0.01328592+y*(0.00225319+y*(-0.00157565+y*(0.00916281+y*(-0.02057706+y*(0.02635537+y*(-0.01647633+y*0.00392377))))))))
}
