package window

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Analysis holds numerically computed spectral properties of a window.
type Analysis struct {
	// CoherentGain is sum(w[n]) / N, the DC response of the window.
	CoherentGain float64
	// ENBW is the equivalent noise bandwidth in bins.
	ENBW float64
	// Bandwidth3dB is the two-sided half-power main lobe width in bins.
	Bandwidth3dB float64
	// ScallopLossdB is the response to a tone half a bin off centre,
	// relative to an on-bin tone.
	ScallopLossdB float64
}

// CoherentGain returns sum(w[n]) / N, or 0 for an empty window.
func CoherentGain(coeffs []float64) float64 {
	if len(coeffs) == 0 {
		return 0
	}
	return floats.Sum(coeffs) / float64(len(coeffs))
}

// EquivalentNoiseBandwidth returns the ENBW in bins.
func EquivalentNoiseBandwidth(coeffs []float64) (float64, error) {
	if len(coeffs) == 0 {
		return 0, ErrLength
	}
	sum := floats.Sum(coeffs)
	if sum == 0 {
		return 0, ErrZeroCoherentGain
	}
	return float64(len(coeffs)) * floats.Dot(coeffs, coeffs) / (sum * sum), nil
}

// Analyze computes spectral properties of the given coefficients by
// evaluating their DTFT numerically. A window with zero DC response
// yields the zero Analysis.
func Analyze(coeffs []float64) Analysis {
	n := len(coeffs)
	dcRef := dftMagSq(coeffs, 0)
	if n == 0 || dcRef == 0 {
		return Analysis{}
	}
	enbw, _ := EquivalentNoiseBandwidth(coeffs)

	scallop := 0.0
	if half := dftMagSq(coeffs, 0.5/float64(n)); half > 0 {
		scallop = 10 * math.Log10(half/dcRef)
	}

	return Analysis{
		CoherentGain:  CoherentGain(coeffs),
		ENBW:          enbw,
		Bandwidth3dB:  searchBandwidth(coeffs, dcRef, n),
		ScallopLossdB: scallop,
	}
}

// dftMagSq evaluates |DTFT(freq)|^2 at a normalised frequency in [0,1).
func dftMagSq(coeffs []float64, freq float64) float64 {
	re, im := 0.0, 0.0
	w := 2 * math.Pi * freq
	for k, c := range coeffs {
		phase := w * float64(k)
		re += c * math.Cos(phase)
		im -= c * math.Sin(phase)
	}
	return re*re + im*im
}

// searchBandwidth bisects for the half-power point of the main lobe.
func searchBandwidth(coeffs []float64, dcRef float64, n int) float64 {
	lo, hi := 0.0, 0.5
	for range 80 {
		mid := (lo + hi) / 2
		if dftMagSq(coeffs, mid)/dcRef > 0.5 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return 2 * lo * float64(n)
}
