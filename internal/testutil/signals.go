package testutil

import (
	"math"
	"math/rand"

	"github.com/cwbudde/algo-filterbank/dsp/core"
)

// Sine generates a deterministic sine wave at freqHz.
func Sine[F core.Float](freqHz, sampleRate, amplitude float64, length int) []F {
	out := make([]F, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = F(amplitude * math.Sin(step*float64(i)))
	}
	return out
}

// BinTone generates a cosine that lands exactly on bin k of every
// segLen-sample segment, so each segment's spectrum has a single peak of
// amplitude*segLen/2 at k (amplitude*segLen for k = 0 or segLen/2).
func BinTone[F core.Float](k, segLen int, amplitude float64, length int) []F {
	out := make([]F, length)
	step := 2 * math.Pi * float64(k) / float64(segLen)
	for i := range out {
		out[i] = F(amplitude * math.Cos(step*float64(i%segLen)))
	}
	return out
}

// Noise generates white noise with a fixed seed for reproducibility.
func Noise[F core.Float](seed int64, amplitude float64, length int) []F {
	out := make([]F, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = F((rng.Float64()*2 - 1) * amplitude)
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse[F core.Float](length, pos int) []F {
	out := make([]F, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DC generates a constant-valued signal.
func DC[F core.Float](value F, length int) []F {
	out := make([]F, length)
	for i := range out {
		out[i] = value
	}
	return out
}
