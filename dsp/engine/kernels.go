package engine

import (
	"math/bits"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-filterbank/dsp/buffer"
)

// scratch holds the double precision planes of the magnitude kernel.
var scratch = buffer.NewPool[float64]()

// ComplexMagnitude writes sqrt(re^2+im^2) of the len(dst) interleaved
// (re, im) pairs in src to dst. The sum of squares is formed in double
// precision before rounding back to float32.
func ComplexMagnitude(dst, src []float32) {
	n := len(dst)
	if n == 0 {
		return
	}
	_ = src[2*n-1]

	buf := scratch.Get(0)
	defer scratch.Put(buf)
	planes := buf.Split(3, n)
	re, im, mag := planes[0], planes[1], planes[2]
	for i := range n {
		re[i] = float64(src[2*i])
		im[i] = float64(src[2*i+1])
	}
	vecmath.Magnitude(mag, re, im)
	for i, v := range mag {
		dst[i] = float32(v)
	}
}

// ComplexRealPart writes the real component of the len(dst) interleaved
// pairs in src to dst.
func ComplexRealPart(dst, src []float32) {
	if len(dst) == 0 {
		return
	}
	_ = src[2*len(dst)-1]
	for i := range dst {
		dst[i] = src[2*i]
	}
}

const testPatternSeed = 0xDEADCAFE

// SynthesizeTestPattern fills dst with a deterministic, 64-periodic
// pattern: sample i is the 32-bit seed rotated left by (offset+i)&63 bits,
// scaled by 1e-18.
func SynthesizeTestPattern(dst []float32, offset int) {
	for i := range dst {
		m := bits.RotateLeft32(testPatternSeed, (offset+i)&0x3F)
		dst[i] = float32(float64(m) / 1e18)
	}
}
