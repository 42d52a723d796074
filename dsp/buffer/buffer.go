package buffer

import "github.com/cwbudde/algo-filterbank/dsp/core"

// Buffer wraps a sample slice with reuse-friendly semantics.
type Buffer[F core.Float] struct {
	samples []F
}

// New returns a zero-filled Buffer of the given length.
func New[F core.Float](length int) *Buffer[F] {
	return &Buffer[F]{samples: make([]F, max(length, 0))}
}

// FromSlice wraps an existing slice without copying.
func FromSlice[F core.Float](s []F) *Buffer[F] {
	return &Buffer[F]{samples: s}
}

// Samples returns the underlying slice.
func (b *Buffer[F]) Samples() []F { return b.samples }

// Len returns the current number of samples.
func (b *Buffer[F]) Len() int { return len(b.samples) }

// Cap returns the capacity of the backing slice.
func (b *Buffer[F]) Cap() int { return cap(b.samples) }

// Resize sets the length to n, reusing existing capacity when possible.
// Newly exposed elements are zeroed.
func (b *Buffer[F]) Resize(n int) {
	n = max(n, 0)
	old := len(b.samples)
	if n > cap(b.samples) {
		s := make([]F, n)
		copy(s, b.samples)
		b.samples = s
		return
	}
	b.samples = b.samples[:n]
	if n > old {
		core.Zero(b.samples[old:])
	}
}

// Zero sets all samples to 0.
func (b *Buffer[F]) Zero() { core.Zero(b.samples) }

// Split cuts the buffer into parts consecutive slices of n samples each,
// growing it first when needed.
func (b *Buffer[F]) Split(parts, n int) [][]F {
	b.Resize(parts * n)
	out := make([][]F, parts)
	for i := range out {
		out[i] = b.samples[i*n : (i+1)*n : (i+1)*n]
	}
	return out
}
