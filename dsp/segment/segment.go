// Package segment partitions a flat sample buffer into fixed-length
// segments grouped into transform batches.
//
// Only whole batches are emitted. Samples past the last whole batch are
// dropped; [Batcher.Dropped] reports how many so callers can surface it.
package segment

import (
	"fmt"
	"iter"

	"github.com/cwbudde/algo-filterbank/dsp/core"
)

// Window is the sample range [Offset, Offset+Length) of one batch.
type Window struct {
	Iteration int
	Offset    int
	Length    int
}

// End returns Offset+Length.
func (w Window) End() int {
	return w.Offset + w.Length
}

// Slice returns the window's view of samples.
func Slice[T any](samples []T, w Window) []T {
	return samples[w.Offset:w.End()]
}

// Batcher yields batch windows over n samples.
type Batcher struct {
	total      int
	segLen     int
	segCount   int
	iterations int
}

// NewBatcher returns a batcher over n samples in batches of segCount
// segments of segLen samples.
func NewBatcher(n, segLen, segCount int) (*Batcher, error) {
	if segLen < 1 || segCount < 1 {
		return nil, fmt.Errorf("%w: segment length and count must be >= 1: %d, %d",
			core.ErrConfiguration, segLen, segCount)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: sample count must be >= 0: %d", core.ErrConfiguration, n)
	}
	return &Batcher{
		total:      n,
		segLen:     segLen,
		segCount:   segCount,
		iterations: n / (segLen * segCount),
	}, nil
}

// BatchLength returns segLen*segCount.
func (b *Batcher) BatchLength() int {
	return b.segLen * b.segCount
}

// Iterations returns the number of whole batches.
func (b *Batcher) Iterations() int {
	return b.iterations
}

// Segments returns the number of segments across all batches.
func (b *Batcher) Segments() int {
	return b.iterations * b.segCount
}

// Consumed returns the number of samples covered by whole batches.
func (b *Batcher) Consumed() int {
	return b.iterations * b.BatchLength()
}

// Dropped returns the number of trailing samples that are never processed.
func (b *Batcher) Dropped() int {
	return b.total - b.Consumed()
}

// At returns the window of iteration i.
func (b *Batcher) At(i int) Window {
	if i < 0 || i >= b.iterations {
		panic(fmt.Sprintf("segment: iteration %d out of range [0, %d)", i, b.iterations))
	}
	return Window{Iteration: i, Offset: i * b.BatchLength(), Length: b.BatchLength()}
}

// All yields every batch window in order. Each call starts over from the
// first batch.
func (b *Batcher) All() iter.Seq[Window] {
	return func(yield func(Window) bool) {
		for i := range b.iterations {
			if !yield(b.At(i)) {
				return
			}
		}
	}
}

// Partition splits the iterations into at most n contiguous ranges
// [start, end) of near-equal size, for per-worker processing.
func (b *Batcher) Partition(n int) [][2]int {
	if n < 1 {
		n = 1
	}
	if n > b.iterations {
		n = b.iterations
	}
	parts := make([][2]int, 0, n)
	start := 0
	for p := range n {
		size := b.iterations / n
		if p < b.iterations%n {
			size++
		}
		parts = append(parts, [2]int{start, start + size})
		start += size
	}
	return parts
}
