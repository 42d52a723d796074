package band

import (
	"testing"

	"github.com/cwbudde/algo-filterbank/dsp/grid"
)

func BenchmarkSelectRows(b *testing.B) {
	const bins, rows = 4097, 64
	spectra := make([]float32, bins*rows)
	w := grid.Window{FminID: 512, FmaxID: 3583}
	dst := make([]float32, rows*w.Width())

	for _, order := range []Order{Flip, Ascending} {
		b.Run(order.String(), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				SelectRowsInto(dst, spectra, bins, w, order)
			}
		})
	}
}
