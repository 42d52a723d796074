// Package band extracts a contiguous bin window from per-segment spectra.
//
// In flip mode (the default channel order of filterbank products) channel 0
// is the highest frequency of the window; in no-flip mode channels run in
// ascending frequency.
package band

import (
	"fmt"

	"github.com/cwbudde/algo-filterbank/dsp/core"
	"github.com/cwbudde/algo-filterbank/dsp/grid"
)

// Order selects the channel ordering of the extracted window.
type Order uint8

const (
	// Flip puts the highest frequency first.
	Flip Order = iota
	// Ascending is a straight contiguous copy.
	Ascending
)

func (o Order) String() string {
	if o == Ascending {
		return "ascending"
	}
	return "flip"
}

// OrderFor maps a no-flip switch to an Order.
func OrderFor(noFlip bool) Order {
	if noFlip {
		return Ascending
	}
	return Flip
}

// source returns the input bin read for output channel j.
func source(w grid.Window, order Order, j int) int {
	if order == Ascending {
		return w.FminID + j
	}
	return w.FmaxID - j
}

func checkBounds(w grid.Window, bins int) {
	if w.FminID < 0 || w.FmaxID > bins-1 || w.FminID > w.FmaxID {
		panic(fmt.Sprintf("band: window [%d, %d] out of range for %d bins", w.FminID, w.FmaxID, bins))
	}
}

// Select writes the W = w.Width() channels of one segment's spectrum into
// dst. It panics if the window does not fit the spectrum or dst is shorter
// than W.
func Select[F core.Float](dst, spectrum []F, w grid.Window, order Order) {
	checkBounds(w, len(spectrum))
	width := w.Width()
	if len(dst) < width {
		panic(fmt.Sprintf("band: destination holds %d channels, window needs %d", len(dst), width))
	}

	if order == Ascending {
		copy(dst[:width], spectrum[w.FminID:w.FmaxID+1])
		return
	}
	for j := range width {
		dst[j] = spectrum[w.FmaxID-j]
	}
}

// SelectRows applies Select to every row of a row-major [rows][bins]
// spectrum and returns the [rows][W] result.
func SelectRows[F core.Float](spectra []F, bins int, w grid.Window, order Order) []F {
	if bins <= 0 {
		return nil
	}
	rows := len(spectra) / bins
	width := w.Width()
	out := make([]F, rows*width)
	SelectRowsInto(out, spectra, bins, w, order)
	return out
}

// SelectRowsInto is SelectRows writing into a caller-provided buffer of
// at least rows*W elements.
func SelectRowsInto[F core.Float](dst, spectra []F, bins int, w grid.Window, order Order) {
	rows := len(spectra) / bins
	width := w.Width()
	for r := range rows {
		Select(dst[r*width:(r+1)*width], spectra[r*bins:(r+1)*bins], w, order)
	}
}

// Scatter is the mirror of Select: it writes W channels back to the bins
// Select would have read them from. Bins outside the window are left
// untouched.
func Scatter[F core.Float](spectrum, channels []F, w grid.Window, order Order) {
	checkBounds(w, len(spectrum))
	width := w.Width()
	if len(channels) < width {
		panic(fmt.Sprintf("band: %d channels supplied, window needs %d", len(channels), width))
	}
	for j := range width {
		spectrum[source(w, order, j)] = channels[j]
	}
}
