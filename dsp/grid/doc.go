// Package grid maps a segment length and sample rate onto the bin grid of
// its real spectrum and resolves a requested frequency window to inclusive
// bin indices.
//
// Bin k of an L-sample segment sampled at fs sits at k*fs/L. Windows are
// rounded half away from zero and clamped to [0, M-1], where M = 1 + L/2.
package grid
