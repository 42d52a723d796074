// Package buffer provides a reusable sample buffer and pool for the
// per-segment scratch of the channelization hot path.
//
// Kernels accept raw slices; Buffer only manages allocation and reuse.
package buffer
