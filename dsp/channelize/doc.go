// Package channelize turns a real sample stream into a filterbank: batches
// of segments are transformed on a Transform Engine context, reduced to
// per-bin magnitudes, and cropped to a frequency window.
//
// An [Engine] owns the device side of one worker: a queue, one batched plan
// and buffers sized for exactly one batch, reused every iteration. A
// [Pipeline] drives one or more engines over a whole run. The inverse
// direction reconstructs samples from planar half spectra.
package channelize
