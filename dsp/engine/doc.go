// Package engine is the Transform Engine the channelizer drives.
//
// The API mirrors a GPU compute runtime: a [Backend] opens a [Context] on a
// device, the context allocates [Buffer] memory and serial [Queue]s, and a
// [Plan] executes a batched real-to-complex or complex-to-real transform
// against buffers. Three micro-kernels (test pattern synthesis, complex
// magnitude and real-part extraction) run on the same context.
//
// The registered backends execute on the host:
//
//   - "algofft": single-precision plans from algo-fft (default)
//   - "gonum":   gonum's real FFT in double precision
//   - "godsp":   go-dsp's mixed-radix/Bluestein FFT in double precision
//
// Inverse transforms are scaled by 1/L on every backend, so a forward
// transform followed by an inverse one reproduces the input.
package engine
