package engine

import (
	"fmt"
	"slices"
	"sync"
)

// Direction selects the transform direction.
type Direction uint8

const (
	// Forward is real to complex (interleaved Hermitian half spectrum).
	Forward Direction = iota
	// Inverse is complex (planar Hermitian half spectrum) to real.
	Inverse
)

func (d Direction) String() string {
	if d == Inverse {
		return "inverse"
	}
	return "forward"
}

// PlanSpec describes one batched, out-of-place, single-precision transform.
//
// Length is the real segment length L in both directions; the spectrum side
// holds M = 1 + L/2 complex bins. Distances are measured in elements of the
// respective side: real samples on the real side, complex bins on the
// spectrum side. Zero distances select the packed defaults.
type PlanSpec struct {
	Length      int
	Batch       int
	Direction   Direction
	InDistance  int
	OutDistance int
}

// Bins returns 1 + Length/2.
func (s PlanSpec) Bins() int {
	return 1 + s.Length/2
}

// WithDefaults fills zero distances with the packed layout.
func (s PlanSpec) WithDefaults() PlanSpec {
	realDist, specDist := s.Length, s.Bins()
	if s.Direction == Forward {
		if s.InDistance == 0 {
			s.InDistance = realDist
		}
		if s.OutDistance == 0 {
			s.OutDistance = specDist
		}
	} else {
		if s.InDistance == 0 {
			s.InDistance = specDist
		}
		if s.OutDistance == 0 {
			s.OutDistance = realDist
		}
	}
	return s
}

// Validate checks s after defaults are applied.
func (s PlanSpec) Validate() error {
	if s.Length < 1 {
		return fmt.Errorf("%w: length must be >= 1: %d", ErrInvalidPlan, s.Length)
	}
	if s.Batch < 1 {
		return fmt.Errorf("%w: batch must be >= 1: %d", ErrInvalidPlan, s.Batch)
	}
	inMin, outMin := s.Length, s.Bins()
	if s.Direction == Inverse {
		inMin, outMin = outMin, inMin
	}
	if s.InDistance < inMin || s.OutDistance < outMin {
		return fmt.Errorf("%w: distances (%d -> %d) below segment sizes (%d -> %d)",
			ErrInvalidPlan, s.InDistance, s.OutDistance, inMin, outMin)
	}
	return nil
}

// InputLen returns the float32 element count the input buffer(s) must hold.
// Inverse plans take two planes of this size.
func (s PlanSpec) InputLen() int {
	return s.Batch * s.InDistance
}

// OutputLen returns the float32 element count the output buffer must hold.
// Forward output is interleaved, two floats per bin.
func (s PlanSpec) OutputLen() int {
	if s.Direction == Forward {
		return 2 * s.Batch * s.OutDistance
	}
	return s.Batch * s.OutDistance
}

// DeviceInfo describes the device a context runs on.
type DeviceInfo struct {
	Name       string
	Vendor     string
	Platform   string
	ComputeCap string
}

// BackendInfo describes a backend implementation.
type BackendInfo struct {
	Name        string
	Description string
	Precision   string
}

// Backend opens contexts on a device.
type Backend interface {
	Info() BackendInfo
	Available() bool
	Devices() ([]DeviceInfo, error)
	NewContext(deviceIndex int) (Context, error)
}

// Context owns device memory, queues and plans on one device.
type Context interface {
	Kernels

	Device() DeviceInfo
	// NewBuffer allocates n float32 elements of device memory.
	NewBuffer(n int) (Buffer, error)
	// NewQueue creates a serial execution queue.
	NewQueue() (Queue, error)
	// NewPlan bakes a transform plan bound to q.
	NewPlan(spec PlanSpec, q Queue) (Plan, error)
	Close() error
}

// Buffer is float32 device memory.
type Buffer interface {
	Len() int
	// Upload copies src to the start of the buffer.
	Upload(src []float32) error
	// Download copies the start of the buffer into dst.
	Download(dst []float32) error
	Close() error
}

// Queue is a serial execution queue. Work enqueued on it completes in order;
// Finish blocks until all of it has.
type Queue interface {
	Finish() error
	Close() error
}

// Plan is a baked batched transform.
type Plan interface {
	Spec() PlanSpec
	// Execute enqueues the transform on the plan's queue. Forward plans take
	// one real input buffer; inverse plans take the real and imaginary planes.
	Execute(in []Buffer, out Buffer) error
	Close() error
}

// Kernels are the elementwise device operations used around a transform.
type Kernels interface {
	// SynthesizeTestPattern fills n elements of dst with the deterministic
	// test pattern, starting at global sample index offset.
	SynthesizeTestPattern(q Queue, dst Buffer, offset, n int) error
	// ComplexMagnitude writes sqrt(re^2+im^2) of n interleaved bins of src to dst.
	ComplexMagnitude(q Queue, dst, src Buffer, n int) error
	// ComplexRealPart writes the real part of n interleaved bins of src to dst.
	ComplexRealPart(q Queue, dst, src Buffer, n int) error
}

// DefaultBackend is the backend name used when none is requested.
const DefaultBackend = "algofft"

var (
	registryMu sync.RWMutex
	registry   = map[string]Backend{}
)

// Register makes b available under b.Info().Name, replacing any previous
// backend of that name. Passing nil is a no-op.
func Register(b Backend) {
	if b == nil {
		return
	}
	registryMu.Lock()
	registry[b.Info().Name] = b
	registryMu.Unlock()
}

// Lookup returns the backend registered under name; "" selects DefaultBackend.
func Lookup(name string) (Backend, error) {
	if name == "" {
		name = DefaultBackend
	}
	registryMu.RLock()
	b, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrNoBackend, name, Names())
	}
	return b, nil
}

// Names lists registered backends in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Open looks up a backend and opens a context on deviceIndex.
func Open(name string, deviceIndex int) (Context, error) {
	b, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if !b.Available() {
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, b.Info().Name)
	}
	return b.NewContext(deviceIndex)
}

func init() {
	Register(newHostBackend(BackendInfo{
		Name:        "algofft",
		Description: "algo-fft complex plans on the host",
		Precision:   "single",
	}, newAlgofftSegment))
	Register(newHostBackend(BackendInfo{
		Name:        "gonum",
		Description: "gonum dsp/fourier real FFT on the host",
		Precision:   "double",
	}, newGonumSegment))
	Register(newHostBackend(BackendInfo{
		Name:        "godsp",
		Description: "go-dsp FFT on the host",
		Precision:   "double",
	}, newGodspSegment))
}
