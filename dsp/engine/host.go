package engine

import (
	"fmt"
	"sync"

	"github.com/cwbudde/algo-filterbank/internal/cpu"
)

// segmentTransform transforms one segment of length L.
type segmentTransform interface {
	// forward writes the M = 1 + L/2 bins of the L samples in src to dst as
	// interleaved (re, im) pairs.
	forward(dst, src []float32) error
	// inverse writes L samples, scaled by 1/L, from the planar M-bin
	// Hermitian half spectrum (re, im) to dst.
	inverse(dst, re, im []float32) error
}

type segmentFactory func(length int) (segmentTransform, error)

// hostBackend runs every context on the host CPU.
type hostBackend struct {
	info       BackendInfo
	newSegment segmentFactory
}

func newHostBackend(info BackendInfo, f segmentFactory) *hostBackend {
	return &hostBackend{info: info, newSegment: f}
}

func (b *hostBackend) Info() BackendInfo { return b.info }

func (b *hostBackend) Available() bool { return true }

func (b *hostBackend) device() DeviceInfo {
	f := cpu.Detect()
	return DeviceInfo{
		Name:       "host",
		Vendor:     f.Architecture,
		Platform:   b.info.Name,
		ComputeCap: f.String(),
	}
}

func (b *hostBackend) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{b.device()}, nil
}

func (b *hostBackend) NewContext(deviceIndex int) (Context, error) {
	if deviceIndex != 0 {
		return nil, fmt.Errorf("%w: %s: device index %d out of range", ErrBackendUnavailable, b.info.Name, deviceIndex)
	}
	return &hostContext{backend: b, device: b.device()}, nil
}

type hostContext struct {
	backend *hostBackend
	device  DeviceInfo

	mu     sync.Mutex
	closed bool
}

func (c *hostContext) Device() DeviceInfo { return c.device }

func (c *hostContext) live() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

func (c *hostContext) NewBuffer(n int) (Buffer, error) {
	if err := c.live(); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative buffer size %d", ErrLengthMismatch, n)
	}
	return &hostBuffer{ctx: c, data: make([]float32, n)}, nil
}

func (c *hostContext) NewQueue() (Queue, error) {
	if err := c.live(); err != nil {
		return nil, err
	}
	return &hostQueue{ctx: c}, nil
}

func (c *hostContext) NewPlan(spec PlanSpec, q Queue) (Plan, error) {
	if err := c.live(); err != nil {
		return nil, err
	}
	hq, err := c.queue(q)
	if err != nil {
		return nil, err
	}
	spec = spec.WithDefaults()
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	seg, err := c.backend.newSegment(spec.Length)
	if err != nil {
		return nil, err
	}
	return &hostPlan{spec: spec, queue: hq, seg: seg}, nil
}

func (c *hostContext) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *hostContext) queue(q Queue) (*hostQueue, error) {
	hq, ok := q.(*hostQueue)
	if !ok || hq.ctx != c {
		return nil, ErrForeignObject
	}
	return hq, nil
}

func (c *hostContext) buffer(b Buffer) (*hostBuffer, error) {
	hb, ok := b.(*hostBuffer)
	if !ok || hb.ctx != c {
		return nil, ErrForeignObject
	}
	if hb.data == nil {
		return nil, ErrClosed
	}
	return hb, nil
}

func (c *hostContext) SynthesizeTestPattern(q Queue, dst Buffer, offset, n int) error {
	hq, err := c.queue(q)
	if err != nil {
		return err
	}
	d, err := c.buffer(dst)
	if err != nil {
		return err
	}
	if n < 0 || len(d.data) < n {
		return fmt.Errorf("%w: pattern of %d samples into buffer of %d", ErrLengthMismatch, n, len(d.data))
	}
	return hq.enqueue(func() error {
		SynthesizeTestPattern(d.data[:n], offset)
		return nil
	})
}

func (c *hostContext) ComplexMagnitude(q Queue, dst, src Buffer, n int) error {
	return c.pairKernel(q, dst, src, n, ComplexMagnitude)
}

func (c *hostContext) ComplexRealPart(q Queue, dst, src Buffer, n int) error {
	return c.pairKernel(q, dst, src, n, ComplexRealPart)
}

func (c *hostContext) pairKernel(q Queue, dst, src Buffer, n int, kernel func(dst, src []float32)) error {
	hq, err := c.queue(q)
	if err != nil {
		return err
	}
	d, err := c.buffer(dst)
	if err != nil {
		return err
	}
	s, err := c.buffer(src)
	if err != nil {
		return err
	}
	if n < 0 || len(d.data) < n || len(s.data) < 2*n {
		return fmt.Errorf("%w: %d bins from buffer of %d into buffer of %d", ErrLengthMismatch, n, len(s.data), len(d.data))
	}
	return hq.enqueue(func() error {
		kernel(d.data[:n], s.data[:2*n])
		return nil
	})
}

type hostBuffer struct {
	ctx  *hostContext
	data []float32
}

func (b *hostBuffer) Len() int { return len(b.data) }

func (b *hostBuffer) Upload(src []float32) error {
	if b.data == nil {
		return ErrClosed
	}
	if len(src) > len(b.data) {
		return fmt.Errorf("%w: upload of %d into buffer of %d", ErrLengthMismatch, len(src), len(b.data))
	}
	copy(b.data, src)
	return nil
}

func (b *hostBuffer) Download(dst []float32) error {
	if b.data == nil {
		return ErrClosed
	}
	if len(dst) > len(b.data) {
		return fmt.Errorf("%w: download of %d from buffer of %d", ErrLengthMismatch, len(dst), len(b.data))
	}
	copy(dst, b.data)
	return nil
}

func (b *hostBuffer) Close() error {
	b.data = nil
	return nil
}

// hostQueue executes work at enqueue time, so Finish has nothing to wait
// for beyond reporting a released queue.
type hostQueue struct {
	ctx *hostContext

	mu     sync.Mutex
	closed bool
}

func (q *hostQueue) enqueue(work func() error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	return work()
}

func (q *hostQueue) Finish() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	return nil
}

func (q *hostQueue) Close() error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	return nil
}

type hostPlan struct {
	spec   PlanSpec
	queue  *hostQueue
	seg    segmentTransform
	closed bool
}

func (p *hostPlan) Spec() PlanSpec { return p.spec }

func (p *hostPlan) Execute(in []Buffer, out Buffer) error {
	if p.closed {
		return ErrClosed
	}
	ctx := p.queue.ctx

	wantIn := 1
	if p.spec.Direction == Inverse {
		wantIn = 2
	}
	if len(in) != wantIn {
		return fmt.Errorf("%w: %s plan takes %d input buffers, got %d", ErrLengthMismatch, p.spec.Direction, wantIn, len(in))
	}
	srcs := make([][]float32, len(in))
	for i, b := range in {
		hb, err := ctx.buffer(b)
		if err != nil {
			return err
		}
		if len(hb.data) < p.spec.InputLen() {
			return fmt.Errorf("%w: input buffer %d holds %d, plan needs %d", ErrLengthMismatch, i, len(hb.data), p.spec.InputLen())
		}
		srcs[i] = hb.data
	}
	dst, err := ctx.buffer(out)
	if err != nil {
		return err
	}
	if len(dst.data) < p.spec.OutputLen() {
		return fmt.Errorf("%w: output buffer holds %d, plan needs %d", ErrLengthMismatch, len(dst.data), p.spec.OutputLen())
	}

	return p.queue.enqueue(func() error {
		return p.run(dst.data, srcs)
	})
}

func (p *hostPlan) run(dst []float32, srcs [][]float32) error {
	s := p.spec
	n, m := s.Length, s.Bins()
	for b := range s.Batch {
		in := b * s.InDistance
		switch s.Direction {
		case Forward:
			out := 2 * b * s.OutDistance
			if err := p.seg.forward(dst[out:out+2*m], srcs[0][in:in+n]); err != nil {
				return err
			}
		case Inverse:
			out := b * s.OutDistance
			if err := p.seg.inverse(dst[out:out+n], srcs[0][in:in+m], srcs[1][in:in+m]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *hostPlan) Close() error {
	p.closed = true
	p.seg = nil
	return nil
}
