package channelize

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-filterbank/dsp/core"
	"github.com/cwbudde/algo-filterbank/dsp/engine"
	"github.com/cwbudde/algo-filterbank/internal/benchmark"
	"github.com/cwbudde/algo-filterbank/internal/logging"
)

// Config describes one engine.
//
// SegmentLength is the real segment length L in both directions; the
// spectrum side of each segment holds 1 + L/2 bins.
type Config struct {
	core.ProcessorConfig

	Direction engine.Direction
	Logger    logging.Logger
	// Timers receives stage timings. Nil disables timing.
	Timers *benchmark.Timers
}

// Products receives the host copies of one forward batch. Nil fields are
// not downloaded.
type Products struct {
	// Magnitude holds Bins() values per segment.
	Magnitude []float32
	// Spectrum holds Bins() interleaved (re, im) pairs per segment.
	Spectrum []float32
	// Real holds the real part of every bin.
	Real []float32
}

// Engine runs batched transforms on one context.
type Engine struct {
	cfg  Config
	log  logging.Logger
	bins int

	ctx      engine.Context
	ownsCtx  bool
	queue    engine.Queue
	plan     engine.Plan
	buffers  []engine.Buffer
	in       []engine.Buffer
	spectrum engine.Buffer
	derived  engine.Buffer
	out      engine.Buffer

	zeros  []float32
	closed bool
}

// Open opens a context on the named backend and builds an engine that
// releases it on Close.
func Open(backend string, device int, cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctx, err := engine.Open(backend, device)
	if err != nil {
		return nil, fmt.Errorf("%w: open backend: %w", core.ErrTransform, err)
	}
	e, err := New(ctx, cfg)
	if err != nil {
		_ = ctx.Close()
		return nil, err
	}
	e.ownsCtx = true
	return e, nil
}

// New validates cfg and allocates the queue, plan and one batch of device
// buffers on ctx. The caller keeps ownership of ctx.
func New(ctx engine.Context, cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		return nil, fmt.Errorf("%w: nil engine context", core.ErrConfiguration)
	}

	e := &Engine{
		cfg:  cfg,
		log:  logging.OrNop(cfg.Logger),
		bins: 1 + cfg.SegmentLength/2,
		ctx:  ctx,
	}
	if err := e.setup(); err != nil {
		_ = e.Close()
		return nil, err
	}

	dev := ctx.Device()
	e.log.Debug("engine ready", logging.Fields{
		"device":    dev.Name,
		"platform":  dev.Platform,
		"direction": cfg.Direction.String(),
		"nsamp_seg": cfg.SegmentLength,
		"seg_count": cfg.SegmentCount,
	})
	return e, nil
}

func (e *Engine) setup() error {
	setup := e.cfg.Timers.Stage("setup")
	setup.Start()

	var err error
	if e.queue, err = e.ctx.NewQueue(); err != nil {
		return transformErr("create queue", err)
	}
	spec := engine.PlanSpec{
		Length:    e.cfg.SegmentLength,
		Batch:     e.cfg.SegmentCount,
		Direction: e.cfg.Direction,
	}
	if e.plan, err = e.ctx.NewPlan(spec, e.queue); err != nil {
		return transformErr("create plan", err)
	}
	spec = e.plan.Spec()

	planes := 1
	if e.cfg.Direction == engine.Inverse {
		planes = 2
	}
	for range planes {
		b, err := e.alloc(spec.InputLen())
		if err != nil {
			return err
		}
		e.in = append(e.in, b)
	}
	if e.cfg.Direction == engine.Forward {
		if e.spectrum, err = e.alloc(spec.OutputLen()); err != nil {
			return err
		}
		if e.derived, err = e.alloc(e.SpectrumLength()); err != nil {
			return err
		}
	} else if e.out, err = e.alloc(spec.OutputLen()); err != nil {
		return err
	}

	if err := setup.Stop(e.queue); err != nil {
		return transformErr("setup", err)
	}
	return nil
}

func (e *Engine) alloc(n int) (engine.Buffer, error) {
	b, err := e.ctx.NewBuffer(n)
	if err != nil {
		return nil, transformErr("allocate buffer", err)
	}
	e.buffers = append(e.buffers, b)
	return b, nil
}

func transformErr(stage string, err error) error {
	if errors.Is(err, core.ErrTransform) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", core.ErrTransform, stage, err)
}

// Bins returns the spectrum bin count per segment.
func (e *Engine) Bins() int { return e.bins }

// BatchLength returns the real sample count of one batch.
func (e *Engine) BatchLength() int { return e.cfg.BatchLength() }

// SpectrumLength returns the bin count of one batch.
func (e *Engine) SpectrumLength() int { return e.bins * e.cfg.SegmentCount }

func (e *Engine) check(dir engine.Direction) error {
	if e.closed {
		return transformErr("run", engine.ErrClosed)
	}
	if e.cfg.Direction != dir {
		return fmt.Errorf("%w: %s call on %s engine", core.ErrConfiguration, dir, e.cfg.Direction)
	}
	return nil
}

func checkLen(name string, got, want int) error {
	if got != want {
		return fmt.Errorf("%w: %s holds %d values, want %d", engine.ErrLengthMismatch, name, got, want)
	}
	return nil
}

// Forward transforms one batch of BatchLength samples and downloads the
// requested products.
func (e *Engine) Forward(batch []float32, out Products) error {
	if err := e.check(engine.Forward); err != nil {
		return err
	}
	if err := checkLen("batch", len(batch), e.BatchLength()); err != nil {
		return err
	}

	cp := e.cfg.Timers.Stage("copy")
	cp.Start()
	if err := e.in[0].Upload(batch); err != nil {
		return transformErr("upload", err)
	}
	if err := cp.Stop(e.queue); err != nil {
		return transformErr("upload", err)
	}
	return e.forward(out)
}

// ForwardPattern transforms one batch of the synthetic test pattern,
// generated on the device starting at sample offset.
func (e *Engine) ForwardPattern(offset int, out Products) error {
	if err := e.check(engine.Forward); err != nil {
		return err
	}
	gen := e.cfg.Timers.Stage("copy")
	gen.Start()
	if err := e.ctx.SynthesizeTestPattern(e.queue, e.in[0], offset, e.BatchLength()); err != nil {
		return transformErr("synthesize", err)
	}
	if err := gen.Stop(e.queue); err != nil {
		return transformErr("synthesize", err)
	}
	return e.forward(out)
}

func (e *Engine) forward(out Products) error {
	n := e.SpectrumLength()
	for _, p := range []struct {
		name string
		got  []float32
		want int
	}{
		{"magnitude", out.Magnitude, n},
		{"spectrum", out.Spectrum, 2 * n},
		{"real", out.Real, n},
	} {
		if p.got != nil {
			if err := checkLen(p.name, len(p.got), p.want); err != nil {
				return err
			}
		}
	}

	fft := e.cfg.Timers.Stage("fft")
	fft.Start()
	if err := e.plan.Execute(e.in, e.spectrum); err != nil {
		return transformErr("execute", err)
	}
	if err := fft.Stop(e.queue); err != nil {
		return transformErr("execute", err)
	}

	if out.Spectrum != nil {
		if err := e.download(e.spectrum, out.Spectrum); err != nil {
			return err
		}
	}
	if out.Magnitude != nil {
		if err := e.derive(e.ctx.ComplexMagnitude, out.Magnitude); err != nil {
			return err
		}
	}
	if out.Real != nil {
		if err := e.derive(e.ctx.ComplexRealPart, out.Real); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) derive(kernel func(engine.Queue, engine.Buffer, engine.Buffer, int) error, dst []float32) error {
	norm := e.cfg.Timers.Stage("normalize")
	norm.Start()
	if err := kernel(e.queue, e.derived, e.spectrum, len(dst)); err != nil {
		return transformErr("derive", err)
	}
	if err := norm.Stop(e.queue); err != nil {
		return transformErr("derive", err)
	}
	return e.download(e.derived, dst)
}

func (e *Engine) download(src engine.Buffer, dst []float32) error {
	cp := e.cfg.Timers.Stage("copy")
	cp.Start()
	if err := e.queue.Finish(); err != nil {
		return transformErr("download", err)
	}
	if err := src.Download(dst); err != nil {
		return transformErr("download", err)
	}
	return cp.Stop(nil)
}

// Inverse reconstructs BatchLength samples into out from the planar half
// spectra re and im. A nil im is treated as all zeros.
func (e *Engine) Inverse(re, im, out []float32) error {
	if err := e.check(engine.Inverse); err != nil {
		return err
	}
	n := e.SpectrumLength()
	if err := checkLen("real plane", len(re), n); err != nil {
		return err
	}
	if im == nil {
		if e.zeros == nil {
			e.zeros = make([]float32, n)
		}
		im = e.zeros
	}
	if err := checkLen("imaginary plane", len(im), n); err != nil {
		return err
	}
	if err := checkLen("output", len(out), e.BatchLength()); err != nil {
		return err
	}

	cp := e.cfg.Timers.Stage("copy")
	cp.Start()
	if err := e.in[0].Upload(re); err != nil {
		return transformErr("upload", err)
	}
	if err := e.in[1].Upload(im); err != nil {
		return transformErr("upload", err)
	}
	if err := cp.Stop(e.queue); err != nil {
		return transformErr("upload", err)
	}

	fft := e.cfg.Timers.Stage("fft")
	fft.Start()
	if err := e.plan.Execute(e.in, e.out); err != nil {
		return transformErr("execute", err)
	}
	if err := fft.Stop(e.queue); err != nil {
		return transformErr("execute", err)
	}
	return e.download(e.out, out)
}

// Close releases the plan, queue and buffers, and the context when the
// engine opened it. It is safe to call more than once.
func (e *Engine) Close() error {
	if e == nil || e.closed {
		return nil
	}
	e.closed = true

	var errs []error
	if e.queue != nil {
		// Drain before releasing memory the queue may still touch.
		if err := e.queue.Finish(); err != nil && !errors.Is(err, engine.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if e.plan != nil {
		errs = append(errs, e.plan.Close())
	}
	for _, b := range e.buffers {
		errs = append(errs, b.Close())
	}
	if e.queue != nil {
		errs = append(errs, e.queue.Close())
	}
	if e.ownsCtx {
		errs = append(errs, e.ctx.Close())
	}
	e.plan, e.queue, e.buffers, e.in = nil, nil, nil, nil
	return errors.Join(errs...)
}
