package channelize

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-filterbank/dsp/band"
	"github.com/cwbudde/algo-filterbank/dsp/core"
	"github.com/cwbudde/algo-filterbank/dsp/engine"
	"github.com/cwbudde/algo-filterbank/dsp/grid"
	"github.com/cwbudde/algo-filterbank/dsp/segment"
	"github.com/cwbudde/algo-filterbank/dsp/window"
	"github.com/cwbudde/algo-filterbank/internal/benchmark"
	"github.com/cwbudde/algo-filterbank/internal/logging"
)

// ContextOpener opens one engine context per worker.
type ContextOpener func() (engine.Context, error)

type pipelineOptions struct {
	segCount  int
	direction engine.Direction
	order     band.Order
	workers   int
	backend   string
	device    int
	open      ContextOpener
	keep      bool
	taper     *window.Taper
	log       logging.Logger
	timers    *benchmark.Timers
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*pipelineOptions)

// WithSegmentCount sets the number of segments per transform call.
// The default is 1.
func WithSegmentCount(n int) PipelineOption {
	return func(o *pipelineOptions) {
		if n > 0 {
			o.segCount = n
		}
	}
}

// WithDirection selects forward channelization (default) or inverse
// reconstruction.
func WithDirection(d engine.Direction) PipelineOption {
	return func(o *pipelineOptions) {
		o.direction = d
	}
}

// WithOrder sets the channel order of the channelized product.
func WithOrder(order band.Order) PipelineOption {
	return func(o *pipelineOptions) {
		o.order = order
	}
}

// WithWorkers processes iterations on n engines concurrently.
func WithWorkers(n int) PipelineOption {
	return func(o *pipelineOptions) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithBackend selects the engine backend and device.
func WithBackend(name string, device int) PipelineOption {
	return func(o *pipelineOptions) {
		o.backend = name
		o.device = device
	}
}

// WithContextOpener replaces backend lookup. The pipeline closes every
// context it opens.
func WithContextOpener(open ContextOpener) PipelineOption {
	return func(o *pipelineOptions) {
		o.open = open
	}
}

// WithSpectrumDump keeps the full complex spectrum and magnitude of every
// segment in the forward result.
func WithSpectrumDump() PipelineOption {
	return func(o *pipelineOptions) {
		o.keep = true
	}
}

// WithTaper multiplies every input segment by the taper before the
// forward transform. The taper length must equal the segment length.
func WithTaper(tp *window.Taper) PipelineOption {
	return func(o *pipelineOptions) {
		o.taper = tp
	}
}

// WithLogger sets the run logger.
func WithLogger(l logging.Logger) PipelineOption {
	return func(o *pipelineOptions) {
		o.log = l
	}
}

// WithTimers records stage timings into t.
func WithTimers(t *benchmark.Timers) PipelineOption {
	return func(o *pipelineOptions) {
		o.timers = t
	}
}

// Pipeline channelizes (or reconstructs) a whole sample stream.
type Pipeline struct {
	grid grid.Grid[float32]
	opts pipelineOptions
	log  logging.Logger
}

// Stats summarizes the values of a result.
type Stats struct {
	Min  float64
	Max  float64
	Mean float64
}

// Result is the output of one run.
type Result struct {
	// Data is the channelized product, Width channels per segment, or the
	// reconstructed samples of an inverse run.
	Data  []float32
	Width int
	// Segments counts the rows of Data.
	Segments int
	// Dropped counts trailing input values that did not fill a batch.
	Dropped int

	// Spectrum and Magnitude are only set by forward runs with a spectrum
	// dump. Spectrum holds interleaved pairs.
	Spectrum  []float32
	Magnitude []float32

	Stats Stats
}

// NewPipeline builds a pipeline over a resolved grid. The grid's window
// selects the channels of the forward product and, in the inverse
// direction, the bins the input rows are scattered to.
func NewPipeline(g grid.Grid[float32], opts ...PipelineOption) (*Pipeline, error) {
	o := pipelineOptions{
		segCount: 1,
		workers:  1,
		backend:  engine.DefaultBackend,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if err := g.Window.Validate(g.Bins); err != nil {
		return nil, err
	}
	if g.Bins != 1+g.SegmentLength/2 {
		return nil, fmt.Errorf("%w: grid has %d bins for segment length %d", core.ErrConfiguration, g.Bins, g.SegmentLength)
	}
	if tp := o.taper; tp != nil {
		if o.direction != engine.Forward {
			return nil, fmt.Errorf("%w: a segment taper only applies to forward runs", core.ErrConfiguration)
		}
		if tp.Len() != g.SegmentLength {
			return nil, fmt.Errorf("%w: taper length %d for segment length %d",
				core.ErrConfiguration, tp.Len(), g.SegmentLength)
		}
	}
	if o.open == nil {
		backend, device := o.backend, o.device
		o.open = func() (engine.Context, error) {
			return engine.Open(backend, device)
		}
	}
	p := &Pipeline{grid: g, opts: o, log: logging.OrNop(o.log)}
	if err := p.config(nil).Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pipeline) config(t *benchmark.Timers) Config {
	return Config{
		ProcessorConfig: core.ProcessorConfig{
			SampleRate:    float64(p.grid.SampleRate),
			SegmentLength: p.grid.SegmentLength,
			SegmentCount:  p.opts.segCount,
		},
		Direction: p.opts.direction,
		Logger:    p.log,
		Timers:    t,
	}
}

// Grid returns the resolved grid.
func (p *Pipeline) Grid() grid.Grid[float32] { return p.grid }

// Run channelizes samples. Samples past the last whole batch are dropped
// with a warning.
func (p *Pipeline) Run(ctx context.Context, samples []float32) (*Result, error) {
	if p.opts.direction != engine.Forward {
		return nil, fmt.Errorf("%w: Run on an inverse pipeline", core.ErrConfiguration)
	}
	b, err := segment.NewBatcher(len(samples), p.grid.SegmentLength, p.opts.segCount)
	if err != nil {
		return nil, err
	}
	return p.forward(ctx, b, func(e *Engine, w segment.Window, staging []float32, out Products) error {
		in := segment.Slice(samples, w)
		if tp := p.opts.taper; tp != nil {
			if err := tp.Apply(staging, in); err != nil {
				return err
			}
			in = staging
		}
		return e.Forward(in, out)
	})
}

// RunPattern channelizes n samples of the synthetic test pattern generated
// on the device. The pattern never passes through the host, so a
// configured taper is not applied.
func (p *Pipeline) RunPattern(ctx context.Context, n int) (*Result, error) {
	if p.opts.direction != engine.Forward {
		return nil, fmt.Errorf("%w: RunPattern on an inverse pipeline", core.ErrConfiguration)
	}
	b, err := segment.NewBatcher(n, p.grid.SegmentLength, p.opts.segCount)
	if err != nil {
		return nil, err
	}
	if p.opts.taper != nil {
		p.log.Warn("segment taper ignored for the device test pattern", logging.Fields{"window": p.opts.taper.Type().String()})
	}
	return p.forward(ctx, b, func(e *Engine, w segment.Window, _ []float32, out Products) error {
		return e.ForwardPattern(w.Offset, out)
	})
}

// forwardStep runs one iteration. staging is a worker-owned batch-length
// buffer, nil when no taper is configured.
type forwardStep func(e *Engine, w segment.Window, staging []float32, out Products) error

func (p *Pipeline) forward(ctx context.Context, b *segment.Batcher, step forwardStep) (*Result, error) {
	g, segCount := p.grid, p.opts.segCount
	width, bins := g.Width(), g.Bins
	p.announce(b, width)

	res := &Result{
		Data:     make([]float32, b.Segments()*width),
		Width:    width,
		Segments: b.Segments(),
		Dropped:  b.Dropped(),
	}
	if p.opts.keep {
		res.Spectrum = make([]float32, 2*b.Segments()*bins)
		res.Magnitude = make([]float32, b.Segments()*bins)
	}

	err := p.parallel(ctx, b, func(ctx context.Context, e *Engine, iters [2]int) error {
		var scratch, staging []float32
		if !p.opts.keep {
			scratch = make([]float32, e.SpectrumLength())
		}
		if p.opts.taper != nil {
			staging = make([]float32, e.BatchLength())
		}
		for i := iters[0]; i < iters[1]; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			w := b.At(i)
			seg0 := i * segCount
			out := Products{Magnitude: scratch}
			if p.opts.keep {
				out.Magnitude = res.Magnitude[seg0*bins : (seg0+segCount)*bins]
				out.Spectrum = res.Spectrum[2*seg0*bins : 2*(seg0+segCount)*bins]
			}
			if err := step(e, w, staging, out); err != nil {
				return fmt.Errorf("iteration %d: %w", i, err)
			}
			band.SelectRowsInto(res.Data[seg0*width:(seg0+segCount)*width], out.Magnitude, bins, g.Window, p.opts.order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Stats = summarize(res.Data)
	p.log.Info("channelized", logging.Fields{
		"segments": res.Segments,
		"channels": width,
		"min":      res.Stats.Min,
		"max":      res.Stats.Max,
		"mean":     res.Stats.Mean,
	})
	return res, nil
}

// RunInverse reconstructs samples from rows of Width() channels per
// segment. Each row is scattered onto the window's bins of an otherwise
// zero half spectrum. A nil im is treated as all zeros.
func (p *Pipeline) RunInverse(ctx context.Context, re, im []float32) (*Result, error) {
	if p.opts.direction != engine.Inverse {
		return nil, fmt.Errorf("%w: RunInverse on a forward pipeline", core.ErrConfiguration)
	}
	if im != nil && len(im) != len(re) {
		return nil, fmt.Errorf("%w: imaginary plane holds %d values, real plane %d",
			core.ErrConfiguration, len(im), len(re))
	}
	g, segCount := p.grid, p.opts.segCount
	width, bins, segLen := g.Width(), g.Bins, g.SegmentLength

	b, err := segment.NewBatcher(len(re), width, segCount)
	if err != nil {
		return nil, err
	}
	p.announce(b, width)

	res := &Result{
		Data:     make([]float32, b.Segments()*segLen),
		Width:    segLen,
		Segments: b.Segments(),
		Dropped:  b.Dropped(),
	}

	err = p.parallel(ctx, b, func(ctx context.Context, e *Engine, iters [2]int) error {
		reBins := make([]float32, e.SpectrumLength())
		var imBins []float32
		if im != nil {
			imBins = make([]float32, e.SpectrumLength())
		}
		for i := iters[0]; i < iters[1]; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			w := b.At(i)
			rows := segment.Slice(re, w)
			core.Zero(reBins)
			scatterRows(reBins, rows, bins, width, g.Window, p.opts.order)
			if im != nil {
				core.Zero(imBins)
				scatterRows(imBins, segment.Slice(im, w), bins, width, g.Window, p.opts.order)
			}
			seg0 := i * segCount
			out := res.Data[seg0*segLen : (seg0+segCount)*segLen]
			if err := e.Inverse(reBins, imBins, out); err != nil {
				return fmt.Errorf("iteration %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Stats = summarize(res.Data)
	p.log.Info("reconstructed", logging.Fields{
		"segments": res.Segments,
		"samples":  len(res.Data),
		"min":      res.Stats.Min,
		"max":      res.Stats.Max,
	})
	return res, nil
}

func scatterRows(spectra, rows []float32, bins, width int, w grid.Window, order band.Order) {
	for s := range len(rows) / width {
		band.Scatter(spectra[s*bins:(s+1)*bins], rows[s*width:(s+1)*width], w, order)
	}
}

func (p *Pipeline) announce(b *segment.Batcher, width int) {
	g := p.grid
	p.log.Info("run", logging.Fields{
		"direction": p.opts.direction.String(),
		"nsamp_seg": g.SegmentLength,
		"seg_count": p.opts.segCount,
		"iteration": b.Iterations(),
		"df":        g.DF,
		"fmin_id":   g.Window.FminID,
		"fmax_id":   g.Window.FmaxID,
		"channels":  width,
		"order":     p.opts.order.String(),
		"workers":   p.opts.workers,
	})
	if tp := p.opts.taper; tp != nil {
		a := tp.Analysis()
		p.log.Info("segment taper", logging.Fields{
			"window":        tp.Type().String(),
			"coherent_gain": a.CoherentGain,
			"enbw":          a.ENBW,
		})
	}
	if n := b.Dropped(); n > 0 {
		p.log.Warn("dropping trailing values that do not fill a batch", logging.Fields{
			"dropped":  n,
			"consumed": b.Consumed(),
		})
	}
	if b.Iterations() == 0 {
		p.log.Warn("input shorter than one batch", logging.Fields{"batch": b.BatchLength()})
	}
}

// workFunc processes the iterations [start, end) on one engine.
type workFunc func(ctx context.Context, e *Engine, iters [2]int) error

// parallel runs fn over contiguous iteration ranges, one engine per range.
// Every engine is closed before parallel returns.
func (p *Pipeline) parallel(ctx context.Context, b *segment.Batcher, fn workFunc) error {
	parts := b.Partition(p.opts.workers)
	if len(parts) == 0 {
		return nil
	}

	var mu sync.Mutex
	grp, gctx := errgroup.WithContext(ctx)
	for _, part := range parts {
		grp.Go(func() error {
			timers := p.opts.timers
			if len(parts) > 1 && timers != nil {
				timers = benchmark.New()
				defer func() {
					mu.Lock()
					p.opts.timers.Merge(timers)
					mu.Unlock()
				}()
			}
			return p.work(gctx, timers, part, fn)
		})
	}
	return grp.Wait()
}

func (p *Pipeline) work(ctx context.Context, t *benchmark.Timers, part [2]int, fn workFunc) (err error) {
	dctx, err := p.opts.open()
	if err != nil {
		return fmt.Errorf("%w: open context: %w", core.ErrTransform, err)
	}
	defer func() {
		if cerr := dctx.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close context: %w", core.ErrTransform, cerr)
		}
	}()

	dev := dctx.Device()
	p.log.Debug("using device", logging.Fields{"device": dev.Name, "platform": dev.Platform, "vendor": dev.Vendor})

	e, err := New(dctx, p.config(t))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := e.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: teardown: %w", core.ErrTransform, cerr)
		}
	}()
	return fn(ctx, e, part)
}

func summarize(data []float32) Stats {
	if len(data) == 0 {
		return Stats{}
	}
	wide := make([]float64, len(data))
	core.Widen(wide, data)
	return Stats{
		Min:  floats.Min(wide),
		Max:  floats.Max(wide),
		Mean: floats.Sum(wide) / float64(len(wide)),
	}
}
