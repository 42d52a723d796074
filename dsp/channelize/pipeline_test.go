package channelize

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cwbudde/algo-filterbank/dsp/band"
	"github.com/cwbudde/algo-filterbank/dsp/core"
	"github.com/cwbudde/algo-filterbank/dsp/engine"
	"github.com/cwbudde/algo-filterbank/dsp/grid"
	"github.com/cwbudde/algo-filterbank/dsp/window"
	"github.com/cwbudde/algo-filterbank/internal/benchmark"
	"github.com/cwbudde/algo-filterbank/internal/logging"
	"github.com/cwbudde/algo-filterbank/internal/testutil"
)

func resolve(t *testing.T, segLen int, fs float32, opts ...grid.Option) grid.Grid[float32] {
	t.Helper()
	g, err := grid.Resolve(segLen, fs, opts...)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return g
}

func newPipeline(t *testing.T, g grid.Grid[float32], opts ...PipelineOption) *Pipeline {
	t.Helper()
	p, err := NewPipeline(g, opts...)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p
}

func TestRunDropsTail(t *testing.T) {
	var warn bytes.Buffer
	log := logging.NewWriterLogger(&bytes.Buffer{}, &warn)

	p := newPipeline(t, resolve(t, 8, 8), WithLogger(log))
	res, err := p.Run(context.Background(), testutil.Noise[float32](1, 1, 17))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Segments != 2 || res.Dropped != 1 {
		t.Fatalf("segments/dropped = %d/%d, want 2/1", res.Segments, res.Dropped)
	}
	if len(res.Data) != 2*5 || res.Width != 5 {
		t.Fatalf("data len %d width %d, want 10 and 5", len(res.Data), res.Width)
	}
	if !strings.Contains(warn.String(), "dropped=1") {
		t.Fatalf("warning log %q lacks dropped count", warn.String())
	}
}

func TestRunSelectsWindow(t *testing.T) {
	const segLen = 16
	g := resolve(t, segLen, 16, grid.WithFmin(2), grid.WithFmax(6))
	samples := testutil.BinTone[float32](5, segLen, 1, 3*segLen)

	flip, err := newPipeline(t, g).Run(context.Background(), samples)
	if err != nil {
		t.Fatalf("Run flip: %v", err)
	}
	asc, err := newPipeline(t, g, WithOrder(band.Ascending)).Run(context.Background(), samples)
	if err != nil {
		t.Fatalf("Run ascending: %v", err)
	}

	w := g.Width()
	if w != 5 {
		t.Fatalf("width = %d, want 5", w)
	}
	for s := range 3 {
		row := flip.Data[s*w : (s+1)*w]
		// Bin 5 is channel fmax_id-5 = 1 when flipped, 5-fmin_id = 3 ascending.
		if got := testutil.ArgMax(row); got != 1 {
			t.Fatalf("segment %d flip peak at %d, want 1", s, got)
		}
		if got := testutil.ArgMax(asc.Data[s*w : (s+1)*w]); got != 3 {
			t.Fatalf("segment %d ascending peak at %d, want 3", s, got)
		}
		for j := range w {
			if row[j] != asc.Data[s*w+w-1-j] {
				t.Fatalf("segment %d: flip[%d] != ascending[%d]", s, j, w-1-j)
			}
		}
	}
}

func TestRunWorkersMatchSerial(t *testing.T) {
	g := resolve(t, 32, 1000, grid.WithFmin(100), grid.WithFmax(400))
	samples := testutil.Noise[float32](21, 1, 32*2*7+5)

	serial, err := newPipeline(t, g, WithSegmentCount(2)).Run(context.Background(), samples)
	if err != nil {
		t.Fatalf("serial Run: %v", err)
	}
	timers := benchmark.New()
	parallel, err := newPipeline(t, g, WithSegmentCount(2), WithWorkers(3), WithTimers(timers)).
		Run(context.Background(), samples)
	if err != nil {
		t.Fatalf("parallel Run: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, parallel.Data, serial.Data, 0)
	if timers.FFT.Count() != 7 {
		t.Fatalf("fft count = %d, want 7 iterations", timers.FFT.Count())
	}
	if timers.Setup.Count() != 3 {
		t.Fatalf("setup count = %d, want one per worker", timers.Setup.Count())
	}
}

func TestRunSpectrumDump(t *testing.T) {
	g := resolve(t, 8, 8, grid.WithFmin(1), grid.WithFmax(3))
	res, err := newPipeline(t, g, WithSpectrumDump()).Run(context.Background(), testutil.Noise[float32](4, 1, 24))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Magnitude) != 3*5 || len(res.Spectrum) != 2*3*5 {
		t.Fatalf("dump lens %d/%d, want 15/30", len(res.Magnitude), len(res.Spectrum))
	}
	for s := range 3 {
		mag := res.Magnitude[s*5 : (s+1)*5]
		want := []float32{mag[3], mag[2], mag[1]}
		testutil.RequireSliceNearlyEqual(t, res.Data[s*3:(s+1)*3], want, 0)
	}
}

func TestRunPattern(t *testing.T) {
	g := resolve(t, 64, 64)
	p := newPipeline(t, g, WithSegmentCount(2))

	generated, err := p.RunPattern(context.Background(), 256)
	if err != nil {
		t.Fatalf("RunPattern: %v", err)
	}
	pattern := make([]float32, 256)
	engine.SynthesizeTestPattern(pattern, 0)
	host, err := p.Run(context.Background(), pattern)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, generated.Data, host.Data, 0)
}

func TestRunInverseReconstructs(t *testing.T) {
	const segLen = 16
	bins := 1 + segLen/2
	samples := testutil.Noise[float32](8, 1, 4*segLen)

	fwd, err := newPipeline(t, resolve(t, segLen, 16), WithSpectrumDump()).Run(context.Background(), samples)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	re := make([]float32, len(fwd.Spectrum)/2)
	im := make([]float32, len(re))
	for k := range re {
		re[k], im[k] = fwd.Spectrum[2*k], fwd.Spectrum[2*k+1]
	}

	g := resolve(t, bins, 16, grid.WithBins(bins))
	if g.SegmentLength != segLen {
		t.Fatalf("inverse real length = %d, want %d", g.SegmentLength, segLen)
	}
	inv := newPipeline(t, g, WithDirection(engine.Inverse), WithOrder(band.Ascending), WithSegmentCount(2))
	res, err := inv.RunInverse(context.Background(), re, im)
	if err != nil {
		t.Fatalf("RunInverse: %v", err)
	}
	if res.Segments != 4 || res.Width != segLen {
		t.Fatalf("segments/width = %d/%d, want 4/%d", res.Segments, res.Width, segLen)
	}
	testutil.RequireSliceNearlyEqual(t, res.Data, samples, 1e-5)
}

func TestRunInverseScattersFlippedWindow(t *testing.T) {
	// Bins 1..3 of an 8-sample segment, highest first.
	g := resolve(t, 5, 8, grid.WithBins(5), grid.WithFmin(1), grid.WithFmax(3))
	inv := newPipeline(t, g, WithDirection(engine.Inverse))

	// Only channel 0 (bin 3) is set.
	res, err := inv.RunInverse(context.Background(), []float32{4, 0, 0}, nil)
	if err != nil {
		t.Fatalf("RunInverse: %v", err)
	}
	want := testutil.BinTone[float32](3, 8, 1, 8)
	testutil.RequireSliceNearlyEqual(t, res.Data, want, 1e-5)
}

func TestRunDirectionMismatch(t *testing.T) {
	p := newPipeline(t, resolve(t, 8, 8))
	if _, err := p.RunInverse(context.Background(), make([]float32, 5), nil); !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("RunInverse on forward pipeline err = %v", err)
	}
	inv := newPipeline(t, resolve(t, 5, 8, grid.WithBins(5)), WithDirection(engine.Inverse))
	if _, err := inv.Run(context.Background(), make([]float32, 8)); !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("Run on inverse pipeline err = %v", err)
	}
}

func TestNewPipelineRejectsIllegalLength(t *testing.T) {
	if _, err := NewPipeline(resolve(t, 22, 22)); !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestRunEngineFailureTearsDown(t *testing.T) {
	var opened []*faultyContext
	open := func() (engine.Context, error) {
		fc := newFaultyContext(t)
		fc.failExecute = true
		opened = append(opened, fc)
		return fc, nil
	}

	p := newPipeline(t, resolve(t, 8, 8), WithContextOpener(open))
	_, err := p.Run(context.Background(), make([]float32, 32))
	if !errors.Is(err, core.ErrTransform) {
		t.Fatalf("err = %v, want ErrTransform", err)
	}
	if len(opened) != 1 {
		t.Fatalf("opened %d contexts, want 1", len(opened))
	}
	if !opened[0].closed {
		t.Fatal("context not closed after failure")
	}
	opened[0].requireReleased(t)
}

func TestRunOpenFailure(t *testing.T) {
	open := func() (engine.Context, error) { return nil, errInjected }
	p := newPipeline(t, resolve(t, 8, 8), WithContextOpener(open))
	if _, err := p.Run(context.Background(), make([]float32, 8)); !errors.Is(err, errInjected) {
		t.Fatalf("err = %v, want injected fault", err)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := newPipeline(t, resolve(t, 8, 8))
	if _, err := p.Run(ctx, make([]float32, 64)); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRunShortInput(t *testing.T) {
	p := newPipeline(t, resolve(t, 8, 8), WithSegmentCount(4))
	res, err := p.Run(context.Background(), make([]float32, 20))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Segments != 0 || len(res.Data) != 0 || res.Dropped != 20 {
		t.Fatalf("result = %+v, want empty with 20 dropped", res)
	}
}

func TestRunTaperMatchesPretaperedInput(t *testing.T) {
	const segLen = 32
	g := resolve(t, segLen, 32)
	tp, err := window.NewTaper(window.TypeHann, segLen)
	if err != nil {
		t.Fatalf("NewTaper: %v", err)
	}
	samples := testutil.BinTone[float32](6, segLen, 1, 4*segLen)
	pre := make([]float32, len(samples))
	if err := tp.Apply(pre, samples); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	want, err := newPipeline(t, g, WithSegmentCount(2)).Run(context.Background(), pre)
	if err != nil {
		t.Fatalf("Run pretapered: %v", err)
	}
	got, err := newPipeline(t, g, WithSegmentCount(2), WithWorkers(2), WithTaper(tp)).Run(context.Background(), samples)
	if err != nil {
		t.Fatalf("Run tapered: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, got.Data, want.Data, 0)
	if samples[1] == pre[1] {
		t.Fatal("taper modified the caller's samples")
	}
}

func TestRunTaperSpreadsTone(t *testing.T) {
	const segLen = 32
	g := resolve(t, segLen, 32, grid.WithFmin(0), grid.WithFmax(16))
	tp, err := window.NewTaper(window.TypeHann, segLen)
	if err != nil {
		t.Fatalf("NewTaper: %v", err)
	}
	res, err := newPipeline(t, g, WithOrder(band.Ascending), WithTaper(tp)).
		Run(context.Background(), testutil.BinTone[float32](6, segLen, 1, segLen))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// A Hann taper halves the peak and leaks a quarter into each neighbour.
	peak := res.Data[6]
	if got := testutil.ArgMax(res.Data); got != 6 {
		t.Fatalf("peak at %d, want 6", got)
	}
	for _, k := range []int{5, 7} {
		if r := float64(res.Data[k] / peak); r < 0.49 || r > 0.51 {
			t.Fatalf("bin %d at %.3f of peak, want 0.5", k, r)
		}
	}
}

func TestNewPipelineRejectsTaperMismatch(t *testing.T) {
	tp, err := window.NewTaper(window.TypeHann, 16)
	if err != nil {
		t.Fatalf("NewTaper: %v", err)
	}
	g := resolve(t, 32, 32)
	if _, err := NewPipeline(g, WithTaper(tp)); !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("length mismatch: err = %v", err)
	}
	g16 := resolve(t, 16, 16)
	if _, err := NewPipeline(g16, WithTaper(tp), WithDirection(engine.Inverse)); !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("inverse taper: err = %v", err)
	}
}
