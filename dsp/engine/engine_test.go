package engine

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/cwbudde/algo-filterbank/internal/testutil"
)

func openHost(t *testing.T, name string) (Context, Queue) {
	t.Helper()
	ctx, err := Open(name, 0)
	if err != nil {
		t.Fatalf("Open(%q): %v", name, err)
	}
	t.Cleanup(func() { _ = ctx.Close() })
	q, err := ctx.NewQueue()
	if err != nil {
		t.Fatalf("NewQueue: %v", err)
	}
	t.Cleanup(func() { _ = q.Close() })
	return ctx, q
}

func newBuffer(t *testing.T, ctx Context, data []float32) Buffer {
	t.Helper()
	b, err := ctx.NewBuffer(len(data))
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	if err := b.Upload(data); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	return b
}

// forward runs a batched forward transform and returns the interleaved
// spectrum.
func forward(t *testing.T, name string, length, batch int, samples []float32) []float32 {
	t.Helper()
	ctx, q := openHost(t, name)
	spec := PlanSpec{Length: length, Batch: batch, Direction: Forward}
	plan, err := ctx.NewPlan(spec, q)
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	defer plan.Close()

	in := newBuffer(t, ctx, samples)
	out, _ := ctx.NewBuffer(plan.Spec().OutputLen())
	if err := plan.Execute([]Buffer{in}, out); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := q.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	spectrum := make([]float32, out.Len())
	if err := out.Download(spectrum); err != nil {
		t.Fatalf("Download: %v", err)
	}
	return spectrum
}

func TestRegistry(t *testing.T) {
	names := Names()
	for _, want := range []string{"algofft", "gonum", "godsp"} {
		if !slices.Contains(names, want) {
			t.Fatalf("Names() = %v, missing %q", names, want)
		}
	}

	b, err := Lookup("")
	if err != nil {
		t.Fatalf("Lookup default: %v", err)
	}
	if b.Info().Name != DefaultBackend {
		t.Fatalf("default backend = %q, want %q", b.Info().Name, DefaultBackend)
	}

	if _, err := Lookup("cuda"); !errors.Is(err, ErrNoBackend) {
		t.Fatalf("Lookup unknown err = %v, want ErrNoBackend", err)
	}
	if _, err := Open("algofft", 3); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("Open bad device err = %v, want ErrBackendUnavailable", err)
	}
}

func TestDevices(t *testing.T) {
	b, err := Lookup("gonum")
	if err != nil {
		t.Fatal(err)
	}
	devs, err := b.Devices()
	if err != nil {
		t.Fatalf("Devices: %v", err)
	}
	if len(devs) != 1 || devs[0].Name != "host" || devs[0].Platform != "gonum" {
		t.Fatalf("Devices = %+v", devs)
	}
}

func TestPlanSpecDefaults(t *testing.T) {
	fwd := PlanSpec{Length: 8, Batch: 3}.WithDefaults()
	if fwd.InDistance != 8 || fwd.OutDistance != 5 {
		t.Fatalf("forward distances = %d/%d, want 8/5", fwd.InDistance, fwd.OutDistance)
	}
	if fwd.InputLen() != 24 || fwd.OutputLen() != 30 {
		t.Fatalf("forward lens = %d/%d, want 24/30", fwd.InputLen(), fwd.OutputLen())
	}

	inv := PlanSpec{Length: 8, Batch: 3, Direction: Inverse}.WithDefaults()
	if inv.InDistance != 5 || inv.OutDistance != 8 {
		t.Fatalf("inverse distances = %d/%d, want 5/8", inv.InDistance, inv.OutDistance)
	}
	if inv.InputLen() != 15 || inv.OutputLen() != 24 {
		t.Fatalf("inverse lens = %d/%d, want 15/24", inv.InputLen(), inv.OutputLen())
	}
}

func TestPlanSpecValidate(t *testing.T) {
	cases := []PlanSpec{
		{Length: 0, Batch: 1},
		{Length: 8, Batch: 0},
		{Length: 8, Batch: 1, InDistance: 4, OutDistance: 5},
		{Length: 8, Batch: 1, Direction: Inverse, InDistance: 5, OutDistance: 7},
	}
	for _, c := range cases {
		if err := c.Validate(); !errors.Is(err, ErrInvalidPlan) {
			t.Fatalf("Validate(%+v) = %v, want ErrInvalidPlan", c, err)
		}
	}
}

func TestForwardZeros(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			spectrum := forward(t, name, 8, 1, make([]float32, 8))
			if len(spectrum) != 10 {
				t.Fatalf("spectrum len = %d, want 10", len(spectrum))
			}
			for i, v := range spectrum {
				if v != 0 {
					t.Fatalf("spectrum[%d] = %v, want 0", i, v)
				}
			}
		})
	}
}

func TestForwardBinTone(t *testing.T) {
	const (
		length = 16
		batch  = 3
		bin    = 5
	)
	samples := testutil.BinTone[float32](bin, length, 1, length*batch)

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			spectrum := forward(t, name, length, batch, samples)
			m := 1 + length/2
			mag := make([]float32, m)
			for b := range batch {
				ComplexMagnitude(mag, spectrum[2*b*m:2*(b+1)*m])
				if got := testutil.ArgMax(mag); got != bin {
					t.Fatalf("segment %d peak at bin %d, want %d", b, got, bin)
				}
				if math.Abs(float64(mag[bin])-length/2) > 1e-3 {
					t.Fatalf("segment %d peak = %v, want %v", b, mag[bin], length/2)
				}
			}
		})
	}
}

func TestBackendsAgree(t *testing.T) {
	// 12 exercises the non power-of-two paths.
	for _, length := range []int{16, 12} {
		samples := testutil.Noise[float32](7, 1, 2*length)
		ref := forward(t, "gonum", length, 2, samples)
		for _, name := range []string{"algofft", "godsp"} {
			got := forward(t, name, length, 2, samples)
			d, err := testutil.MaxAbsDiff(got, ref)
			if err != nil {
				t.Fatal(err)
			}
			if d > 1e-4 {
				t.Fatalf("length %d: %s differs from gonum by %v", length, name, d)
			}
		}
	}
}

func TestRoundTrip(t *testing.T) {
	const (
		length = 16
		batch  = 2
	)
	m := 1 + length/2
	samples := testutil.Noise[float32](3, 1, length*batch)

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			spectrum := forward(t, name, length, batch, samples)
			re := make([]float32, m*batch)
			im := make([]float32, m*batch)
			for i := range re {
				re[i] = spectrum[2*i]
				im[i] = spectrum[2*i+1]
			}

			ctx, q := openHost(t, name)
			plan, err := ctx.NewPlan(PlanSpec{Length: length, Batch: batch, Direction: Inverse}, q)
			if err != nil {
				t.Fatalf("NewPlan: %v", err)
			}
			defer plan.Close()

			out, _ := ctx.NewBuffer(length * batch)
			err = plan.Execute([]Buffer{newBuffer(t, ctx, re), newBuffer(t, ctx, im)}, out)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			got := make([]float32, length*batch)
			if err := out.Download(got); err != nil {
				t.Fatal(err)
			}
			testutil.RequireSliceNearlyEqual(t, got, samples, 1e-5)
		})
	}
}

func TestExecuteChecks(t *testing.T) {
	ctx, q := openHost(t, "algofft")
	plan, err := ctx.NewPlan(PlanSpec{Length: 8, Batch: 2}, q)
	if err != nil {
		t.Fatal(err)
	}

	small, _ := ctx.NewBuffer(4)
	out, _ := ctx.NewBuffer(plan.Spec().OutputLen())
	if err := plan.Execute([]Buffer{small}, out); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("short input err = %v, want ErrLengthMismatch", err)
	}

	other, _ := openHost(t, "algofft")
	foreign, _ := other.NewBuffer(16)
	if err := plan.Execute([]Buffer{foreign}, out); !errors.Is(err, ErrForeignObject) {
		t.Fatalf("foreign input err = %v, want ErrForeignObject", err)
	}

	in, _ := ctx.NewBuffer(16)
	_ = plan.Close()
	if err := plan.Execute([]Buffer{in}, out); !errors.Is(err, ErrClosed) {
		t.Fatalf("closed plan err = %v, want ErrClosed", err)
	}
}

func TestClosedObjects(t *testing.T) {
	ctx, q := openHost(t, "algofft")
	b, _ := ctx.NewBuffer(4)
	_ = b.Close()
	if err := b.Upload([]float32{1}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Upload after Close err = %v, want ErrClosed", err)
	}

	_ = q.Close()
	if err := q.Finish(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Finish after Close err = %v, want ErrClosed", err)
	}

	_ = ctx.Close()
	if _, err := ctx.NewBuffer(4); !errors.Is(err, ErrClosed) {
		t.Fatalf("NewBuffer after Close err = %v, want ErrClosed", err)
	}
}
