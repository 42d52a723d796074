// Command filterbank channelizes baseband samples into a filterbank, or
// reconstructs samples from one with --inverse.
//
// Usage:
//
//	filterbank [flags] [input-file]
//
// Examples:
//
//	filterbank --nsamp_seg 1024 --seg_count 16 --sample_rate 1e6 baseband.bin
//	filterbank --nsamp_seg 4096 --sample_rate 2e6 --fmin 1e5 --fmax 4e5 --out_text -o fil.txt baseband.bin
//	filterbank --nsamp_seg 513 --sample_rate 1e6 --inverse --no_flip -o wave.bin padded.bin
//	filterbank --nsamp_seg 1024 --sample_rate 1e6 --window hann --window_normalize baseband.bin
//	filterbank --nsamp_seg 1024 --sample_rate 1 --generate 1048576
//	filterbank --list_backends
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-filterbank/dsp/band"
	"github.com/cwbudde/algo-filterbank/dsp/channelize"
	"github.com/cwbudde/algo-filterbank/dsp/core"
	"github.com/cwbudde/algo-filterbank/dsp/engine"
	"github.com/cwbudde/algo-filterbank/dsp/grid"
	"github.com/cwbudde/algo-filterbank/dsp/window"
	"github.com/cwbudde/algo-filterbank/internal/benchmark"
	"github.com/cwbudde/algo-filterbank/internal/logging"
	"github.com/cwbudde/algo-filterbank/vecio"
)

type options struct {
	nsampSeg     int
	segCount     int
	inputFile    string
	outputFile   string
	sampleRate   float64
	fmin         float64
	fmax         float64
	hasFmax      bool
	inText       bool
	outText      bool
	wav          bool
	inverse      bool
	complexIn    bool
	noFlip       bool
	window       string
	kaiserBeta   float64
	windowNorm   bool
	taper        window.Type
	backend      string
	device       int
	workers      int
	generate     int
	spectrumOut  string
	logLevel     string
	timing       bool
	listBackends bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "filterbank [flags] [input-file]",
		Short: "Channelize baseband samples into a filterbank",
		Long: `filterbank splits a baseband recording into segments of nsamp_seg samples,
transforms seg_count segments per batch and writes the magnitude of the bins
between fmin and fmax, one row per segment, highest frequency first unless
--no_flip is given.

With --inverse the input holds rows of channels (nsamp_seg is then the bin
count of a half spectrum) and the output is the reconstructed waveform.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				o.inputFile = args[0]
			}
			log := newLogger(stdout, stderr)
			if o.listBackends {
				return listBackends(stdout)
			}
			if err := o.check(cmd); err != nil {
				_ = cmd.Usage()
				return err
			}
			level, err := logging.ParseLevel(o.logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(level)
			return execute(cmd.Context(), &o, log, stdout)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.IntVar(&o.nsampSeg, "nsamp_seg", 0, "number of samples per transform segment (bins per segment with --inverse)")
	f.IntVar(&o.segCount, "seg_count", 1, "number of segments per transform batch")
	f.StringVarP(&o.inputFile, "input_file", "f", "", "input file")
	f.StringVarP(&o.outputFile, "output_file", "o", "filterbank.out", "output file")
	f.Float64Var(&o.sampleRate, "sample_rate", 0, "input sample rate in Hz")
	f.Float64Var(&o.fmin, "fmin", 0, "lowest frequency to keep")
	f.Float64Var(&o.fmax, "fmax", 0, "highest frequency to keep (default Nyquist)")
	f.BoolVar(&o.inText, "in_text", false, "read the input file as text")
	f.BoolVar(&o.outText, "out_text", false, "write output files as text")
	f.BoolVar(&o.wav, "wav", false, "read the input file as WAV")
	f.BoolVar(&o.inverse, "inverse", false, "reconstruct samples from a filterbank")
	f.BoolVar(&o.complexIn, "complex_input", false, "with --inverse, input rows are interleaved (re, im) pairs")
	f.BoolVar(&o.noFlip, "no_flip", false, "order channels by ascending frequency")
	f.StringVar(&o.window, "window", "rectangular", "taper applied to each segment before the transform ("+windowNames()+")")
	f.Float64Var(&o.kaiserBeta, "kaiser_beta", window.DefaultKaiserBeta, "shape parameter of the kaiser window")
	f.BoolVar(&o.windowNorm, "window_normalize", false, "scale the taper to unit coherent gain")
	f.StringVar(&o.backend, "backend", engine.DefaultBackend, "transform engine backend")
	f.IntVar(&o.device, "device", 0, "device index on the backend")
	f.IntVar(&o.workers, "workers", 1, "number of concurrent engines")
	f.IntVar(&o.generate, "generate", 0, "channelize this many samples of the synthetic test pattern instead of reading input")
	f.StringVar(&o.spectrumOut, "spectrum_out", "", "also write the full complex spectrum and magnitude to files with this prefix")
	f.StringVar(&o.logLevel, "log_level", "info", "log level (debug, info, warn, error)")
	f.BoolVar(&o.timing, "timing", false, "print stage timings")
	f.BoolVar(&o.listBackends, "list_backends", false, "list transform engine backends and exit")
	return cmd
}

func windowNames() string {
	var names []string
	for _, t := range window.Types() {
		names = append(names, t.String())
	}
	return strings.Join(names, ", ")
}

func newLogger(stdout, stderr io.Writer) logging.Logger {
	if stdout == os.Stdout && stderr == os.Stderr {
		return logging.NewDefaultLogger()
	}
	return logging.NewWriterLogger(stdout, stderr)
}

// check reports missing or conflicting parameters.
func (o *options) check(cmd *cobra.Command) error {
	var missing []string
	if o.nsampSeg <= 0 {
		missing = append(missing, "--nsamp_seg")
	}
	if o.inputFile == "" && o.generate <= 0 {
		missing = append(missing, "--input_file")
	}
	if o.sampleRate <= 0 && !o.wav {
		missing = append(missing, "--sample_rate")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", core.ErrConfiguration, missing)
	}
	realLen := o.nsampSeg
	if o.inverse {
		realLen = 2 * (o.nsampSeg - 1)
	}
	if !core.LegalTransformLength(realLen) {
		return fmt.Errorf("%w: unsupported transform length %d (must factor into 2, 3, 5, 7)", core.ErrConfiguration, realLen)
	}
	if o.generate > 0 && o.inverse {
		return fmt.Errorf("%w: --generate cannot be combined with --inverse", core.ErrConfiguration)
	}
	if o.complexIn && !o.inverse {
		return fmt.Errorf("%w: --complex_input requires --inverse", core.ErrConfiguration)
	}
	taper, err := window.Parse(o.window)
	if err != nil {
		return err
	}
	if taper != window.TypeRectangular && o.inverse {
		return fmt.Errorf("%w: --window cannot be combined with --inverse", core.ErrConfiguration)
	}
	o.taper = taper
	o.hasFmax = cmd.Flags().Changed("fmax")
	return nil
}

func (o *options) gridOptions() []grid.Option {
	opts := []grid.Option{grid.WithFmin(o.fmin)}
	if o.hasFmax {
		opts = append(opts, grid.WithFmax(o.fmax))
	}
	if o.inverse {
		opts = append(opts, grid.WithBins(o.nsampSeg))
	}
	return opts
}

func execute(ctx context.Context, o *options, log logging.Logger, stdout io.Writer) error {
	// The grid is resolved before any input is read unless the sample
	// rate comes from the WAV header.
	var (
		g   grid.Grid[float32]
		err error
	)
	if o.sampleRate > 0 {
		if g, err = o.resolveGrid(); err != nil {
			return err
		}
	}
	samples, err := o.readInput(log)
	if err != nil {
		return err
	}
	if g.Bins == 0 {
		if g, err = o.resolveGrid(); err != nil {
			return err
		}
	}

	if b, err := engine.Lookup(o.backend); err == nil {
		if devs, err := b.Devices(); err == nil && o.device < len(devs) {
			log.Info(fmt.Sprintf("Using device %s on platform %s", devs[o.device].Name, devs[o.device].Platform),
				logging.Fields{"compute": devs[o.device].ComputeCap})
		}
	}

	var timers *benchmark.Timers
	if o.timing {
		timers = benchmark.New()
	}
	direction := engine.Forward
	if o.inverse {
		direction = engine.Inverse
	}
	opts := []channelize.PipelineOption{
		channelize.WithSegmentCount(o.segCount),
		channelize.WithDirection(direction),
		channelize.WithOrder(band.OrderFor(o.noFlip)),
		channelize.WithWorkers(o.workers),
		channelize.WithBackend(o.backend, o.device),
		channelize.WithLogger(log),
		channelize.WithTimers(timers),
	}
	if o.spectrumOut != "" {
		opts = append(opts, channelize.WithSpectrumDump())
	}
	if o.taper != window.TypeRectangular {
		var wopts []window.Option
		if o.windowNorm {
			wopts = append(wopts, window.WithNormalize())
		}
		tp, err := window.NewTaper(o.taper, o.nsampSeg, append(wopts, window.WithBeta(o.kaiserBeta))...)
		if err != nil {
			return err
		}
		opts = append(opts, channelize.WithTaper(tp))
	}
	p, err := channelize.NewPipeline(g, opts...)
	if err != nil {
		return err
	}

	var res *channelize.Result
	switch {
	case o.generate > 0:
		res, err = p.RunPattern(ctx, o.generate)
	case o.inverse:
		re, im := samples, []float32(nil)
		if o.complexIn {
			re, im = deinterleave(samples)
		}
		res, err = p.RunInverse(ctx, re, im)
	default:
		res, err = p.Run(ctx, samples)
	}
	if err != nil {
		return err
	}

	write := timers.Stage("write")
	write.Start()
	if err := vecio.WriteVectorAs(res.Data, res.Width, res.Segments, o.outputFile, o.outText); err != nil {
		return err
	}
	if o.spectrumOut != "" {
		if err := writeSpectrum(o, g.Bins, res); err != nil {
			return err
		}
	}
	if err := write.Stop(nil); err != nil {
		return err
	}

	log.Info("wrote output", logging.Fields{"file": o.outputFile, "rows": res.Segments, "width": res.Width})
	if o.timing {
		fmt.Fprintln(stdout, timers.String())
	}
	return nil
}

func (o *options) resolveGrid() (grid.Grid[float32], error) {
	return grid.Resolve(o.nsampSeg, float32(o.sampleRate), o.gridOptions()...)
}

func (o *options) readInput(log logging.Logger) ([]float32, error) {
	if o.generate > 0 {
		return nil, nil
	}
	if !o.wav {
		return vecio.ReadSamples(o.inputFile, o.inText)
	}
	samples, info, err := vecio.ReadWAV(o.inputFile)
	if err != nil {
		return nil, err
	}
	if info.Channels != 1 {
		log.Warn("WAV input is not mono, channels are processed interleaved", logging.Fields{"channels": info.Channels})
	}
	if o.sampleRate <= 0 {
		o.sampleRate = float64(info.SampleRate)
	}
	return samples, nil
}

func deinterleave(pairs []float32) (re, im []float32) {
	n := len(pairs) / 2
	re, im = make([]float32, n), make([]float32, n)
	for i := range n {
		re[i], im[i] = pairs[2*i], pairs[2*i+1]
	}
	return re, im
}

func writeSpectrum(o *options, bins int, res *channelize.Result) error {
	if res.Spectrum == nil {
		return errors.New("spectrum dump requested but not produced")
	}
	complexPath := o.spectrumOut + "-complex"
	if err := vecio.WriteVectorAs(res.Spectrum, 2*bins, res.Segments, complexPath, o.outText); err != nil {
		return err
	}
	return vecio.WriteVectorAs(res.Magnitude, bins, res.Segments, o.spectrumOut+"-magnitude", o.outText)
}

func listBackends(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPRECISION\tDEVICE\tDESCRIPTION")
	for _, name := range engine.Names() {
		b, err := engine.Lookup(name)
		if err != nil {
			return err
		}
		info := b.Info()
		dev := "-"
		if devs, err := b.Devices(); err == nil && len(devs) > 0 {
			dev = devs[0].ComputeCap
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Name, info.Precision, dev, info.Description)
	}
	return tw.Flush()
}
