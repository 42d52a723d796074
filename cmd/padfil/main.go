// Command padfil remaps a filterbank onto a finer, evenly spaced frequency
// grid starting at 0 Hz, filling bins without an input channel with a pad
// value. With --pad_imaginary_part the output is a complex half spectrum
// that filterbank --inverse --complex_input --no_flip can turn back into a
// waveform.
//
// Usage:
//
//	padfil [flags] [input-file]
//
// Examples:
//
//	padfil --fmax 400 --df 0.5 --nchans 512 --epsilon 1e-3 -o padded.bin fil.bin
//	padfil --fmax 400 --df 0.5 --nchans 512 --epsilon 1e-3 --fmax_out 500 --pad_imaginary_part -o padded.bin fil.bin
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-filterbank/dsp/core"
	"github.com/cwbudde/algo-filterbank/dsp/remap"
	"github.com/cwbudde/algo-filterbank/internal/logging"
	"github.com/cwbudde/algo-filterbank/vecio"
)

type options struct {
	samples    int
	inputFile  string
	outputFile string
	inText     bool
	outText    bool
	fmax       float64
	df         float64
	nchans     int
	epsilon    float64
	fmaxOut    float64
	padReal    float32
	padImag    bool
	padImagVal float32
	logLevel   string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "padfil [flags] [input-file]",
		Short: "Pad a filterbank onto a finer frequency grid",
		Long: `padfil reads samples_count rows of nchans channels, channel i at
fmax - df*i, and writes rows of round(fmax_out/out_df)+1 bins where out_df is
the approximate GCD of fmax and df. Bin k of an output row is k*out_df Hz.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				o.inputFile = args[0]
			}
			if err := o.check(); err != nil {
				_ = cmd.Usage()
				return err
			}
			log := newLogger(stdout, stderr)
			level, err := logging.ParseLevel(o.logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(level)
			return execute(&o, log)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.IntVar(&o.samples, "samples_count", 0, "number of rows in the input (default: input length / nchans)")
	f.StringVarP(&o.inputFile, "input_file", "f", "", "input file")
	f.StringVarP(&o.outputFile, "output_file", "o", "", "output file")
	f.BoolVar(&o.inText, "in_text", false, "read the input file as text")
	f.BoolVar(&o.outText, "out_text", false, "write the output file as text")
	f.Float64Var(&o.fmax, "fmax", 0, "frequency of input channel 0")
	f.Float64Var(&o.df, "df", 0, "input channel bandwidth")
	f.IntVar(&o.nchans, "nchans", 0, "number of channels in the input")
	f.Float64Var(&o.epsilon, "epsilon", 0, "minimal channel bandwidth of the output")
	f.Float64Var(&o.fmaxOut, "fmax_out", 0, "top output frequency (default fmax)")
	f.Float32Var(&o.padReal, "pad_value", 0, "value of padded bins")
	f.BoolVar(&o.padImag, "pad_imaginary_part", false, "write interleaved (re, im) pairs")
	f.Float32Var(&o.padImagVal, "pad_value_imaginary", 0, "imaginary part of every output bin")
	f.StringVar(&o.logLevel, "log_level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func newLogger(stdout, stderr io.Writer) logging.Logger {
	if stdout == os.Stdout && stderr == os.Stderr {
		return logging.NewDefaultLogger()
	}
	return logging.NewWriterLogger(stdout, stderr)
}

func (o *options) check() error {
	var missing []string
	if o.inputFile == "" {
		missing = append(missing, "--input_file")
	}
	if o.outputFile == "" {
		missing = append(missing, "--output_file")
	}
	if o.fmax == 0 {
		missing = append(missing, "--fmax")
	}
	if o.df == 0 {
		missing = append(missing, "--df")
	}
	if o.nchans == 0 {
		missing = append(missing, "--nchans")
	}
	if o.epsilon == 0 {
		missing = append(missing, "--epsilon")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", core.ErrConfiguration, missing)
	}
	return nil
}

func execute(o *options, log logging.Logger) error {
	plan, err := remap.NewPlan(remap.Config{
		FmaxIn:   o.fmax,
		DFIn:     o.df,
		NChans:   o.nchans,
		Epsilon:  o.epsilon,
		FmaxOut:  o.fmaxOut,
		PadValue: o.padReal,
		Logger:   log,
	})
	if err != nil {
		return err
	}

	in, err := vecio.ReadSamples(o.inputFile, o.inText)
	if err != nil {
		return err
	}
	samples := o.samples
	if samples == 0 {
		samples = len(in) / o.nchans
	}

	res, err := plan.Pad(in, samples)
	if err != nil {
		return err
	}

	data, width := res.Data, res.Width
	if o.padImag {
		data, width = res.Complex(o.padImagVal), 2*res.Width
	}
	if err := vecio.WriteVectorAs(data, width, res.Samples, o.outputFile, o.outText); err != nil {
		return err
	}
	log.Info("wrote output", logging.Fields{
		"file":    o.outputFile,
		"rows":    res.Samples,
		"width":   width,
		"skipped": res.Skipped,
	})
	return nil
}
