package core

import "fmt"

// ProcessorConfig defines the segmentation of one channelization run.
type ProcessorConfig struct {
	SampleRate    float64
	SegmentLength int
	SegmentCount  int
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns one segment of 1024 samples per batch at unit rate.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		SampleRate:    1,
		SegmentLength: 1024,
		SegmentCount:  1,
	}
}

// WithSampleRate sets the input sample rate.
func WithSampleRate(sampleRate float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithSegmentLength sets the number of samples per transform segment.
func WithSegmentLength(n int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if n > 0 {
			cfg.SegmentLength = n
		}
	}
}

// WithSegmentCount sets the number of segments per transform call.
func WithSegmentCount(n int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if n > 0 {
			cfg.SegmentCount = n
		}
	}
}

// ApplyProcessorOptions applies zero or more options to the default config.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// BatchLength returns SegmentLength*SegmentCount.
func (c ProcessorConfig) BatchLength() int {
	return c.SegmentLength * c.SegmentCount
}

// Validate checks the config against the transform-length rule.
func (c ProcessorConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be > 0: %g", ErrConfiguration, c.SampleRate)
	}
	if c.SegmentCount < 1 {
		return fmt.Errorf("%w: segment count must be >= 1: %d", ErrConfiguration, c.SegmentCount)
	}
	if !LegalTransformLength(c.SegmentLength) {
		return fmt.Errorf("%w: unsupported transform length %d (must factor into 2, 3, 5, 7)",
			ErrConfiguration, c.SegmentLength)
	}
	return nil
}
