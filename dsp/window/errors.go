package window

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-filterbank/dsp/core"
)

var (
	// ErrUnknownType reports an unsupported window name or Type.
	ErrUnknownType = fmt.Errorf("%w: unknown window", core.ErrConfiguration)

	// ErrLength reports a non-positive window length.
	ErrLength = fmt.Errorf("%w: window length must be > 0", core.ErrConfiguration)

	// ErrZeroCoherentGain reports a window whose coefficients sum to zero.
	ErrZeroCoherentGain = errors.New("window coherent gain is zero")

	errMismatchedLength = errors.New("window: samples are not a whole number of segments")
)
