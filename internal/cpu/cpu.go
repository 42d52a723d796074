// Package cpu describes the host processor that the CPU transform
// backends run on. The description is reported as the device of a host
// engine context, in place of a GPU name and driver.
package cpu

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
)

// Features lists the vector extensions relevant to FFT throughput.
type Features struct {
	Architecture string
	Flags        []string
	Cores        int
}

// Best returns the widest vector extension found, or "generic".
func (f Features) Best() string {
	if len(f.Flags) == 0 {
		return "generic"
	}
	return f.Flags[len(f.Flags)-1]
}

// String renders e.g. "amd64 (AVX2, 16 cores)".
func (f Features) String() string {
	return fmt.Sprintf("%s (%s, %d cores)", f.Architecture, f.Best(), f.Cores)
}

// Has reports whether flag was detected.
func (f Features) Has(flag string) bool {
	for _, v := range f.Flags {
		if strings.EqualFold(v, flag) {
			return true
		}
	}
	return false
}

var detect = sync.OnceValue(func() Features {
	f := Features{
		Architecture: runtime.GOARCH,
		Cores:        runtime.NumCPU(),
	}
	f.Flags = detectFlags()
	return f
})

// Detect returns the cached host features.
func Detect() Features {
	return detect()
}
