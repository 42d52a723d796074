//go:build amd64

package cpu

import "golang.org/x/sys/cpu"

// detectFlags lists x86 extensions in ascending width.
// SSE2 is part of the x86-64 baseline.
func detectFlags() []string {
	flags := []string{"SSE2"}
	if cpu.X86.HasAVX {
		flags = append(flags, "AVX")
	}
	if cpu.X86.HasAVX2 && cpu.X86.HasFMA {
		flags = append(flags, "AVX2")
	}
	if cpu.X86.HasAVX512F {
		flags = append(flags, "AVX-512")
	}
	return flags
}
