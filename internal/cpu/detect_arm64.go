//go:build arm64

package cpu

import "golang.org/x/sys/cpu"

// detectFlags lists ARM extensions; ASIMD (NEON) is mandatory on ARMv8.
func detectFlags() []string {
	var flags []string
	if cpu.ARM64.HasASIMD {
		flags = append(flags, "NEON")
	}
	if cpu.ARM64.HasSVE {
		flags = append(flags, "SVE")
	}
	return flags
}
