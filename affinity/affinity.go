// Package affinity pins the calling OS thread to a logical CPU. The reactor's
// run loop is single-threaded and cooperative (see reactor package docs); on
// supported platforms, pinning it removes scheduler jitter from timer-deadline
// measurements. Platform-specific implementations live in separate files
// (affinity_linux.go, affinity_windows.go, affinity_stub.go) behind build tags.
package affinity

import (
	"fmt"
	"runtime"
)

// SetAffinity pins the current OS thread to cpuID. cpuID is checked
// against runtime.NumCPU() before touching the platform-specific
// implementation, so a caller that misreads its own CPU count gets
// ErrInvalidCPU instead of an unpredictable syscall failure. Returns
// ErrUnsupportedPlatform on platforms without a native implementation, or
// a wrapped error from the underlying syscall.
func SetAffinity(cpuID int) error {
	if n := runtime.NumCPU(); cpuID < 0 || cpuID >= n {
		return fmt.Errorf("%w: cpu %d, have %d logical cpus", ErrInvalidCPU, cpuID, n)
	}
	return setAffinityPlatform(cpuID)
}
