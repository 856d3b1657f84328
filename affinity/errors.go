package affinity

import "errors"

var (
	// ErrInvalidCPU is returned when the requested cpuID is outside the
	// range of logical CPUs runtime.NumCPU reports for this process.
	ErrInvalidCPU = errors.New("affinity: cpu id out of range")

	// ErrUnsupportedPlatform is returned on a GOOS with no affinity
	// implementation.
	ErrUnsupportedPlatform = errors.New("affinity: not supported on this platform")
)
