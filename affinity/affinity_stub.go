//go:build !linux && !windows
// +build !linux,!windows

package affinity

// setAffinityPlatform is a stub for platforms with no affinity
// implementation here.
func setAffinityPlatform(cpuID int) error {
	return ErrUnsupportedPlatform
}
