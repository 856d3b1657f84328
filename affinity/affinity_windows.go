//go:build windows
// +build windows

package affinity

import (
	"fmt"
	"syscall"
)

// setAffinityPlatform pins the calling OS thread to cpuID on Windows via
// SetThreadAffinityMask. The public SetAffinity has already range-checked
// cpuID against runtime.NumCPU.
func setAffinityPlatform(cpuID int) error {
	kernel32 := syscall.NewLazyDLL("kernel32.dll")
	procSetThreadAffinityMask := kernel32.NewProc("SetThreadAffinityMask")
	procGetCurrentThread := kernel32.NewProc("GetCurrentThread")

	hThread, _, _ := procGetCurrentThread.Call()
	mask := uintptr(1) << uint(cpuID)
	ret, _, callErr := procSetThreadAffinityMask.Call(hThread, mask)
	if ret == 0 {
		return fmt.Errorf("affinity: SetThreadAffinityMask: %w", callErr)
	}
	return nil
}
