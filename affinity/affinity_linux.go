//go:build linux
// +build linux

package affinity

/*
#define _GNU_SOURCE
#include <sched.h>
#include <pthread.h>
#include <errno.h>

// go_setaffinity pins the calling thread to cpu via pthread_setaffinity_np.
int go_setaffinity(int cpu) {
	cpu_set_t set;
	CPU_ZERO(&set);
	CPU_SET(cpu, &set);
	return pthread_setaffinity_np(pthread_self(), sizeof(set), &set);
}
*/
import "C"
import "fmt"

// setAffinityPlatform pins the calling OS thread to cpuID on Linux. The
// public SetAffinity has already range-checked cpuID against
// runtime.NumCPU, so a nonzero return here is a genuine syscall failure
// (e.g. a cpuset restricting this process from cpuID).
func setAffinityPlatform(cpuID int) error {
	if ret := C.go_setaffinity(C.int(cpuID)); ret != 0 {
		return fmt.Errorf("affinity: pthread_setaffinity_np: errno %d", int(ret))
	}
	return nil
}
