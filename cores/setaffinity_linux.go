//go:build linux && !tinygo

// setaffinity_linux.go
//
// Linux binding for sched_setaffinity(2) that pins **this** OS thread to a
// single logical CPU. Errors are swallowed: inside a container or a tight
// cgroup the call may be refused, and the fallback is simply "no pin".

package cores

import "golang.org/x/sys/unix"

// setAffinity pins the current thread to cpu.
func setAffinity(cpu int) {
	var set unix.CPUSet
	set.Set(cpu)
	_ = unix.SchedSetaffinity(0, &set)
}

// allowedCPUs lists the CPUs in the process affinity mask in ascending order.
func allowedCPUs() []int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil
	}
	var out []int
	for cpu := 0; cpu < len(set)*64 && len(out) < set.Count(); cpu++ {
		if set.IsSet(cpu) {
			out = append(out, cpu)
		}
	}
	return out
}
