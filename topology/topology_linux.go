//go:build linux

package topology

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// affinityCount counts the CPUs in the calling thread's affinity mask.
func affinityCount() (int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return 0, fmt.Errorf("topology: sched_getaffinity: %w", err)
	}
	return set.Count(), nil
}

// placement reads package and core ids from sysfs; -1 when absent.
func placement(logicalCPU int) (int, int) {
	dir := "/sys/devices/system/cpu/cpu" + strconv.Itoa(logicalCPU) + "/topology/"
	return readID(dir + "physical_package_id"), readID(dir + "core_id")
}

func readID(path string) int {
	b, err := os.ReadFile(path)
	if err != nil {
		return -1
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return -1
	}
	return v
}
