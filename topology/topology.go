// Package topology answers the coordinator core's identification query:
// which logical CPU it runs on, where that CPU sits in the package/core
// hierarchy and which instruction-set features the machine reports.
package topology

import (
	"strings"
	"unsafe"

	"golang.org/x/sys/cpu"

	"smpbench/utils"
)

// Topology is the answer to one identification query.
type Topology struct {
	LogicalCPU   int      `json:"logical_cpu"`
	AffinityCPUs int      `json:"affinity_cpus"` // CPUs the process may run on
	Package      int      `json:"package"`       // -1 when unknown
	CoreID       int      `json:"core_id"`       // -1 when unknown
	CacheLine    int      `json:"cache_line"`
	Features     []string `json:"features"`
}

// String renders a one-line summary for the console.
func (t Topology) String() string {
	return "cpu " + utils.Itoa(t.LogicalCPU) +
		" package " + utils.Itoa(t.Package) +
		" core " + utils.Itoa(t.CoreID) +
		" of " + utils.Itoa(t.AffinityCPUs) +
		" cpus, line " + utils.Itoa(t.CacheLine) + "B [" + strings.Join(t.Features, " ") + "]"
}

// Query identifies logicalCPU. The caller is normally pinned to it.
func Query(logicalCPU int) (Topology, error) {
	t := Topology{
		LogicalCPU: logicalCPU,
		Package:    -1,
		CoreID:     -1,
		CacheLine:  int(unsafe.Sizeof(cpu.CacheLinePad{})),
		Features:   features(),
	}
	n, err := affinityCount()
	if err != nil {
		return t, err
	}
	t.AffinityCPUs = n
	t.Package, t.CoreID = placement(logicalCPU)
	return t, nil
}

func features() []string {
	var out []string
	add := func(ok bool, name string) {
		if ok {
			out = append(out, name)
		}
	}
	add(cpu.X86.HasSSE42, "sse4.2")
	add(cpu.X86.HasAVX, "avx")
	add(cpu.X86.HasAVX2, "avx2")
	add(cpu.X86.HasAVX512F, "avx512f")
	add(cpu.X86.HasERMS, "erms")
	add(cpu.ARM64.HasASIMD, "asimd")
	add(cpu.ARM64.HasATOMICS, "lse")
	return out
}
