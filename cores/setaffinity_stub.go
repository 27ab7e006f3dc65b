//go:build !linux || tinygo

// setaffinity_stub.go
//
// No-op affinity for platforms without sched_setaffinity(2). Cores still get
// their own locked OS thread; placement is left to the OS.

package cores

func setAffinity(int) {}

func allowedCPUs() []int { return nil }
