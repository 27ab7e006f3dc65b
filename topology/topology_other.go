//go:build !linux

package topology

import "runtime"

func affinityCount() (int, error) {
	return runtime.NumCPU(), nil
}

func placement(int) (int, int) {
	return -1, -1
}
