//go:build !unix

package pages

import "os"

// Default returns the heap allocator on platforms without mmap.
func Default() Allocator {
	return Heap{}
}

// SystemPageSize reports the runtime's notion of the page size.
func SystemPageSize() int {
	return os.Getpagesize()
}
