//go:build unix

// mmap_unix.go - anonymous-mapping page source

package pages

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Mmap allocates pages from private anonymous mappings.
type Mmap struct{}

// AllocatePages maps count pages read/write. On Linux the mapping is
// pre-faulted (see populateFlag) so no page fault lands inside a measurement.
func (Mmap) AllocatePages(count int) ([]byte, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadCount, count)
	}
	b, err := unix.Mmap(-1, 0, Bytes(count),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON|populateFlag)
	if err != nil {
		return nil, fmt.Errorf("pages: mmap %d pages: %w", count, err)
	}
	return b, nil
}

// Free unmaps a buffer returned by Mmap.AllocatePages.
func (Mmap) Free(b []byte) error {
	return unix.Munmap(b)
}

// Default returns the allocator the payload uses on this platform.
func Default() Allocator {
	return Mmap{}
}

// SystemPageSize reports the kernel's page size, which may exceed PageSize.
func SystemPageSize() int {
	return unix.Getpagesize()
}
