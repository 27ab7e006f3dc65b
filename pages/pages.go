// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: pages.go - Whole-page allocator collaborator
//
// Purpose:
//   - Hands out buffers sized in whole pages (constants.PageSize).
//   - On Linux pages come straight from anonymous mmap with MAP_POPULATE, so
//     they are resident before the benchmark touches them.
//
// Notes:
//   - Contents are not assumed zeroed; callers clear what they publish.
//   - Buffers are never returned by the payload (leaked at shutdown);
//     Free exists for tests and tools.
// ─────────────────────────────────────────────────────────────────────────────

package pages

import (
	"errors"
	"fmt"

	"smpbench/constants"
)

// ErrBadCount is returned for non-positive page counts.
var ErrBadCount = errors.New("pages: page count must be positive")

// Allocator hands out page-granular buffers.
type Allocator interface {
	AllocatePages(count int) ([]byte, error)
}

// Bytes returns the size in bytes of count pages.
func Bytes(count int) int {
	return count * constants.PageSize
}

// For returns how many pages cover n bytes.
func For(n int) int {
	return (n + constants.PageSize - 1) / constants.PageSize
}

// Heap allocates from the Go heap. Used where mmap is unavailable and in
// tests that want allocation without syscalls.
type Heap struct{}

// AllocatePages returns count zeroed pages from the Go heap.
func (Heap) AllocatePages(count int) ([]byte, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadCount, count)
	}
	return make([]byte, Bytes(count)), nil
}

// Clear zeroes b.
//
//go:nosplit
func Clear(b []byte) {
	clear(b)
}

// Fill stamps every byte of b with v.
func Fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}
