package memmap

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Multiboot info flag bits this package understands.
const (
	FlagMem  = 1 << 0 // mem_lower / mem_upper valid
	FlagMmap = 1 << 6 // mmap_length / mmap_addr valid
)

// infoLen covers the info header up to and including mmap_addr.
const infoLen = 52

var (
	// ErrShortInfo reports an info block too small to hold the header.
	ErrShortInfo = errors.New("memmap: boot info shorter than header")

	// ErrNoMap reports an info block without a memory map.
	ErrNoMap = errors.New("memmap: boot info carries no memory map")
)

// Info is the subset of the multiboot information block needed to find the
// memory map. Command line, module and device fields are not decoded.
type Info struct {
	Flags      uint32
	MemLower   uint32 // KiB below 1 MiB, valid with FlagMem
	MemUpper   uint32 // KiB above 1 MiB, valid with FlagMem
	MmapLength uint32
	MmapAddr   uint32
}

// HasMem reports whether MemLower/MemUpper are valid.
func (i Info) HasMem() bool { return i.Flags&FlagMem != 0 }

// HasMmap reports whether the memory-map fields are valid.
func (i Info) HasMmap() bool { return i.Flags&FlagMmap != 0 }

// ParseInfo decodes the info header at the start of b.
func ParseInfo(b []byte) (Info, error) {
	if len(b) < infoLen {
		return Info{}, fmt.Errorf("%w: %d bytes", ErrShortInfo, len(b))
	}
	le := binary.LittleEndian
	return Info{
		Flags:      le.Uint32(b[0:]),
		MemLower:   le.Uint32(b[4:]),
		MemUpper:   le.Uint32(b[8:]),
		MmapLength: le.Uint32(b[44:]),
		MmapAddr:   le.Uint32(b[48:]),
	}, nil
}

// MemoryMap resolves the map subsection through resolve, which turns the
// (address, length) pair into readable bytes: FromAddress on real hardware,
// a slice of a saved image in tools and tests.
func (i Info) MemoryMap(resolve func(addr, length uint32) ([]byte, error)) (Region, error) {
	if !i.HasMmap() {
		return Region{}, ErrNoMap
	}
	b, err := resolve(i.MmapAddr, i.MmapLength)
	if err != nil {
		return Region{}, fmt.Errorf("memmap: resolve map at %#x: %w", i.MmapAddr, err)
	}
	if uint32(len(b)) > i.MmapLength {
		b = b[:i.MmapLength]
	}
	return FromBytes(b), nil
}

// ImageResolver resolves addresses as offsets into a saved boot image.
func ImageResolver(image []byte) func(addr, length uint32) ([]byte, error) {
	return func(addr, length uint32) ([]byte, error) {
		lo, hi := uint64(addr), uint64(addr)+uint64(length)
		if hi > uint64(len(image)) {
			return nil, fmt.Errorf("range %#x+%d outside %d-byte image", addr, length, len(image))
		}
		return image[lo:hi], nil
	}
}
