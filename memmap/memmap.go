// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: memmap.go - Bounds-checked walker for packed memory-map records
//
// Purpose:
//   - Decodes the boot loader's physical memory map: back-to-back records,
//     each prefixed by a 4-byte size that does NOT count itself.
//   - Yields entries lazily; the sequence can be ranged over any number of
//     times with identical results.
//
// Record layout (little-endian):
//
//	+0  size   u32   bytes that follow this field (≥ 20)
//	+4  base   u64
//	+12 length u64
//	+20 type   u32   1 = available, anything else = other
//
// Notes:
//   - The next record starts at cursor + 4 + size; it is not a fixed stride.
//   - Every read is checked against the region end first. A record that would
//     run past the end stops iteration (the tail is truncated, never skipped).
// ─────────────────────────────────────────────────────────────────────────────

package memmap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
	"unsafe"

	"smpbench/constants"
	"smpbench/utils"
)

// ErrTruncated reports that a record's declared size ran past the region end
// (or was too small to hold an entry) and iteration stopped there.
var ErrTruncated = errors.New("memmap: record overruns region, map truncated")

// RegionType classifies a memory-map entry.
type RegionType uint8

const (
	// Other covers every type code except available.
	Other RegionType = iota
	// Available is usable RAM.
	Available
)

func (t RegionType) String() string {
	if t == Available {
		return "mem"
	}
	return "other"
}

// Entry is one decoded memory-map record.
type Entry struct {
	Offset     int        // byte offset of the size field within the region
	RecordSize uint32     // declared size, excluding the 4-byte size field
	Base       uint64     // physical base address
	Length     uint64     // extent length in bytes
	Type       RegionType // Available or Other
	RawType    uint32     // type code as stored
}

// End returns the first address past the extent.
func (e Entry) End() uint64 {
	return e.Base + e.Length
}

// String renders the entry the way the boot console prints it.
func (e Entry) String() string {
	return "mmap[" + utils.Hex64(uint64(e.Offset)) + "] - addr:" + utils.Hex64(e.Base) +
		"  len:" + utils.Hex64(e.Length) + "  type: " + utils.Utoa(uint64(e.RawType)) +
		" (" + e.Type.String() + ")"
}

// Region is a packed-record memory area.
type Region struct {
	data []byte
}

// FromBytes wraps an in-memory copy of the region.
func FromBytes(b []byte) Region {
	return Region{data: b}
}

// FromAddress views length bytes starting at base in the current address
// space. The caller guarantees the range is mapped and stays valid.
func FromAddress(base unsafe.Pointer, length int) Region {
	if base == nil || length <= 0 {
		return Region{}
	}
	return Region{data: unsafe.Slice((*byte)(base), length)}
}

// Len returns the total region length.
func (r Region) Len() int {
	return len(r.data)
}

// Entries returns a lazy, restartable sequence of the region's records.
// It ends at the region end or at the first record that does not fit.
func (r Region) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		_ = r.walk(yield)
	}
}

// Walk calls fn for each record until fn returns false or the region ends.
// It returns ErrTruncated if a malformed record stopped the walk.
func (r Region) Walk(fn func(Entry) bool) error {
	return r.walk(fn)
}

// Collect decodes every record that fits.
func (r Region) Collect() ([]Entry, error) {
	var out []Entry
	err := r.walk(func(e Entry) bool {
		out = append(out, e)
		return true
	})
	return out, err
}

// Available sums the length of every available extent.
func (r Region) Available() uint64 {
	var total uint64
	for e := range r.Entries() {
		if e.Type == Available {
			total += e.Length
		}
	}
	return total
}

func (r Region) walk(fn func(Entry) bool) error {
	end := len(r.data)
	cur := 0
	for cur < end {
		if end-cur < constants.MmapSizeField {
			return fmt.Errorf("%w: %d trailing bytes at %d", ErrTruncated, end-cur, cur)
		}
		size := binary.LittleEndian.Uint32(r.data[cur:])
		if size < constants.MmapMinRecord {
			return fmt.Errorf("%w: record size %d at %d", ErrTruncated, size, cur)
		}
		next := uint64(cur) + constants.MmapSizeField + uint64(size)
		if next > uint64(end) {
			return fmt.Errorf("%w: record at %d ends at %d, region ends at %d", ErrTruncated, cur, next, end)
		}

		body := r.data[cur+constants.MmapSizeField : next]
		raw := binary.LittleEndian.Uint32(body[16:20])
		e := Entry{
			Offset:     cur,
			RecordSize: size,
			Base:       binary.LittleEndian.Uint64(body[0:8]),
			Length:     binary.LittleEndian.Uint64(body[8:16]),
			RawType:    raw,
		}
		if raw == constants.MmapTypeAvailable {
			e.Type = Available
		}
		if !fn(e) {
			return nil
		}
		cur = int(next)
	}
	return nil
}

// Encode packs entries into the on-disk record layout, using each entry's
// RecordSize (minimum 20) so tests and tools can build irregular maps.
func Encode(entries []Entry) []byte {
	var out []byte
	for _, e := range entries {
		size := e.RecordSize
		if size < constants.MmapMinRecord {
			size = constants.MmapMinRecord
		}
		rec := make([]byte, constants.MmapSizeField+int(size))
		binary.LittleEndian.PutUint32(rec[0:], size)
		binary.LittleEndian.PutUint64(rec[4:], e.Base)
		binary.LittleEndian.PutUint64(rec[12:], e.Length)
		binary.LittleEndian.PutUint32(rec[20:], e.RawType)
		out = append(out, rec...)
	}
	return out
}
