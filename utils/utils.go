package utils

import (
	"io"
	"strconv"

	"smpbench/spin"
)

///////////////////////////////////////////////////////////////////////////////
// Integer Formatting - Alloc-Light Helpers For Diagnostics
///////////////////////////////////////////////////////////////////////////////

// Itoa formats a signed integer in base 10.
//
//go:nosplit
//go:inline
func Itoa(n int) string {
	return strconv.Itoa(n)
}

// Utoa formats an unsigned 64-bit integer in base 10.
//
//go:nosplit
//go:inline
func Utoa(n uint64) string {
	return strconv.FormatUint(n, 10)
}

// Hex64 formats v as "0x" followed by lowercase hex digits, no padding.
func Hex64(v uint64) string {
	const digits = "0123456789abcdef"
	if v == 0 {
		return "0x0"
	}
	var buf [18]byte
	i := len(buf)
	for v != 0 {
		i--
		buf[i] = digits[v&0xF]
		v >>= 4
	}
	i--
	buf[i] = 'x'
	i--
	buf[i] = '0'
	return string(buf[i:])
}

// SizeLabel renders a power-of-two byte count the way the grid header does:
// "4k", "512k", "1M", "32M". Counts below 1 KiB are printed in bytes.
func SizeLabel(n uint64) string {
	switch {
	case n >= 1<<30 && n%(1<<30) == 0:
		return Utoa(n>>30) + "G"
	case n >= 1<<20 && n%(1<<20) == 0:
		return Utoa(n>>20) + "M"
	case n >= 1<<10 && n%(1<<10) == 0:
		return Utoa(n>>10) + "k"
	}
	return Utoa(n)
}

// PadLeft right-aligns s in a field of width w.
func PadLeft(s string, w int) string {
	for len(s) < w {
		s = " " + s
	}
	return s
}

///////////////////////////////////////////////////////////////////////////////
// Line Sink - Shared Text Output For All Cores
///////////////////////////////////////////////////////////////////////////////

// Sink serialises whole lines onto an io.Writer. Lines from different cores
// may interleave in any order, but a single line is never torn.
type Sink struct {
	mu spin.Mutex
	w  io.Writer
}

// NewSink wraps w.
func NewSink(w io.Writer) *Sink {
	return &Sink{w: w}
}

// Println writes s followed by a newline. Write errors are dropped; the
// console is best-effort.
func (s *Sink) Println(line string) {
	s.mu.Lock()
	_, _ = io.WriteString(s.w, line+"\n")
	s.mu.Unlock()
}
