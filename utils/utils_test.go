package utils

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

// ============================================================================
// FORMATTING
// ============================================================================

func TestHex64(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{0, "0x0"},
		{1, "0x1"},
		{0x1f, "0x1f"},
		{0x100000, "0x100000"},
		{0xffffffffffffffff, "0xffffffffffffffff"},
	}
	for _, c := range cases {
		if got := Hex64(c.in); got != c.want {
			t.Errorf("Hex64(%#x) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSizeLabel(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{512, "512"},
		{4 << 10, "4k"},
		{512 << 10, "512k"},
		{1 << 20, "1M"},
		{32 << 20, "32M"},
		{2 << 30, "2G"},
		{1536, "1536"},
	}
	for _, c := range cases {
		if got := SizeLabel(c.in); got != c.want {
			t.Errorf("SizeLabel(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPadLeft(t *testing.T) {
	if got := PadLeft("4k", 6); got != "    4k" {
		t.Fatalf("PadLeft = %q", got)
	}
	if got := PadLeft("toolong", 3); got != "toolong" {
		t.Fatalf("PadLeft truncated: %q", got)
	}
}

func TestItoaUtoa(t *testing.T) {
	if Itoa(-42) != "-42" || Utoa(18446744073709551615) != "18446744073709551615" {
		t.Fatal("integer formatting mismatch")
	}
}

// ============================================================================
// LINE SINK
// ============================================================================

// TestSinkLinesNeverTear writes distinct lines from many goroutines and
// checks every output line is one of them, whole.
func TestSinkLinesNeverTear(t *testing.T) {
	const (
		writers = 8
		lines   = 200
	)
	var buf bytes.Buffer
	s := NewSink(&buf)

	var wg sync.WaitGroup
	wg.Add(writers)
	for w := 0; w < writers; w++ {
		go func(w int) {
			defer wg.Done()
			line := strings.Repeat(Itoa(w), 40)
			for i := 0; i < lines; i++ {
				s.Println(line)
			}
		}(w)
	}
	wg.Wait()

	out := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(out) != writers*lines {
		t.Fatalf("%d lines written, want %d", len(out), writers*lines)
	}
	for _, l := range out {
		if len(l) != 40 || strings.Count(l, l[:1]) != 40 {
			t.Fatalf("torn line %q", l)
		}
	}
}
