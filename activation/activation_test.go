package activation

import (
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"smpbench/barrier"
	"smpbench/control"
	"smpbench/debug"
	"smpbench/spin"
)

func TestMain(m *testing.M) {
	debug.SetOutput(io.Discard)
	m.Run()
}

// TestActivateExactlyOnce runs Activate from many goroutines at once. The
// side effect must run once and exactly one caller must report it.
func TestActivateExactlyOnce(t *testing.T) {
	const cores = 16
	var (
		mu       spin.Mutex
		effects  atomic.Int32
		winners  atomic.Int32
		start    sync.WaitGroup
		finished sync.WaitGroup
	)
	b := barrier.NewUnsized(64)
	c := NewWith(&mu, b, func() uint32 { return cores }, func() { effects.Add(1) })

	start.Add(1)
	finished.Add(cores)
	for i := 0; i < cores; i++ {
		go func() {
			defer finished.Done()
			start.Wait()
			if c.Activate() {
				winners.Add(1)
			}
			b.Await()
		}()
	}
	start.Done()
	finished.Wait()

	if effects.Load() != 1 {
		t.Fatalf("side effect ran %d times, want 1", effects.Load())
	}
	if winners.Load() != 1 {
		t.Fatalf("%d callers reported activation, want 1", winners.Load())
	}
	if b.Parties() != cores {
		t.Fatalf("barrier sized to %d, want %d", b.Parties(), cores)
	}
}

// TestTwoCoreBringUp mirrors a two-CPU machine: the sentinel is 3, two cores
// come online, and both get through their first rendezvous.
func TestTwoCoreBringUp(t *testing.T) {
	var (
		mu     spin.Mutex
		online atomic.Uint32
	)
	b := barrier.NewUnsized(2)
	if b.Parties() != 3 {
		t.Fatalf("sentinel = %d, want 3", b.Parties())
	}
	emu := control.NewEmulation()
	c := New(&mu, b, online.Load, emu)

	var ready sync.WaitGroup
	ready.Add(2)
	var done sync.WaitGroup
	done.Add(2)
	for i := 0; i < 2; i++ {
		go func() {
			defer done.Done()
			online.Add(1)
			ready.Done()
			ready.Wait()
			c.Activate()
			b.Await()
		}()
	}
	done.Wait()

	if b.Parties() != 2 {
		t.Fatalf("expected = %d after activation, want 2", b.Parties())
	}
	if emu.Active() {
		t.Fatal("emulation layer still active")
	}
	if emu.Deactivations() != 1 {
		t.Fatalf("emulation deactivated %d times", emu.Deactivations())
	}
}

func TestActivateZeroOnlineIsFatal(t *testing.T) {
	var mu spin.Mutex
	b := barrier.NewUnsized(4)
	c := NewWith(&mu, b, func() uint32 { return 0 }, func() {})

	defer func() {
		if recover() == nil {
			t.Fatal("zero online cores should halt")
		}
	}()
	c.Activate()
}

func TestActivateOnSizedBarrierIsNoop(t *testing.T) {
	var mu spin.Mutex
	ran := false
	c := NewWith(&mu, barrier.New(2), func() uint32 { return 2 }, func() { ran = true })
	if c.Activate() || ran {
		t.Fatal("activation ran on an already sized barrier")
	}
}
