// ════════════════════════════════════════════════════════════════════════════════════════════════
// 🧪 TEST SUITE: RENDEZVOUS BARRIER
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Coverage:
//   - Construction: sized, sentinel, zero-party rejection
//   - Release: all parties leave together, never fewer
//   - Reuse: many consecutive phases with the same party
//   - Resize: sentinel replaced once, second resize rejected
// ════════════════════════════════════════════════════════════════════════════════════════════════

package barrier

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// ============================================================================
// HELPER FUNCTIONS
// ============================================================================

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s: expected panic", name)
		}
	}()
	fn()
}

// ============================================================================
// CONSTRUCTION
// ============================================================================

func TestNewZeroPartiesIsFatal(t *testing.T) {
	mustPanic(t, "New(0)", func() { New(0) })
}

func TestNewUnsizedHoldsSentinel(t *testing.T) {
	b := NewUnsized(2)
	if got := b.Parties(); got != 3 {
		t.Fatalf("Parties() = %d, want sentinel 3", got)
	}
	if b.IsSized() {
		t.Fatal("fresh unsized barrier reports sized")
	}
	mustPanic(t, "Await before Resize", func() { b.Await() })
}

func TestResizeOnce(t *testing.T) {
	b := NewUnsized(2)
	b.Resize(2)
	if !b.IsSized() || b.Parties() != 2 {
		t.Fatalf("after Resize(2): sized=%v parties=%d", b.IsSized(), b.Parties())
	}
	mustPanic(t, "second Resize", func() { b.Resize(1) })
}

func TestResizeRejectsZeroAndSentinel(t *testing.T) {
	mustPanic(t, "Resize(0)", func() { NewUnsized(4).Resize(0) })
	mustPanic(t, "Resize(sentinel)", func() { NewUnsized(4).Resize(5) })
	mustPanic(t, "Resize sized barrier", func() { New(3).Resize(3) })
}

// ============================================================================
// RELEASE SEMANTICS
// ============================================================================

// TestSinglePartyNeverBlocks: a one-party barrier releases immediately and
// still advances its phase.
func TestSinglePartyNeverBlocks(t *testing.T) {
	b := New(1)
	for i := uint64(0); i < 10; i++ {
		if got := b.Await(); got != i {
			t.Fatalf("Await() = %d, want %d", got, i)
		}
	}
	if b.Phase() != 10 {
		t.Fatalf("Phase() = %d, want 10", b.Phase())
	}
}

// TestHoldsUntilLastArrival keeps one party back and checks nobody is
// released, then lets it in and checks everybody is.
func TestHoldsUntilLastArrival(t *testing.T) {
	const parties = 4
	b := New(parties)

	var released atomic.Int32
	var wg sync.WaitGroup
	wg.Add(parties - 1)
	for i := 0; i < parties-1; i++ {
		go func() {
			defer wg.Done()
			b.Await()
			released.Add(1)
		}()
	}

	deadline := time.Now().Add(2 * time.Second)
	for b.Arrived() != parties-1 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d parties arrived", b.Arrived())
		}
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	if n := released.Load(); n != 0 {
		t.Fatalf("%d parties released before the last arrival", n)
	}

	if got := b.Await(); got != 0 {
		t.Fatalf("last arrival completed phase %d, want 0", got)
	}
	wg.Wait()
	if n := released.Load(); n != parties-1 {
		t.Fatalf("%d waiters released, want %d", n, parties-1)
	}
	if b.Arrived() != 0 {
		t.Fatalf("arrived = %d after release, want 0", b.Arrived())
	}
}

// TestReusableAcrossPhases runs many phases; every party must observe the
// same phase index each round and no party may run ahead by a full phase.
func TestReusableAcrossPhases(t *testing.T) {
	const (
		parties = 6
		rounds  = 500
	)
	b := New(parties)

	var (
		wg       sync.WaitGroup
		progress [parties]atomic.Int64
	)
	wg.Add(parties)
	for p := 0; p < parties; p++ {
		go func(p int) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				progress[p].Store(int64(r))
				for q := 0; q < parties; q++ {
					if d := int64(r) - progress[q].Load(); d > 1 || d < -1 {
						t.Errorf("party %d at round %d sees party %d at %d", p, r, q, progress[q].Load())
					}
				}
				if got := b.Await(); got != uint64(r) {
					t.Errorf("party %d: Await() = %d, want %d", p, got, r)
					return
				}
			}
		}(p)
	}
	wg.Wait()

	if b.Phase() != rounds {
		t.Fatalf("Phase() = %d, want %d", b.Phase(), rounds)
	}
}
