// ════════════════════════════════════════════════════════════════════════════════════════════════
// Buffer Publication Protocol
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Producer → Consumer Buffer Handoff
//
// Description:
//   One producer core allocates a page-granular buffer, clears and fills it, then publishes it.
//   Every core then meets at a barrier; only after that rendezvous returns may a consumer look at
//   the handle. No consumer can observe the address before the contents are complete.
//
// Ordering:
//   Producer: write contents → Publish (digest, address, ready) → Await
//   Consumer:                                                     Await → Acquire → read
//
//   The barrier's atomic arrival count and phase word order the producer's writes before every
//   consumer's reads. There is no timed wait anywhere in the protocol.
//
// Ownership:
//   Owned (producer may write) → Published (everyone may read, nobody writes or frees).
// ════════════════════════════════════════════════════════════════════════════════════════════════

package handoff

import (
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/crypto/sha3"

	"smpbench/barrier"
	"smpbench/pages"
)

var (
	// ErrNotPublished is returned by Acquire before the producer published.
	ErrNotPublished = errors.New("handoff: buffer not published")

	// ErrAlreadyAllocated is returned when the producer allocates twice.
	ErrAlreadyAllocated = errors.New("handoff: buffer already allocated")

	// ErrNotAllocated is returned when publishing a handle with no buffer.
	ErrNotAllocated = errors.New("handoff: nothing to publish")

	// ErrPublished is returned for producer-side writes after publication.
	ErrPublished = errors.New("handoff: buffer already published")
)

// State is the ownership state of a Handle.
type State uint32

const (
	// Owned means only the producer core may touch the buffer.
	Owned State = iota
	// Published means the buffer is read-shared and immutable.
	Published
)

func (s State) String() string {
	if s == Published {
		return "published"
	}
	return "owned"
}

// Handle carries a buffer's address, size and readiness from one producer
// core to any number of consumers.
type Handle struct {
	owner  int
	buf    []byte
	size   int
	digest [32]byte
	ready  atomic.Uint32
}

// NewHandle returns an empty handle produced by core owner.
func NewHandle(owner int) *Handle {
	return &Handle{owner: owner}
}

// Owner returns the producer core id.
func (h *Handle) Owner() int {
	return h.owner
}

// State reports the ownership state.
func (h *Handle) State() State {
	return State(h.ready.Load())
}

// Allocate obtains count pages from alloc, clears them and returns the
// writable buffer. Only the producer calls it, once, before Publish.
func (h *Handle) Allocate(alloc pages.Allocator, count int) ([]byte, error) {
	if h.State() == Published {
		return nil, ErrPublished
	}
	if h.buf != nil {
		return nil, ErrAlreadyAllocated
	}
	b, err := alloc.AllocatePages(count)
	if err != nil {
		return nil, fmt.Errorf("handoff: allocate: %w", err)
	}
	pages.Clear(b)
	h.buf = b
	h.size = len(b)
	return b, nil
}

// Publish freezes the buffer and makes it visible. The contents must be
// complete before the call; afterwards the producer must not write them.
func (h *Handle) Publish() error {
	if h.State() == Published {
		return ErrPublished
	}
	if h.buf == nil {
		return ErrNotAllocated
	}
	h.digest = sha3.Sum256(h.buf)
	h.ready.Store(uint32(Published))
	return nil
}

// Acquire returns a read-only view of the published buffer. Consumers call
// it only after the publication rendezvous.
func (h *Handle) Acquire() (View, error) {
	if h.State() != Published {
		return View{}, ErrNotPublished
	}
	return View{buf: h.buf, digest: h.digest}, nil
}

// Size returns the published size in bytes, or 0 before publication.
func (h *Handle) Size() int {
	if h.State() != Published {
		return 0
	}
	return h.size
}

// View is a consumer's read-only window onto a published buffer.
type View struct {
	buf    []byte
	digest [32]byte
}

// Bytes exposes the buffer. Callers must treat it as read-only.
func (v View) Bytes() []byte {
	return v.buf
}

// Len returns the buffer length.
func (v View) Len() int {
	return len(v.buf)
}

// Verify recomputes the sha3-256 digest and compares it with the one taken
// at publication.
func (v View) Verify() bool {
	return v.buf != nil && sha3.Sum256(v.buf) == v.digest
}

// Uniform reports whether every byte equals p, i.e. the consumer sees the
// whole fill rather than a partial or zeroed view.
func (v View) Uniform(p byte) bool {
	if len(v.buf) == 0 {
		return false
	}
	for _, c := range v.buf {
		if c != p {
			return false
		}
	}
	return true
}

// Exchange runs the whole protocol for one core. The owner allocates count
// pages, lets fill initialise them and publishes; then every core, owner
// included, waits on b and acquires the view. A failing producer still
// reaches the rendezvous so peers are never stranded; they then see
// ErrNotPublished.
func Exchange(id int, b *barrier.Barrier, h *Handle, alloc pages.Allocator, count int, fill func([]byte)) (View, error) {
	var produceErr error
	if id == h.owner {
		produceErr = produce(h, alloc, count, fill)
	}

	b.Await()

	v, err := h.Acquire()
	if produceErr != nil {
		return View{}, produceErr
	}
	return v, err
}

func produce(h *Handle, alloc pages.Allocator, count int, fill func([]byte)) error {
	buf, err := h.Allocate(alloc, count)
	if err != nil {
		return err
	}
	if fill != nil {
		fill(buf)
	}
	return h.Publish()
}
