package twoq

import (
	"errors"
	"testing"

	"github.com/vtpc-project/vtpc/pagestore"
)

const testPageSize = 16

// fakeHooks is an in-memory backing store standing in for pagestore.File, so
// the policy's admission and eviction logic can be exercised without a real
// file descriptor.
type fakeHooks struct {
	pages     map[uint64][]byte
	failWrite map[uint64]bool
}

func newFakeHooks() *fakeHooks {
	return &fakeHooks{pages: make(map[uint64][]byte), failWrite: make(map[uint64]bool)}
}

func (h *fakeHooks) Load(pageNo uint64, buf []byte) (int, error) {
	data, ok := h.pages[pageNo]
	if !ok {
		return 0, nil
	}
	n := copy(buf, data)
	return n, nil
}

func (h *fakeHooks) Writeback(pageNo uint64, buf []byte, validLen int) error {
	if h.failWrite[pageNo] {
		return errors.New("simulated writeback failure")
	}
	cp := make([]byte, validLen)
	copy(cp, buf[:validLen])
	h.pages[pageNo] = cp
	return nil
}

func newTestPolicy(capacity int) (*Policy, *fakeHooks) {
	hooks := newFakeHooks()
	pool := pagestore.NewBufferPool(testPageSize)
	return New(hooks, testPageSize, capacity, pool), hooks
}

func TestColdMissThenHit(t *testing.T) {
	p, _ := newTestPolicy(4)

	e, err := p.Get(0)
	if err != nil {
		t.Fatalf("Get(0): %v", err)
	}
	if e.ValidLen != 0 {
		t.Fatalf("ValidLen = %d, want 0 on an unwritten page", e.ValidLen)
	}
	if got := p.Stats(); got != (Stats{A1In: 1, Am: 0, A1Out: 0}) {
		t.Fatalf("stats after cold miss = %+v", got)
	}

	if _, err := p.Get(0); err != nil {
		t.Fatalf("Get(0) again: %v", err)
	}
	if got := p.Stats(); got != (Stats{A1In: 0, Am: 1, A1Out: 0}) {
		t.Fatalf("stats after second touch (promotion) = %+v", got)
	}
}

func TestGhostHitPromotesToAm(t *testing.T) {
	// C=4 gives Kin=1, so every cold miss after the first evicts A1in's
	// sole occupant into the ghost queue; with Kout=2 the two most
	// recently evicted page numbers (2 and 3) remain ghosts once pages
	// 0..4 have all been read once.
	p, _ := newTestPolicy(4)

	for _, pn := range []uint64{0, 1, 2, 3, 4} {
		if _, err := p.Get(pn); err != nil {
			t.Fatalf("Get(%d): %v", pn, err)
		}
	}

	if _, ok := p.ghosts.Get(3); !ok {
		t.Fatalf("page 3 should be a ghost after being evicted from A1in")
	}

	e, err := p.Get(3)
	if err != nil {
		t.Fatalf("Get(3) after ghost: %v", err)
	}
	if e.tag != tagAm {
		t.Fatalf("page 3 should be tagged Am after a ghost hit")
	}
	if _, ok := p.ghosts.Get(3); ok {
		t.Fatalf("page 3 should no longer be a ghost")
	}
}

func TestDirtyEvictionWritesBack(t *testing.T) {
	p, hooks := newTestPolicy(2)

	e, err := p.Get(0)
	if err != nil {
		t.Fatalf("Get(0): %v", err)
	}
	e.Buf[0] = 0x42
	e.ValidLen = 1
	e.MarkDirty()

	// Force page 0 out of A1in by visiting enough distinct pages.
	for _, pn := range []uint64{1, 2, 3, 4} {
		if _, err := p.Get(pn); err != nil {
			t.Fatalf("Get(%d): %v", pn, err)
		}
	}

	data, ok := hooks.pages[0]
	if !ok || len(data) == 0 || data[0] != 0x42 {
		t.Fatalf("page 0 was not written back before eviction: %v ok=%v", data, ok)
	}
}

func TestWritebackFailureRestoresVictim(t *testing.T) {
	p, hooks := newTestPolicy(1)
	hooks.failWrite[0] = true

	e, err := p.Get(0)
	if err != nil {
		t.Fatalf("Get(0): %v", err)
	}
	e.Buf[0] = 0x1
	e.ValidLen = 1
	e.MarkDirty()

	if _, err := p.Get(1); err == nil {
		t.Fatalf("expected writeback failure to surface from Get(1)")
	}

	if got := p.Stats(); got.A1In != 1 {
		t.Fatalf("victim should be restored to A1in after failed flush, stats=%+v", got)
	}
	if _, ok := p.resident.Get(0); !ok {
		t.Fatalf("victim should still be indexed after failed flush")
	}
}

func TestFlushIsIdempotent(t *testing.T) {
	p, hooks := newTestPolicy(4)

	e, err := p.Get(0)
	if err != nil {
		t.Fatalf("Get(0): %v", err)
	}
	e.Buf[0] = 0x7
	e.ValidLen = 1
	e.MarkDirty()

	if err := p.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if e.Dirty() {
		t.Fatalf("entry should be clean after Flush")
	}
	writesBefore := len(hooks.pages)

	if err := p.Flush(); err != nil {
		t.Fatalf("second Flush: %v", err)
	}
	if len(hooks.pages) != writesBefore {
		t.Fatalf("second flush should not write anything new")
	}
}

func TestBoundsRespected(t *testing.T) {
	p, _ := newTestPolicy(4)

	for pn := uint64(0); pn < 100; pn++ {
		if _, err := p.Get(pn); err != nil {
			t.Fatalf("Get(%d): %v", pn, err)
		}
		s := p.Stats()
		if s.A1In > p.kin {
			t.Fatalf("a1in_sz=%d exceeds Kin=%d", s.A1In, p.kin)
		}
		if s.Am > p.amCap {
			t.Fatalf("am_sz=%d exceeds Am_cap=%d", s.Am, p.amCap)
		}
		if s.A1In+s.Am > p.capacity {
			t.Fatalf("a1in_sz+am_sz=%d exceeds capacity=%d", s.A1In+s.Am, p.capacity)
		}
		if s.A1Out > p.kout {
			t.Fatalf("a1out_sz=%d exceeds Kout=%d", s.A1Out, p.kout)
		}
	}
}
