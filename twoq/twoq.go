// Package twoq implements the 2Q page replacement policy (Johnson & Shasha,
// 1994): three queues — A1in (probationary FIFO), Am ("main" LRU), and
// A1out (a FIFO of ghost page numbers recently evicted from A1in) — that
// together resist single-pass scan pollution better than plain LRU while
// staying O(1) per access.
//
// twoq owns no file descriptor and does no I/O itself; a Policy is handed a
// Hooks implementation at construction and calls back into it to load a
// missing page or write back a dirty one. This keeps the replacement logic
// testable against an in-memory fake, the way segmentio's cache/lru_test.go
// exercises eviction order without a real backing store.
//
// A Policy is not safe for concurrent use.
package twoq

import (
	"github.com/vtpc-project/vtpc/hashindex"
	"github.com/vtpc-project/vtpc/list"
	"github.com/vtpc-project/vtpc/pagestore"
)

// Hooks supplies the page I/O a Policy needs but does not perform itself.
type Hooks interface {
	// Load reads page pageNo into buf, which is exactly page_size bytes
	// long, and returns the number of leading bytes that reflect real file
	// content (less than len(buf) only at end of file).
	Load(pageNo uint64, buf []byte) (validLen int, err error)

	// Writeback persists buf[:validLen] of page pageNo to the backing file.
	Writeback(pageNo uint64, buf []byte, validLen int) error
}

type tag uint8

const (
	tagA1in tag = iota
	tagAm
)

// Entry is a resident cached page. The Buf and ValidLen fields are owned by
// the Policy that returned the Entry and are only valid until the next call
// that might evict or reuse them (Get, Flush); callers must finish reading
// or writing an Entry's buffer before making another Policy call.
type Entry struct {
	PageNo   uint64
	Buf      []byte
	ValidLen int

	dirty bool
	tag   tag
	elem  *list.Element[*Entry]
}

// MarkDirty flags the entry as holding bytes not yet written back to the
// backing file.
func (e *Entry) MarkDirty() { e.dirty = true }

// Dirty reports whether the entry has unwritten changes.
func (e *Entry) Dirty() bool { return e.dirty }

// Policy owns the three 2Q lists, the resident and ghost indexes, and the
// capacity bounds derived from the cache's configured page budget.
type Policy struct {
	hooks    Hooks
	pool     *pagestore.BufferPool
	pageSize int

	capacity int
	kin      int
	amCap    int
	kout     int

	a1in  list.List[*Entry]
	am    list.List[*Entry]
	a1out list.List[uint64]

	a1inSz  int
	amSz    int
	a1outSz int

	resident *hashindex.Table[*Entry]
	ghosts   *hashindex.Table[*list.Element[uint64]]
}

// Stats reports the current size of each of the three queues.
type Stats struct {
	A1In  int
	Am    int
	A1Out int
}

// New constructs a Policy with the given page budget (capacity, in pages).
// pool supplies and reclaims page-aligned buffers for resident entries.
func New(hooks Hooks, pageSize, capacity int, pool *pagestore.BufferPool) *Policy {
	if capacity < 1 {
		capacity = 1
	}

	kin := capacity / 4
	if kin < 1 {
		kin = 1
	}
	if kin >= capacity {
		kin = capacity / 2
		if kin < 1 {
			kin = 1
		}
	}
	amCap := capacity - kin
	if amCap < 1 {
		amCap = 1
	}
	kout := capacity / 2
	if kout < 1 {
		kout = 1
	}

	return &Policy{
		hooks:    hooks,
		pool:     pool,
		pageSize: pageSize,
		capacity: capacity,
		kin:      kin,
		amCap:    amCap,
		kout:     kout,
		resident: hashindex.New[*Entry](capacity * 4),
		ghosts:   hashindex.New[*list.Element[uint64]](kout * 4),
	}
}

// Stats returns the current occupancy of each queue.
func (p *Policy) Stats() Stats {
	return Stats{A1In: p.a1inSz, Am: p.amSz, A1Out: p.a1outSz}
}

// Get returns the resident entry for pageNo, loading and admitting it
// according to the 2Q policy if it is not already resident. This is the
// policy engine's only public entry point; every hit, ghost hit, and cold
// miss is handled here.
func (p *Policy) Get(pageNo uint64) (*Entry, error) {
	if e, ok := p.resident.Get(pageNo); ok {
		switch e.tag {
		case tagA1in:
			p.a1in.Remove(e.elem)
			p.a1inSz--
			if err := p.ensureSpaceForAm(); err != nil {
				e.elem = p.a1in.PushFront(e)
				p.a1inSz++
				return nil, err
			}
			e.tag = tagAm
			e.elem = p.am.PushFront(e)
			p.amSz++
		case tagAm:
			p.am.MoveToFront(e.elem)
		}
		return e, nil
	}

	if ghostElem, ok := p.ghosts.Get(pageNo); ok {
		p.a1out.Remove(ghostElem)
		p.ghosts.Delete(pageNo)
		p.a1outSz--

		if err := p.ensureSpaceForAm(); err != nil {
			return nil, err
		}
		e, err := p.load(pageNo, tagAm)
		if err != nil {
			return nil, err
		}
		e.elem = p.am.PushFront(e)
		p.amSz++
		p.resident.Put(pageNo, e)
		return e, nil
	}

	if err := p.ensureSpaceForA1in(); err != nil {
		return nil, err
	}
	e, err := p.load(pageNo, tagA1in)
	if err != nil {
		return nil, err
	}
	e.elem = p.a1in.PushFront(e)
	p.a1inSz++
	p.resident.Put(pageNo, e)
	return e, nil
}

// load allocates a buffer for pageNo and fills it via Hooks.Load, returning
// an Entry not yet linked into any list or index.
func (p *Policy) load(pageNo uint64, t tag) (*Entry, error) {
	buf := p.pool.Get()
	validLen, err := p.hooks.Load(pageNo, buf)
	if err != nil {
		p.pool.Put(buf)
		return nil, err
	}
	return &Entry{PageNo: pageNo, Buf: buf, ValidLen: validLen, tag: t}, nil
}

// ensureSpaceForA1in makes room for one more A1in entry. Once A1in has used
// up its own quota (Kin) it evicts from A1in's tail; below that quota it
// prefers to evict from Am to meet the combined bound (A1in still "owns"
// space below Kin, so a cold miss does not starve it).
func (p *Policy) ensureSpaceForA1in() error {
	if p.a1inSz >= p.kin {
		return p.evictFromA1in()
	}
	for p.a1inSz+p.amSz >= p.capacity {
		var err error
		if p.amSz > 0 {
			err = p.evictFromAm()
		} else {
			err = p.evictFromA1in()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ensureSpaceForAm makes room for one more Am entry, first enforcing Am's
// own cap, then the combined bound, preferring to evict from A1in once Am
// needs to grow past it.
func (p *Policy) ensureSpaceForAm() error {
	for p.amSz >= p.amCap {
		if err := p.evictFromAm(); err != nil {
			return err
		}
	}
	for p.a1inSz+p.amSz >= p.capacity {
		var err error
		if p.a1inSz > 0 {
			err = p.evictFromA1in()
		} else {
			err = p.evictFromAm()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// evictFromA1in pops the tail of A1in, writing it back if dirty, and
// records its page number in the ghost queue. On writeback failure the
// victim is restored to the front of A1in and the error is returned.
func (p *Policy) evictFromA1in() error {
	elem := p.a1in.PopBack()
	if elem == nil {
		return nil
	}
	e := elem.Value
	p.a1inSz--

	if e.dirty {
		if err := p.hooks.Writeback(e.PageNo, e.Buf, e.ValidLen); err != nil {
			e.elem = p.a1in.PushFront(e)
			p.a1inSz++
			return err
		}
		e.dirty = false
	}

	p.resident.Delete(e.PageNo)
	p.pool.Put(e.Buf)
	e.Buf = nil
	p.addGhost(e.PageNo)
	return nil
}

// evictFromAm pops the tail of Am, writing it back if dirty. Am evictions
// are not remembered in the ghost queue: only a page discarded from A1in
// feeds A1out, since that is the only pattern the ghost queue needs to
// detect.
func (p *Policy) evictFromAm() error {
	elem := p.am.PopBack()
	if elem == nil {
		return nil
	}
	e := elem.Value
	p.amSz--

	if e.dirty {
		if err := p.hooks.Writeback(e.PageNo, e.Buf, e.ValidLen); err != nil {
			e.elem = p.am.PushFront(e)
			p.amSz++
			return err
		}
		e.dirty = false
	}

	p.resident.Delete(e.PageNo)
	p.pool.Put(e.Buf)
	e.Buf = nil
	return nil
}

// addGhost records pageNo at the front of A1out, trimming the tail until
// A1out is back within its Kout budget.
func (p *Policy) addGhost(pageNo uint64) {
	elem := p.a1out.PushFront(pageNo)
	p.ghosts.Put(pageNo, elem)
	p.a1outSz++

	for p.a1outSz > p.kout {
		tail := p.a1out.PopBack()
		if tail == nil {
			break
		}
		p.ghosts.Delete(tail.Value)
		p.a1outSz--
	}
}

// Flush writes back every dirty resident page, walking A1in then Am in list
// order, and returns the first writeback error encountered. Successfully
// flushed pages are left resident and clean.
func (p *Policy) Flush() error {
	for elem := p.a1in.Front(); elem != nil; elem = elem.Next() {
		if err := flushOne(p.hooks, elem.Value); err != nil {
			return err
		}
	}
	for elem := p.am.Front(); elem != nil; elem = elem.Next() {
		if err := flushOne(p.hooks, elem.Value); err != nil {
			return err
		}
	}
	return nil
}

func flushOne(hooks Hooks, e *Entry) error {
	if !e.dirty {
		return nil
	}
	if err := hooks.Writeback(e.PageNo, e.Buf, e.ValidLen); err != nil {
		return err
	}
	e.dirty = false
	return nil
}
