package bplus

import (
	"container/list"
	"fmt"

	"github.com/pqcqaq/data-storage-b-plus-tree/internal/xlog"
)

// bpEntry is what the LRU list actually stores; the list element's Value
// points back to one of these so MoveToFront/Remove stay O(1).
type bpEntry struct {
	id   int32
	node *Node
}

// BufferPool is a bounded LRU cache of resident pages, keyed by page id.
// It is the sole path by which the tree engine acquires nodes: callers
// never talk to the Pager directly.
type BufferPool struct {
	capacity int
	entries  map[int32]*list.Element // -> *bpEntry
	lru      *list.List              // front = MRU, back = LRU
	pager    *Pager
	log      xlog.Logger

	hitCount   uint64
	missCount  uint64
	evictCount uint64
}

// NewBufferPool creates a pool holding at most capacity resident pages.
// capacity is clamped to at least 1.
func NewBufferPool(capacity int, log xlog.Logger) *BufferPool {
	if capacity < 1 {
		capacity = 1
	}
	if log == nil {
		log = xlog.Nop{}
	}
	return &BufferPool{
		capacity: capacity,
		entries:  make(map[int32]*list.Element, capacity),
		lru:      list.New(),
		log:      log,
	}
}

// SetPager wires the pager used both to load pages on a cache miss and to
// write them back on eviction/flush.
func (bp *BufferPool) SetPager(pager *Pager) {
	bp.pager = pager
}

// Get returns the resident node for id, loading it through the pager on a
// miss. The returned node is not pinned; callers that intend to hold onto
// it across further BufferPool calls must Pin it themselves.
func (bp *BufferPool) Get(id int32) (*Node, error) {
	if elem, ok := bp.entries[id]; ok {
		bp.hitCount++
		bp.lru.MoveToFront(elem)
		return elem.Value.(*bpEntry).node, nil
	}

	bp.missCount++
	if bp.pager == nil {
		return nil, fmt.Errorf("%w: buffer pool has no pager", ErrInvariantViolation)
	}

	data, err := bp.pager.ReadPage(id)
	if err != nil {
		return nil, err
	}
	node, err := decodeNode(data, id)
	if err != nil {
		return nil, err
	}

	if err := bp.putNode(node); err != nil {
		return nil, err
	}
	return node, nil
}

// Put inserts or refreshes node in the cache, evicting if at capacity.
func (bp *BufferPool) Put(node *Node) error {
	return bp.putNode(node)
}

func (bp *BufferPool) putNode(node *Node) error {
	if elem, ok := bp.entries[node.PageID]; ok {
		elem.Value.(*bpEntry).node = node
		bp.lru.MoveToFront(elem)
		return nil
	}

	for len(bp.entries) >= bp.capacity {
		if err := bp.evict(); err != nil {
			return err
		}
	}

	elem := bp.lru.PushFront(&bpEntry{id: node.PageID, node: node})
	bp.entries[node.PageID] = elem
	return nil
}

// Pin marks a resident page ineligible for eviction until a matching
// Unpin. Pins nest: a page pinned twice needs two unpins.
func (bp *BufferPool) Pin(id int32) error {
	elem, ok := bp.entries[id]
	if !ok {
		return fmt.Errorf("%w: pin: page %d not resident", ErrInvariantViolation, id)
	}
	elem.Value.(*bpEntry).node.pinCount++
	return nil
}

// Unpin releases one pin. Unpinning a page with no outstanding pin is a
// no-op rather than an error, mirroring defer-heavy call sites that unpin
// unconditionally.
func (bp *BufferPool) Unpin(id int32) error {
	elem, ok := bp.entries[id]
	if !ok {
		return fmt.Errorf("%w: unpin: page %d not resident", ErrInvariantViolation, id)
	}
	n := elem.Value.(*bpEntry).node
	if n.pinCount > 0 {
		n.pinCount--
	}
	return nil
}

// MarkDirty flags a resident page as modified and touches its LRU
// position, per spec §4.2.
func (bp *BufferPool) MarkDirty(id int32) error {
	elem, ok := bp.entries[id]
	if !ok {
		return fmt.Errorf("%w: mark dirty: page %d not resident", ErrInvariantViolation, id)
	}
	elem.Value.(*bpEntry).node.dirty = true
	bp.lru.MoveToFront(elem)
	return nil
}

// FlushPage writes a single dirty page through the pager and clears its
// dirty bit. A no-op if the page is clean or absent.
func (bp *BufferPool) FlushPage(id int32) error {
	elem, ok := bp.entries[id]
	if !ok {
		return nil
	}
	return bp.flushEntry(elem.Value.(*bpEntry))
}

func (bp *BufferPool) flushEntry(e *bpEntry) error {
	if !e.node.dirty || bp.pager == nil {
		return nil
	}
	data, err := encodeNode(e.node)
	if err != nil {
		return err
	}
	if err := bp.pager.WritePage(e.id, data); err != nil {
		return err
	}
	e.node.dirty = false
	return nil
}

// Flush writes every dirty resident page through the pager and returns
// the count flushed.
func (bp *BufferPool) Flush() (int, error) {
	count := 0
	for e := bp.lru.Front(); e != nil; e = e.Next() {
		ent := e.Value.(*bpEntry)
		if !ent.node.dirty {
			continue
		}
		if err := bp.flushEntry(ent); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// evict implements spec §4.2's two-pass algorithm: prefer a clean,
// unpinned victim; only fall back to writing back a dirty, unpinned
// victim when no clean candidate exists. Restores the original C++
// design's evictLRU()/forceEvictDirtyPage() split, which both retrieved
// Go rewrites had collapsed into a single pass.
func (bp *BufferPool) evict() error {
	for e := bp.lru.Back(); e != nil; e = e.Prev() {
		ent := e.Value.(*bpEntry)
		if ent.node.pinCount == 0 && !ent.node.dirty {
			bp.removeEntry(e, ent)
			return nil
		}
	}

	for e := bp.lru.Back(); e != nil; e = e.Prev() {
		ent := e.Value.(*bpEntry)
		if ent.node.pinCount == 0 && ent.node.dirty {
			if err := bp.flushEntry(ent); err != nil {
				return err
			}
			bp.removeEntry(e, ent)
			return nil
		}
	}

	bp.log.Warn("buffer pool: all resident pages pinned, cannot evict", "capacity", bp.capacity)
	return fmt.Errorf("%w: all %d resident pages are pinned", ErrInvariantViolation, bp.capacity)
}

func (bp *BufferPool) removeEntry(e *list.Element, ent *bpEntry) {
	bp.lru.Remove(e)
	delete(bp.entries, ent.id)
	bp.evictCount++
}

// RemovePage drops id from the cache. If pinned and not force, it fails.
// If dirty and not force, it is flushed first.
func (bp *BufferPool) RemovePage(id int32, force bool) error {
	elem, ok := bp.entries[id]
	if !ok {
		return nil
	}
	ent := elem.Value.(*bpEntry)
	if ent.node.pinCount > 0 && !force {
		return fmt.Errorf("%w: page %d is pinned", ErrInvariantViolation, id)
	}
	if ent.node.dirty && !force {
		if err := bp.flushEntry(ent); err != nil {
			return err
		}
	}
	bp.lru.Remove(elem)
	delete(bp.entries, id)
	return nil
}

// Size returns the current resident page count.
func (bp *BufferPool) Size() int { return len(bp.entries) }

// Capacity returns the pool's maximum resident page count.
func (bp *BufferPool) Capacity() int { return bp.capacity }

// Stats reports buffer pool observability counters, per spec §4.2.
type Stats struct {
	Capacity  int
	Resident  int
	Dirty     int
	Pinned    int
	HitCount  uint64
	MissCount uint64
	Evictions uint64
	HitRatio  float64
}

func (bp *BufferPool) Stats() Stats {
	s := Stats{
		Capacity:  bp.capacity,
		Resident:  len(bp.entries),
		HitCount:  bp.hitCount,
		MissCount: bp.missCount,
		Evictions: bp.evictCount,
	}
	for _, elem := range bp.entries {
		n := elem.Value.(*bpEntry).node
		if n.dirty {
			s.Dirty++
		}
		if n.pinCount > 0 {
			s.Pinned++
		}
	}
	if total := s.HitCount + s.MissCount; total > 0 {
		s.HitRatio = float64(s.HitCount) / float64(total)
	}
	return s
}
