package bplus

// Iterator provides a forward-only range scan over the leaf linked list.
// No range-scan iterator is publicly required by spec §1, though the
// leaf link exists and is surfaced here per spec §4.3.6's supplement.
//
// The current leaf stays pinned in the buffer pool for the Iterator's
// lifetime so a mid-scan eviction can never free the page it points at;
// the reference rewrite this is grounded on instead read the buffer
// pool's internal page map directly, bypassing pin tracking entirely.
type Iterator struct {
	tree   *BPlusTree
	leafID int32
	index  int
	valid  bool
}

// SeekGE positions a new Iterator at the first key >= target. Call Close
// when done, even if the iterator is never advanced.
func (t *BPlusTree) SeekGE(target []byte) (*Iterator, error) {
	it := &Iterator{tree: t, leafID: -1}
	if t.root < 0 {
		return it, nil
	}

	leaf, err := t.findLeaf(target)
	if err != nil {
		return nil, err
	}
	if leaf == nil {
		return it, nil
	}

	pos := lowerBound(leaf.entries, target, t.cmp)
	if pos < leaf.keyCount() {
		it.leafID = leaf.PageID
		it.index = pos
		it.valid = true
		return it, nil
	}

	nextID := leaf.NextLeafID
	t.unpin(leaf.PageID)
	return it, it.seekFirstNonEmpty(nextID)
}

// seekFirstNonEmpty walks forward over the leaf chain starting at id
// until it finds a non-empty leaf (or runs out), pinning the one it
// settles on.
func (it *Iterator) seekFirstNonEmpty(id int32) error {
	for id >= 0 {
		leaf, err := it.tree.pinGet(id)
		if err != nil {
			return err
		}
		if leaf.keyCount() > 0 {
			it.leafID = id
			it.index = 0
			it.valid = true
			return nil
		}
		next := leaf.NextLeafID
		it.tree.unpin(id)
		id = next
	}
	return nil
}

// Next advances the iterator. Returns false when the scan is exhausted.
func (it *Iterator) Next() (bool, error) {
	if !it.valid {
		return false, nil
	}

	leaf, err := it.tree.cache.Get(it.leafID)
	if err != nil {
		return false, err
	}
	it.index++
	if it.index < leaf.keyCount() {
		return true, nil
	}

	nextID := leaf.NextLeafID
	it.tree.unpin(it.leafID)
	it.valid = false
	it.leafID = -1

	if nextID < 0 {
		return false, nil
	}
	if err := it.seekFirstNonEmpty(nextID); err != nil {
		return false, err
	}
	return it.valid, nil
}

// Key returns the current entry's key.
func (it *Iterator) Key() ([]byte, error) {
	if !it.valid {
		return nil, nil
	}
	leaf, err := it.tree.cache.Get(it.leafID)
	if err != nil {
		return nil, err
	}
	return leaf.entries[it.index].keyBytes(), nil
}

// Value returns the current entry's value.
func (it *Iterator) Value() ([]byte, error) {
	if !it.valid {
		return nil, nil
	}
	leaf, err := it.tree.cache.Get(it.leafID)
	if err != nil {
		return nil, err
	}
	return leaf.entries[it.index].valueBytes(), nil
}

// Close releases the pin on the current leaf, if any. Safe to call more
// than once.
func (it *Iterator) Close() error {
	if it.valid {
		it.tree.unpin(it.leafID)
		it.valid = false
	}
	return nil
}
