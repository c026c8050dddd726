package bplus

// findLeaf descends from the root to the leaf that would hold key,
// pinning it before returning. Per spec §4.3.1, when the search position
// lands on a key equal to the query the descent goes right
// (children[pos+1]): the separator's copy lives at the leftmost leaf of
// its right subtree, so equal keys always route rightward. Callers must
// Unpin the returned node's id.
func (t *BPlusTree) findLeaf(key []byte) (*Node, error) {
	if t.root < 0 {
		return nil, nil
	}

	id := t.root
	for {
		n, err := t.pinGet(id)
		if err != nil {
			return nil, err
		}
		if n.IsLeaf {
			return n, nil
		}

		pos := lowerBound(n.entries, key, t.cmp)
		var next int32
		if pos < n.keyCount() && t.cmp(n.keyAt(pos), key) == 0 {
			next = n.children[pos+1]
		} else {
			next = n.children[pos]
		}
		t.unpin(id)
		id = next
	}
}

// Get returns the values whose key equals the query: empty if absent, a
// single element under this design's unique-key invariant. The sequence
// return type is reserved shape for a possible future non-unique index,
// per spec §4.3.1/§9.
func (t *BPlusTree) Get(key []byte) ([][]byte, error) {
	leaf, err := t.findLeaf(key)
	if err != nil {
		return nil, err
	}
	if leaf == nil {
		return nil, nil
	}
	defer t.unpin(leaf.PageID)

	for i := range leaf.entries {
		if t.cmp(leaf.entries[i].keyBytes(), key) == 0 {
			return [][]byte{leaf.entries[i].valueBytes()}, nil
		}
	}
	return nil, nil
}
