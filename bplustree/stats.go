package bplus

// TreeStats reports the engine-level counters and derived metrics named
// in spec §4.3.4/§6. Unlike the buffer pool's Stats, none of this has an
// analogue anywhere in the retrieval corpus's B+ tree packages; it is
// built directly from the reference design's TreeStats struct and the
// formulas spec §4.3.4 gives.
type TreeStats struct {
	Height         int
	NodeCount      int
	FillFactor     float64
	FileWriteCount uint64
	SplitCount     int64
	MergeCount     int64
}

// Stats computes the current tree statistics. Height and the BFS walk
// backing NodeCount/FillFactor are iterative to bound stack use, per spec
// §4.3.4.
func (t *BPlusTree) Stats() (TreeStats, error) {
	s := TreeStats{
		FileWriteCount: t.pager.FileWriteCount(),
		SplitCount:     int64(t.pager.meta.SplitCount),
		MergeCount:     int64(t.pager.meta.MergeCount),
	}
	if t.root < 0 {
		return s, nil
	}

	height, err := t.height()
	if err != nil {
		return s, err
	}
	s.Height = height

	nodeCount, sumKeys, sumMax, err := t.bfsCounts()
	if err != nil {
		return s, err
	}
	s.NodeCount = nodeCount
	if sumMax > 0 {
		s.FillFactor = float64(sumKeys) / float64(sumMax)
	}
	return s, nil
}

// height walks the leftmost spine from root to leaf, iteratively.
func (t *BPlusTree) height() (int, error) {
	height := 0
	id := t.root
	for {
		height++
		n, err := t.pinGet(id)
		if err != nil {
			return 0, err
		}
		isLeaf := n.IsLeaf
		var next int32
		if !isLeaf {
			next = n.children[0]
		}
		t.unpin(id)
		if isLeaf {
			return height, nil
		}
		id = next
	}
}

// bfsCounts walks every live node reachable from the root, used for
// NodeCount and FillFactor (sum key_count / sum MaxKeys across all
// resident-or-not nodes, loaded on demand through the buffer pool).
func (t *BPlusTree) bfsCounts() (nodeCount, sumKeys, sumMax int, err error) {
	if t.root < 0 {
		return 0, 0, 0, nil
	}
	queue := []int32{t.root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		n, err := t.pinGet(id)
		if err != nil {
			return 0, 0, 0, err
		}
		nodeCount++
		sumKeys += n.keyCount()
		sumMax += MaxKeys
		if !n.IsLeaf {
			queue = append(queue, n.children...)
		}
		t.unpin(id)
	}
	return nodeCount, sumKeys, sumMax, nil
}

// BufferPoolStats exposes the buffer pool's own observability counters.
func (t *BPlusTree) BufferPoolStats() Stats {
	return t.cache.Stats()
}
