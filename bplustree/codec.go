package bplus

import (
	"encoding/binary"
	"fmt"
)

// encodeNode serializes a Node into a fresh PageSize buffer:
//
//	offset 0            PageHeader (page_id, parent_id, is_leaf, key_count, next_leaf_id)
//	offset HeaderSize    key_count KeyValue records, ascending
//	after records        (internal only) key_count+1 int32 child ids, -1-padded
func encodeNode(node *Node) ([]byte, error) {
	if node.keyCount() > MaxKeys {
		return nil, fmt.Errorf("%w: node %d has %d keys, max %d", ErrInvariantViolation, node.PageID, node.keyCount(), MaxKeys)
	}

	page := make([]byte, PageSize)
	binary.LittleEndian.PutUint32(page[0:4], uint32(node.PageID))
	binary.LittleEndian.PutUint32(page[4:8], uint32(node.ParentID))
	if node.IsLeaf {
		page[8] = 1
	}
	binary.LittleEndian.PutUint32(page[12:16], uint32(node.keyCount()))
	binary.LittleEndian.PutUint32(page[16:20], uint32(node.NextLeafID))

	offset := HeaderSize
	for i := range node.entries {
		e := &node.entries[i]
		copy(page[offset:], e.Key[:])
		copy(page[offset+KeySize:], e.RowID[:])
		copy(page[offset+KeySize+RowIDSize:], e.Value[:])
		offset += recordSize
	}

	if !node.IsLeaf {
		n := node.keyCount() + 1
		for i := 0; i < n; i++ {
			var id int32 = -1
			if i < len(node.children) {
				id = node.children[i]
			}
			binary.LittleEndian.PutUint32(page[offset:], uint32(id))
			offset += 4
		}
	}

	if offset > PageSize {
		return nil, fmt.Errorf("%w: node %d serialized to %d bytes, page is %d", ErrInvariantViolation, node.PageID, offset, PageSize)
	}

	return page, nil
}

// decodeNode is the inverse of encodeNode. The returned node is clean
// (dirty=false, pinCount=0).
func decodeNode(page []byte, pageID int32) (*Node, error) {
	if len(page) != PageSize {
		return nil, fmt.Errorf("%w: page size mismatch: expected %d, got %d", ErrIoError, PageSize, len(page))
	}

	n := &Node{}
	n.PageID = int32(binary.LittleEndian.Uint32(page[0:4]))
	n.ParentID = int32(binary.LittleEndian.Uint32(page[4:8]))
	n.IsLeaf = page[8] != 0
	keyCount := int32(binary.LittleEndian.Uint32(page[12:16]))
	n.NextLeafID = int32(binary.LittleEndian.Uint32(page[16:20]))

	if keyCount < 0 || int(keyCount) > MaxKeys {
		return nil, fmt.Errorf("%w: page %d key_count %d out of range", ErrCorruptMetadata, pageID, keyCount)
	}

	offset := HeaderSize
	n.entries = make([]KeyValue, keyCount)
	for i := 0; i < int(keyCount); i++ {
		copy(n.entries[i].Key[:], page[offset:offset+KeySize])
		copy(n.entries[i].RowID[:], page[offset+KeySize:offset+KeySize+RowIDSize])
		copy(n.entries[i].Value[:], page[offset+KeySize+RowIDSize:offset+recordSize])
		offset += recordSize
	}

	if !n.IsLeaf {
		n.children = make([]int32, keyCount+1)
		for i := 0; i < int(keyCount)+1; i++ {
			n.children[i] = int32(binary.LittleEndian.Uint32(page[offset:]))
			offset += 4
		}
	}

	// A freshly-allocated page decodes to page_id 0 (all zero bytes); the
	// caller (BufferPool.Get) always knows which id it asked for and
	// should prefer that identity over the header's, but fill it in here
	// too so a standalone decode is self-consistent.
	if n.PageID == 0 && pageID != 0 {
		n.PageID = pageID
	}

	return n, nil
}
