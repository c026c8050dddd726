package bplus

// PageHeader is the fixed layout at the start of every page.
type PageHeader struct {
	PageID     int32 // >= 0 for valid pages, -1 sentinel elsewhere
	ParentID   int32 // -1 for root
	IsLeaf     bool
	KeyCount   int32
	NextLeafID int32 // leaves only; -1 terminates the list
}

// Node is the in-memory representation of one resident page.
type Node struct {
	PageHeader
	entries  []KeyValue // key_count records, ascending by key
	children []int32    // internal only, len == key_count+1

	dirty    bool
	pinCount int
}

// NewNode allocates an empty node of the given kind. The caller is
// responsible for assigning a page id once one has been allocated by the
// pager.
func NewNode(nodeType NodeType) *Node {
	n := &Node{
		PageHeader: PageHeader{
			PageID:     -1,
			ParentID:   -1,
			IsLeaf:     nodeType == NodeLeaf,
			NextLeafID: -1,
		},
		entries: make([]KeyValue, 0, MaxKeys+1),
	}
	if nodeType == NodeInternal {
		n.children = make([]int32, 0, MaxKeys+2)
	}
	return n
}

func (n *Node) nodeType() NodeType {
	if n.IsLeaf {
		return NodeLeaf
	}
	return NodeInternal
}

func (n *Node) keyCount() int {
	return len(n.entries)
}

// keyAt returns the live key bytes for entry i.
func (n *Node) keyAt(i int) []byte {
	return n.entries[i].keyBytes()
}
