// Debug/inspection helpers for dumping an index file's structure without
// needing a live *BPlusTree.

package bplus

import (
	"fmt"
	"io"
	"os"

	"github.com/pqcqaq/data-storage-b-plus-tree/internal/xlog"
)

// InspectIndexFile opens indexPath and prints a human-readable BFS dump
// of its structure to stdout.
func InspectIndexFile(indexPath string) error {
	return InspectIndexFileTo(os.Stdout, indexPath)
}

// InspectIndexFileTo writes the dump to w: the metadata record, then
// every node level by level, leaves showing key -> (row_id, value).
func InspectIndexFileTo(w io.Writer, indexPath string) error {
	pager, err := OpenPager(indexPath, xlog.Nop{})
	if err != nil {
		return err
	}
	defer pager.Close()

	p := func(format string, args ...interface{}) { fmt.Fprintf(w, format, args...) }
	pln := func(s string) { fmt.Fprintln(w, s) }

	p("Index file: %s\n", indexPath)
	p("  metadata: root_page_id=%d next_page_id=%d page_count=%d split_count=%d merge_count=%d\n",
		pager.meta.RootPageID, pager.meta.NextPageID, pager.meta.PageCount, pager.meta.SplitCount, pager.meta.MergeCount)

	if pager.meta.RootPageID < 0 {
		pln("  (empty tree)")
		return nil
	}

	pln("\n  Nodes (BFS):")
	pln("  ---")

	queue := []int32{pager.meta.RootPageID}
	level := 0
	for len(queue) > 0 {
		size := len(queue)
		p("  Level %d:\n", level)
		for i := 0; i < size; i++ {
			pageID := queue[i]
			page, err := pager.ReadPage(pageID)
			if err != nil {
				p("    [page %d] read error: %v\n", pageID, err)
				continue
			}
			node, err := decodeNode(page, pageID)
			if err != nil {
				p("    [page %d] decode error: %v\n", pageID, err)
				continue
			}

			if !node.IsLeaf {
				keys := make([]string, node.keyCount())
				for j := range node.entries {
					keys[j] = string(node.entries[j].keyBytes())
				}
				p("    [page %d] INTERNAL parent=%d keys=%v children=%v\n",
					pageID, node.ParentID, keys, node.children)
				queue = append(queue, node.children...)
			} else {
				p("    [page %d] LEAF parent=%d key_count=%d next=%d\n",
					pageID, node.ParentID, node.keyCount(), node.NextLeafID)
				for j := range node.entries {
					e := &node.entries[j]
					p("      %q -> row_id=%q value=%q\n", e.keyBytes(), e.rowIDBytes(), e.valueBytes())
				}
			}
		}
		pln("  ---")
		queue = queue[size:]
		level++
	}

	return nil
}

// PrintTree dumps the live tree (going through the buffer pool, so it
// reflects any unflushed in-memory mutations) to w.
func (t *BPlusTree) PrintTree(w io.Writer) error {
	if t.root < 0 {
		fmt.Fprintln(w, "(empty tree)")
		return nil
	}

	queue := []int32{t.root}
	level := 0
	for len(queue) > 0 {
		size := len(queue)
		fmt.Fprintf(w, "Level %d:\n", level)
		for i := 0; i < size; i++ {
			id := queue[i]
			n, err := t.pinGet(id)
			if err != nil {
				return err
			}
			if n.IsLeaf {
				fmt.Fprintf(w, "  [leaf %d] key_count=%d next=%d\n", id, n.keyCount(), n.NextLeafID)
			} else {
				keys := make([]string, n.keyCount())
				for j := range n.entries {
					keys[j] = string(n.entries[j].keyBytes())
				}
				fmt.Fprintf(w, "  [internal %d] keys=%v children=%v\n", id, keys, n.children)
				queue = append(queue, n.children...)
			}
			t.unpin(id)
		}
		queue = queue[size:]
		level++
	}
	return nil
}
