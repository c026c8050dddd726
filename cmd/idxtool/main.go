// Command idxtool is a small diagnostic entry point over the index
// engine: open a file, insert or look up a record, or dump the tree
// structure. It has no SQL layer and no catalog — it drives the library
// API in bplustree directly, the way a front end embedding this package
// would.
package main

import (
	"fmt"
	"os"

	"github.com/pqcqaq/data-storage-b-plus-tree/bplustree"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  idxtool dump <path>")
	fmt.Fprintln(os.Stderr, "  idxtool get <path> <key>")
	fmt.Fprintln(os.Stderr, "  idxtool put <path> <key> <value>")
	fmt.Fprintln(os.Stderr, "  idxtool stats <path>")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 3 {
		usage()
	}

	cmd, path := os.Args[1], os.Args[2]

	switch cmd {
	case "dump":
		if err := bplus.InspectIndexFile(path); err != nil {
			fatal(err)
		}
	case "get":
		if len(os.Args) != 4 {
			usage()
		}
		runGet(path, os.Args[3])
	case "put":
		if len(os.Args) != 5 {
			usage()
		}
		runPut(path, os.Args[3], os.Args[4])
	case "stats":
		runStats(path)
	default:
		usage()
	}
}

func openTree(path string) *bplus.BPlusTree {
	t, err := bplus.Create(path, bplus.DefaultOptions())
	if err != nil {
		fatal(err)
	}
	return t
}

func runGet(path, key string) {
	t := openTree(path)
	defer t.Close()

	values, err := t.Get([]byte(key))
	if err != nil {
		fatal(err)
	}
	if len(values) == 0 {
		fmt.Printf("%s: not found\n", key)
		return
	}
	fmt.Printf("%s -> %s\n", key, values[0])
}

func runPut(path, key, value string) {
	t := openTree(path)
	defer t.Close()

	ok, err := t.Insert([]byte(key), []byte(value), bplus.NewRowID())
	if err != nil {
		fatal(err)
	}
	if !ok {
		fatal(fmt.Errorf("insert failed"))
	}
	if _, err := t.FlushBuffer(); err != nil {
		fatal(err)
	}
	fmt.Printf("%s -> %s\n", key, value)
}

func runStats(path string) {
	t := openTree(path)
	defer t.Close()

	stats, err := t.Stats()
	if err != nil {
		fatal(err)
	}
	fmt.Printf("height=%d node_count=%d fill_factor=%.3f split_count=%d merge_count=%d file_write_count=%d\n",
		stats.Height, stats.NodeCount, stats.FillFactor, stats.SplitCount, stats.MergeCount, stats.FileWriteCount)

	bp := t.BufferPoolStats()
	fmt.Printf("buffer pool: resident=%d/%d dirty=%d pinned=%d hit_ratio=%.3f\n",
		bp.Resident, bp.Capacity, bp.Dirty, bp.Pinned, bp.HitRatio)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "idxtool:", err)
	os.Exit(1)
}
