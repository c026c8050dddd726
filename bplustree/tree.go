// Package bplus implements a disk-backed, single-threaded B+ tree index
// with a fixed-size buffer pool. It maps variable-length string keys to a
// single value payload plus a row identifier, persisted to one file and
// reopenable across process restarts.
package bplus

import (
	"bytes"
	"fmt"

	"github.com/pqcqaq/data-storage-b-plus-tree/internal/xlog"
)

// Options configures a tree at construction time. PageSize/MetadataSize/
// KeySize/RowIDSize/ValueSize are compile-time constants in this build
// (see constants.go) but are still accepted here, per the reference
// codebase's preference for explicit constructor parameters: a caller
// that passes a value inconsistent with the compiled geometry gets a
// clear error instead of silent truncation.
type Options struct {
	PageSize           int
	MetadataSize       int
	KeySize            int
	RowIDSize          int
	ValueSize          int
	BufferPoolCapacity int
	Logger             xlog.Logger
}

// DefaultOptions returns Options matching this build's compiled geometry
// with a buffer pool capacity of 100, per spec §4.2's default.
func DefaultOptions() Options {
	return Options{
		PageSize:           PageSize,
		MetadataSize:       MetadataSize,
		KeySize:            KeySize,
		RowIDSize:          RowIDSize,
		ValueSize:          ValueSize,
		BufferPoolCapacity: 100,
	}
}

func (o Options) validate() error {
	if o.PageSize != 0 && o.PageSize != PageSize {
		return fmt.Errorf("%w: Options.PageSize %d does not match compiled PageSize %d", ErrInvariantViolation, o.PageSize, PageSize)
	}
	if o.MetadataSize != 0 && o.MetadataSize != MetadataSize {
		return fmt.Errorf("%w: Options.MetadataSize %d does not match compiled MetadataSize %d", ErrInvariantViolation, o.MetadataSize, MetadataSize)
	}
	if o.KeySize != 0 && o.KeySize != KeySize {
		return fmt.Errorf("%w: Options.KeySize %d does not match compiled KeySize %d", ErrInvariantViolation, o.KeySize, KeySize)
	}
	if o.RowIDSize != 0 && o.RowIDSize != RowIDSize {
		return fmt.Errorf("%w: Options.RowIDSize %d does not match compiled RowIDSize %d", ErrInvariantViolation, o.RowIDSize, RowIDSize)
	}
	if o.ValueSize != 0 && o.ValueSize != ValueSize {
		return fmt.Errorf("%w: Options.ValueSize %d does not match compiled ValueSize %d", ErrInvariantViolation, o.ValueSize, ValueSize)
	}
	return nil
}

// BPlusTree is the top-level index handle: pager, buffer pool, and the
// root pointer, single-threaded per spec §5 (no internal locking).
type BPlusTree struct {
	root  int32
	pager *Pager
	cache *BufferPool
	cmp   func(a, b []byte) int
	log   xlog.Logger
}

// Create opens or creates the index file at path with the given options
// and returns a ready-to-use tree, matching the reference library's
// create(path, page_size, buffer_pool_size) signature (folded here into
// one Options struct).
func Create(path string, opts Options) (*BPlusTree, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = xlog.Nop{}
	}
	capacity := opts.BufferPoolCapacity
	if capacity <= 0 {
		capacity = DefaultOptions().BufferPoolCapacity
	}

	pager, err := OpenPager(path, log)
	if err != nil {
		return nil, err
	}

	cache := NewBufferPool(capacity, log)
	cache.SetPager(pager)

	t := &BPlusTree{
		root:  pager.meta.RootPageID,
		pager: pager,
		cache: cache,
		cmp:   bytes.Compare,
		log:   log,
	}
	return t, nil
}

// Close flushes dirty pages, persists metadata, and releases the file.
func (t *BPlusTree) Close() error {
	if _, err := t.cache.Flush(); err != nil {
		return err
	}
	return t.pager.Close()
}

// FlushBuffer flushes all dirty resident pages and returns the count
// flushed, without closing the file.
func (t *BPlusTree) FlushBuffer() (int, error) {
	return t.cache.Flush()
}

// SetBufferPoolSize is not supported for a live resize in this
// implementation: capacity is fixed for the buffer pool's lifetime (spec
// §4.2 treats capacity as pool state established at construction, and a
// live resize would need to synchronously evict or grow the LRU list
// mid-operation, which no example in the corpus attempts). Present for
// interface parity with spec §6; returns ErrInvariantViolation if asked
// to actually change the size.
func (t *BPlusTree) SetBufferPoolSize(n int) error {
	if n == t.cache.Capacity() {
		return nil
	}
	return fmt.Errorf("%w: buffer pool capacity is fixed after Create", ErrInvariantViolation)
}

func (t *BPlusTree) saveRoot() error {
	t.pager.meta.RootPageID = t.root
	return t.pager.SaveMetadata()
}

// pinGet loads (or fetches) node id and pins it. Callers must Unpin.
func (t *BPlusTree) pinGet(id int32) (*Node, error) {
	n, err := t.cache.Get(id)
	if err != nil {
		return nil, err
	}
	if err := t.cache.Pin(id); err != nil {
		return nil, err
	}
	return n, nil
}

func (t *BPlusTree) unpin(id int32) {
	_ = t.cache.Unpin(id)
}
