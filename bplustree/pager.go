package bplus

import (
	"fmt"
	"os"

	"github.com/pqcqaq/data-storage-b-plus-tree/internal/xlog"
)

// Pager owns the index file: a fixed MetadataSize region at offset 0
// followed by fixed-width pages. It is the sole component that knows the
// mapping between a page id and a file offset.
type Pager struct {
	file *os.File
	path string
	meta Metadata

	fileWriteCount uint64
	log            xlog.Logger
}

// OpenPager opens an existing index file or creates a fresh one. A fresh
// file gets a fresh metadata record (empty tree: root_page_id=-1,
// next_page_id=1, counters zero). An
// existing file with a metadata record that fails a sanity check is
// refused with ErrCorruptMetadata rather than silently reinitialized —
// spec §4.1 calls this the clearer failure and prefers it over the
// reference source's log-and-reinitialize behavior.
func OpenPager(path string, log xlog.Logger) (*Pager, error) {
	if log == nil {
		log = xlog.Nop{}
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrIoError, path, err)
	}

	p := &Pager{file: file, path: path, log: log}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", ErrIoError, path, err)
	}

	if stat.Size() == 0 {
		p.meta = newMetadata()
		if err := p.SaveMetadata(); err != nil {
			file.Close()
			return nil, err
		}
		log.Info("pager: created fresh index file", "path", path)
		return p, nil
	}

	if err := p.LoadMetadata(); err != nil {
		file.Close()
		return nil, err
	}
	if !p.meta.valid() {
		file.Close()
		return nil, fmt.Errorf("%w: %s: negative field in metadata record", ErrCorruptMetadata, path)
	}
	log.Info("pager: opened existing index file", "path", path, "root_page_id", p.meta.RootPageID, "next_page_id", p.meta.NextPageID)
	return p, nil
}

func (p *Pager) pageOffset(id int32) int64 {
	return int64(MetadataSize) + int64(id)*int64(PageSize)
}

// ReadPage reads exactly PageSize bytes for id. A short read (the slot was
// never written, e.g. a freshly extended file) is treated as a zero-filled
// page; any other I/O error is a hard ErrIoError per open question (c) —
// the reference source instead masked all read errors to a zero page,
// which can silently hide real corruption.
func (p *Pager) ReadPage(id int32) ([]byte, error) {
	if p.file == nil {
		return nil, fmt.Errorf("%w: pager closed", ErrIoError)
	}

	page := make([]byte, PageSize)
	n, err := p.file.ReadAt(page, p.pageOffset(id))
	if err != nil {
		if isShortRead(err, n) {
			return page, nil
		}
		return nil, fmt.Errorf("%w: read page %d: %v", ErrIoError, id, err)
	}
	return page, nil
}

func isShortRead(err error, n int) bool {
	return n < PageSize && isEOF(err)
}

// WritePage writes exactly PageSize bytes for id and increments the
// write-count observability counter.
func (p *Pager) WritePage(id int32, data []byte) error {
	if p.file == nil {
		return fmt.Errorf("%w: pager closed", ErrIoError)
	}
	if len(data) != PageSize {
		return fmt.Errorf("%w: write page %d: got %d bytes, want %d", ErrInvariantViolation, id, len(data), PageSize)
	}

	if _, err := p.file.WriteAt(data, p.pageOffset(id)); err != nil {
		return fmt.Errorf("%w: write page %d: %v", ErrIoError, id, err)
	}
	p.fileWriteCount++
	return nil
}

// AllocatePage returns the next page id and advances the counter. The
// slot itself is not pre-zeroed on disk; ReadPage's short-read handling
// covers it until the caller's first WritePage.
func (p *Pager) AllocatePage() (int32, error) {
	if p.meta.NextPageID >= maxPageID {
		return 0, ErrCapacityExhausted
	}
	id := p.meta.NextPageID
	p.meta.NextPageID++
	p.meta.PageCount++
	return id, nil
}

// SaveMetadata persists the metadata record to offset 0.
func (p *Pager) SaveMetadata() error {
	if p.file == nil {
		return fmt.Errorf("%w: pager closed", ErrIoError)
	}
	buf := encodeMetadata(p.meta)
	if _, err := p.file.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("%w: write metadata: %v", ErrIoError, err)
	}
	return nil
}

// LoadMetadata reads and decodes the metadata record from offset 0.
func (p *Pager) LoadMetadata() error {
	buf := make([]byte, MetadataSize)
	if _, err := p.file.ReadAt(buf, 0); err != nil {
		return fmt.Errorf("%w: read metadata: %v", ErrIoError, err)
	}
	p.meta = decodeMetadata(buf)
	return nil
}

// Sync flushes pending writes (data and metadata) to stable storage.
func (p *Pager) Sync() error {
	if p.file == nil {
		return fmt.Errorf("%w: pager closed", ErrIoError)
	}
	if err := p.file.Sync(); err != nil {
		return fmt.Errorf("%w: sync: %v", ErrIoError, err)
	}
	return nil
}

// Close persists metadata, syncs, and releases the file handle.
func (p *Pager) Close() error {
	if p.file == nil {
		return nil
	}
	if err := p.SaveMetadata(); err != nil {
		p.file.Close()
		p.file = nil
		return err
	}
	if err := p.file.Sync(); err != nil {
		p.file.Close()
		p.file = nil
		return fmt.Errorf("%w: sync before close: %v", ErrIoError, err)
	}
	err := p.file.Close()
	p.file = nil
	return err
}

func (p *Pager) FileWriteCount() uint64 { return p.fileWriteCount }
