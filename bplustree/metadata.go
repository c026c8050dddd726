package bplus

import "encoding/binary"

// Metadata is the tree-level record persisted at file offset 0.
type Metadata struct {
	RootPageID int32
	NextPageID int32
	PageCount  int32
	SplitCount int32
	MergeCount int32
}

// newMetadata is the fresh-file default: empty tree, first allocatable id
// is 1 (id 0 sits just past the metadata region and is left unused, per
// spec §6's on-disk layout note).
func newMetadata() Metadata {
	return Metadata{RootPageID: -1, NextPageID: 1}
}

func (m Metadata) valid() bool {
	return m.NextPageID >= 0 && m.PageCount >= 0 && m.SplitCount >= 0 && m.MergeCount >= 0
}

func encodeMetadata(m Metadata) []byte {
	buf := make([]byte, MetadataSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(m.RootPageID))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(m.NextPageID))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(m.PageCount))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(m.SplitCount))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(m.MergeCount))
	return buf
}

func decodeMetadata(buf []byte) Metadata {
	return Metadata{
		RootPageID: int32(binary.LittleEndian.Uint32(buf[0:4])),
		NextPageID: int32(binary.LittleEndian.Uint32(buf[4:8])),
		PageCount:  int32(binary.LittleEndian.Uint32(buf[8:12])),
		SplitCount: int32(binary.LittleEndian.Uint32(buf[12:16])),
		MergeCount: int32(binary.LittleEndian.Uint32(buf[16:20])),
	}
}
