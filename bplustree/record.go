package bplus

import "github.com/google/uuid"

// KeyValue is the fixed-width on-disk entry stored in both leaf and
// internal pages. In an internal page only Key is structurally meaningful
// for routing; RowID and Value are carried but not consulted.
type KeyValue struct {
	Key   [KeySize]byte
	RowID [RowIDSize]byte
	Value [ValueSize]byte
}

// keyBytes returns the live prefix of Key up to the first null byte, or the
// full array if it was truncated to exactly KeySize on write.
func (kv *KeyValue) keyBytes() []byte {
	return trimField(kv.Key[:])
}

func (kv *KeyValue) valueBytes() []byte {
	return trimField(kv.Value[:])
}

func (kv *KeyValue) rowIDBytes() []byte {
	return trimField(kv.RowID[:])
}

func trimField(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}

// putField truncates src at len(dst)-1 (preserving a terminating null) or
// null-pads it, per spec §3's fixed-width KeyValue record semantics.
func putField(dst []byte, src []byte) {
	for i := range dst {
		dst[i] = 0
	}
	n := len(src)
	if n > len(dst)-1 {
		n = len(dst) - 1
	}
	copy(dst, src[:n])
}

// newKeyValue builds a KeyValue record, truncating/padding each field to
// its fixed width.
func newKeyValue(key, value, rowID []byte) KeyValue {
	var kv KeyValue
	putField(kv.Key[:], key)
	putField(kv.Value[:], value)
	putField(kv.RowID[:], rowID)
	return kv
}

// NewRowID mints a fresh row identifier: a UUID's 16 raw bytes hex-encoded
// to exactly 32 ASCII characters, filling RowIDSize with no truncation.
func NewRowID() []byte {
	id := uuid.New()
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 32)
	for i, b := range id {
		out[i*2] = hexDigits[b>>4]
		out[i*2+1] = hexDigits[b&0x0f]
	}
	return out
}
