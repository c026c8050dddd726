package bplus

import (
	"errors"
	"io"
)

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// lowerBound returns the index of the first entry whose key is >= target,
// or len(keys) if none.
func lowerBound(entries []KeyValue, target []byte, cmp func(a, b []byte) int) int {
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if cmp(entries[mid].keyBytes(), target) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
