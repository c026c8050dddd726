package bplus

import "errors"

// Sentinel error kinds. Wrap with fmt.Errorf("...: %w", ErrX) at the point
// of detection so callers can errors.Is/errors.As while still getting a
// specific message.
var (
	// ErrIoError covers file open, seek, read, or write failures.
	ErrIoError = errors.New("bplus: io error")

	// ErrCorruptMetadata is returned by Open when the metadata record fails
	// a non-negativity or sanity check.
	ErrCorruptMetadata = errors.New("bplus: corrupt metadata")

	// ErrCapacityExhausted is returned when next_page_id would exceed the
	// implementation ceiling.
	ErrCapacityExhausted = errors.New("bplus: capacity exhausted")

	// ErrInvariantViolation is returned when the engine detects a
	// structural inconsistency mid-operation (e.g. parent does not list a
	// child it is expected to).
	ErrInvariantViolation = errors.New("bplus: invariant violation")
)

// maxPageID is the implementer-chosen sanity ceiling for AllocatePage.
const maxPageID = 1<<31 - 2
