package ident

import "errors"

var (
	// ErrStoreRequired is returned when an allocator is built without a store.
	ErrStoreRequired = errors.New("sequence store required")

	// ErrAllocationExhausted is returned when every candidate sequence in the
	// retry budget was already taken.
	ErrAllocationExhausted = errors.New("identifier allocation exhausted")
)
