package ident

import (
	"context"
	"fmt"
	"sync"
)

const defaultMaxAttempts = 10

// SequenceStore is the slice of the persistence layer the allocator needs:
// the current maximum sequence for a base id, and an existence probe for the
// pre-commit uniqueness re-check.
type SequenceStore interface {
	// MaxSequence returns the highest committed sequence number for the
	// given base id, or 0 when none exists.
	MaxSequence(ctx context.Context, baseID string) (int, error)

	// Exists reports whether a record with the given full identifier is
	// already committed.
	Exists(ctx context.Context, questionID string) (bool, error)
}

// Allocator hands out sequence numbers per identifier prefix.
//
// The first request for a base id seeds an in-memory counter from the
// store's current maximum; later requests for the same base id increment
// locally, so a batch of sibling records costs one store query per prefix
// instead of one per record. Allocation is serialized under a mutex, which
// is what keeps concurrent commits within one batch collision-free.
type Allocator struct {
	store       SequenceStore
	maxAttempts int

	mu   sync.Mutex
	next map[string]int // next unassigned sequence per base id
}

// AllocatorOption configures an Allocator.
type AllocatorOption func(*Allocator)

// WithMaxAttempts bounds the collision-retry loop in Reserve.
func WithMaxAttempts(n int) AllocatorOption {
	return func(a *Allocator) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

// NewAllocator creates an allocator backed by the given store.
func NewAllocator(store SequenceStore, opts ...AllocatorOption) (*Allocator, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	a := &Allocator{
		store:       store,
		maxAttempts: defaultMaxAttempts,
		next:        make(map[string]int),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Next returns the next identifier for the base id without checking the
// store for collisions. Callers that commit must use Reserve instead.
func (a *Allocator) Next(ctx context.Context, baseID string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nextLocked(ctx, baseID)
}

// Reserve returns the next identifier that is verifiably unused in the
// store. On collision it advances to the following sequence, up to the
// configured attempt bound. Collisions happen when a concurrent batch
// committed the same prefix after this allocator was seeded.
func (a *Allocator) Reserve(ctx context.Context, baseID string) (string, error) {
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		id, err := a.Next(ctx, baseID)
		if err != nil {
			return "", err
		}
		exists, err := a.store.Exists(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: base id %s after %d attempts",
		ErrAllocationExhausted, baseID, a.maxAttempts)
}

// Forget drops the in-memory counter for a base id so the next request
// re-seeds from the store. Used after a store-level duplicate rejection,
// which means the local counter has fallen behind a concurrent batch.
func (a *Allocator) Forget(baseID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.next, baseID)
}

func (a *Allocator) nextLocked(ctx context.Context, baseID string) (string, error) {
	seq, seeded := a.next[baseID]
	if !seeded {
		maxSeq, err := a.store.MaxSequence(ctx, baseID)
		if err != nil {
			return "", fmt.Errorf("seeding sequence for %s: %w", baseID, err)
		}
		seq = maxSeq + 1
	}
	a.next[baseID] = seq + 1
	return FormatID(baseID, seq), nil
}
