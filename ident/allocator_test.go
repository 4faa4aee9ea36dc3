package ident

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory SequenceStore.
type fakeStore struct {
	mu       sync.Mutex
	maxSeq   map[string]int
	existing map[string]bool
	maxCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		maxSeq:   make(map[string]int),
		existing: make(map[string]bool),
	}
}

func (s *fakeStore) MaxSequence(_ context.Context, baseID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxCalls++
	return s.maxSeq[baseID], nil
}

func (s *fakeStore) Exists(_ context.Context, questionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.existing[questionID], nil
}

func TestAllocatorSeedsFromStore(t *testing.T) {
	store := newFakeStore()
	store.maxSeq["DCF-WACC-B-G"] = 7

	a, err := NewAllocator(store)
	require.NoError(t, err)

	ctx := context.Background()
	id, err := a.Next(ctx, "DCF-WACC-B-G")
	require.NoError(t, err)
	assert.Equal(t, "DCF-WACC-B-G-008", id)

	// Subsequent allocations increment locally without a store round-trip.
	id, err = a.Next(ctx, "DCF-WACC-B-G")
	require.NoError(t, err)
	assert.Equal(t, "DCF-WACC-B-G-009", id)
	assert.Equal(t, 1, store.maxCalls)
}

func TestAllocatorConcurrentUniqueness(t *testing.T) {
	store := newFakeStore()
	a, err := NewAllocator(store)
	require.NoError(t, err)

	const workers = 32
	ctx := context.Background()

	ids := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := a.Next(ctx, "EQ-VAL-B-D")
			if err != nil {
				t.Error(err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers)
}

func TestReserveSkipsTakenIDs(t *testing.T) {
	store := newFakeStore()
	store.maxSeq["EQ-VAL-B-D"] = 2
	// A concurrent batch committed 003 and 004 after our seed point.
	store.existing["EQ-VAL-B-D-003"] = true
	store.existing["EQ-VAL-B-D-004"] = true

	a, err := NewAllocator(store)
	require.NoError(t, err)

	id, err := a.Reserve(context.Background(), "EQ-VAL-B-D")
	require.NoError(t, err)
	assert.Equal(t, "EQ-VAL-B-D-005", id)
}

func TestReserveExhaustion(t *testing.T) {
	store := newFakeStore()
	for i := 1; i <= 3; i++ {
		store.existing[FormatID("EQ-VAL-B-D", i)] = true
	}

	a, err := NewAllocator(store, WithMaxAttempts(3))
	require.NoError(t, err)

	_, err = a.Reserve(context.Background(), "EQ-VAL-B-D")
	assert.ErrorIs(t, err, ErrAllocationExhausted)
}

func TestForgetReseeds(t *testing.T) {
	store := newFakeStore()
	a, err := NewAllocator(store)
	require.NoError(t, err)

	ctx := context.Background()
	id, err := a.Next(ctx, "EQ-VAL-B-D")
	require.NoError(t, err)
	assert.Equal(t, "EQ-VAL-B-D-001", id)

	// A concurrent writer advanced the store past our counter.
	store.mu.Lock()
	store.maxSeq["EQ-VAL-B-D"] = 9
	store.mu.Unlock()

	a.Forget("EQ-VAL-B-D")
	id, err = a.Next(ctx, "EQ-VAL-B-D")
	require.NoError(t, err)
	assert.Equal(t, "EQ-VAL-B-D-010", id)
}

func TestNewAllocatorRequiresStore(t *testing.T) {
	_, err := NewAllocator(nil)
	assert.ErrorIs(t, err, ErrStoreRequired)
}
