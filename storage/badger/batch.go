package badger

import (
	"context"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/finprep/qbank/core"
	"github.com/finprep/qbank/storage"
)

// BatchRepository implements storage.BatchRepository for BadgerDB.
type BatchRepository struct {
	backend *Backend
}

var _ storage.BatchRepository = (*BatchRepository)(nil)

// NewBatchRepository creates a new BatchRepository.
func NewBatchRepository(backend *Backend) *BatchRepository {
	return &BatchRepository{backend: backend}
}

// Close releases repository resources. The backend is closed by its owner.
func (r *BatchRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *BatchRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// CreateBatch persists a new upload batch record.
func (r *BatchRepository) CreateBatch(ctx context.Context, batch *core.UploadBatch) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeBatchKey(batch.BatchID)
		if _, err := tx.Get(key); err == nil {
			return fmt.Errorf("%w: %s", storage.ErrDuplicateKey, batch.BatchID)
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		if err := tx.Set(key, storage.MarshalUploadBatch(batch)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetBatch retrieves a batch by ID.
func (r *BatchRepository) GetBatch(ctx context.Context, batchID string) (*core.UploadBatch, error) {
	var result *core.UploadBatch
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readUploadBatch(tx, makeBatchKey(batchID))
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("%w: batch %s", storage.ErrNotFound, batchID)
		}
		return nil
	}, false)
	return result, err
}

// ListBatches returns all upload batches, most recent first.
func (r *BatchRepository) ListBatches(ctx context.Context) ([]*core.UploadBatch, error) {
	var results []*core.UploadBatch
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(batchRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var batch *core.UploadBatch
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				batch, err = storage.UnmarshalUploadBatch(val)
				return err
			}); err != nil {
				return err
			}
			if batch != nil {
				results = append(results, batch)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.UploadBatch) int {
		if a.UploadedAt.After(b.UploadedAt) {
			return -1
		}
		if a.UploadedAt.Before(b.UploadedAt) {
			return 1
		}
		return 0
	})
	return results, nil
}

// UpdateCounts applies review counter deltas and refreshes batch status.
func (r *BatchRepository) UpdateCounts(ctx context.Context, batchID string, pendingDelta, approvedDelta, rejectedDelta int) (*core.UploadBatch, error) {
	var result *core.UploadBatch
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeBatchKey(batchID)
		batch, err := readUploadBatch(tx, key)
		if err != nil {
			return err
		}
		if batch == nil {
			return fmt.Errorf("%w: batch %s", storage.ErrNotFound, batchID)
		}

		batch.Pending += pendingDelta
		batch.Approved += approvedDelta
		batch.Rejected += rejectedDelta
		if batch.Pending < 0 {
			batch.Pending = 0
		}
		if batch.Pending == 0 {
			batch.Status = core.BatchCompleted
		} else {
			batch.Status = core.BatchReviewing
		}

		if err := tx.Set(key, storage.MarshalUploadBatch(batch)); err != nil {
			return err
		}
		result = batch
		return tx.Commit()
	}, true)
	return result, err
}

// readUploadBatch reads an upload batch from the transaction.
// Returns nil, nil when the key does not exist.
func readUploadBatch(tx *badger.Txn, key []byte) (*core.UploadBatch, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var batch *core.UploadBatch
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		batch, unmarshalErr = storage.UnmarshalUploadBatch(val)
		return unmarshalErr
	})
	return batch, err
}
