package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/finprep/qbank/core"
	"github.com/finprep/qbank/storage"
)

// StagingRepository implements storage.StagingRepository for BadgerDB.
type StagingRepository struct {
	backend *Backend
}

var _ storage.StagingRepository = (*StagingRepository)(nil)

// NewStagingRepository creates a new StagingRepository.
func NewStagingRepository(backend *Backend) *StagingRepository {
	return &StagingRepository{backend: backend}
}

// Close releases repository resources. The backend is closed by its owner.
func (r *StagingRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *StagingRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// Stage places questions into the review area under their batch.
func (r *StagingRepository) Stage(ctx context.Context, staged ...*core.StagedQuestion) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, q := range staged {
			q.Status = core.ReviewPending
			key := makeStagedKey(q.BatchID, q.Record.QuestionID)
			if err := tx.Set(key, storage.MarshalStagedQuestion(q)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetStaged retrieves one staged question by batch and question ID.
func (r *StagingRepository) GetStaged(ctx context.Context, batchID, questionID string) (*core.StagedQuestion, error) {
	var result *core.StagedQuestion
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readStagedQuestion(tx, makeStagedKey(batchID, questionID))
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("%w: %s in batch %s", storage.ErrNotFound, questionID, batchID)
		}
		return nil
	}, false)
	return result, err
}

// ListBatch returns every staged question in a batch, ordered by ID.
func (r *StagingRepository) ListBatch(ctx context.Context, batchID string) ([]*core.StagedQuestion, error) {
	var results []*core.StagedQuestion
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialStagedKey(batchID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var staged *core.StagedQuestion
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				staged, err = storage.UnmarshalStagedQuestion(val)
				return err
			}); err != nil {
				return err
			}
			if staged != nil {
				results = append(results, staged)
			}
		}
		return nil
	}, false)
	return results, err
}

// Approve marks a pending staged question approved and returns it.
func (r *StagingRepository) Approve(ctx context.Context, batchID, questionID, reviewer, notes string) (*core.StagedQuestion, error) {
	return r.review(batchID, questionID, reviewer, notes, core.ReviewApproved)
}

// Reject marks a pending staged question rejected.
func (r *StagingRepository) Reject(ctx context.Context, batchID, questionID, reviewer, notes string) error {
	_, err := r.review(batchID, questionID, reviewer, notes, core.ReviewRejected)
	return err
}

func (r *StagingRepository) review(batchID, questionID, reviewer, notes string, decision core.ReviewStatus) (*core.StagedQuestion, error) {
	var result *core.StagedQuestion
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeStagedKey(batchID, questionID)
		staged, err := readStagedQuestion(tx, key)
		if err != nil {
			return err
		}
		if staged == nil {
			return fmt.Errorf("%w: %s in batch %s", storage.ErrNotFound, questionID, batchID)
		}
		if staged.Status != core.ReviewPending {
			return fmt.Errorf("%w: %s", storage.ErrAlreadyReviewed, questionID)
		}

		staged.Status = decision
		staged.ReviewedBy = reviewer
		staged.ReviewedAt = time.Now().UTC()
		staged.ReviewNotes = notes

		if err := tx.Set(key, storage.MarshalStagedQuestion(staged)); err != nil {
			return err
		}
		result = staged
		return tx.Commit()
	}, true)
	return result, err
}

// readStagedQuestion reads a staged question from the transaction.
// Returns nil, nil when the key does not exist.
func readStagedQuestion(tx *badger.Txn, key []byte) (*core.StagedQuestion, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var staged *core.StagedQuestion
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		staged, unmarshalErr = storage.UnmarshalStagedQuestion(val)
		return unmarshalErr
	})
	return staged, err
}
