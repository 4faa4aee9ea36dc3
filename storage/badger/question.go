package badger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/finprep/qbank/core"
	"github.com/finprep/qbank/dedup"
	"github.com/finprep/qbank/storage"
)

// QuestionRepository implements storage.QuestionRepository for BadgerDB.
type QuestionRepository struct {
	backend *Backend
}

var _ storage.QuestionRepository = (*QuestionRepository)(nil)

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(backend *Backend) *QuestionRepository {
	return &QuestionRepository{backend: backend}
}

// Close releases repository resources. The backend is closed by its owner.
func (r *QuestionRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *QuestionRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// Add persists new question records with their index entries.
func (r *QuestionRepository) Add(ctx context.Context, records ...*core.QuestionRecord) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if err := core.ValidateRecord(record); err != nil {
				return err
			}

			key := makeQuestionKey(record.QuestionID)
			if _, err := tx.Get(key); err == nil {
				return fmt.Errorf("%w: %s", storage.ErrDuplicateKey, record.QuestionID)
			} else if err != badger.ErrKeyNotFound {
				return err
			}

			record.CreatedAt = time.Now().UTC()
			record.UpdatedAt = record.CreatedAt

			if err := tx.Set(key, storage.MarshalQuestionRecord(record)); err != nil {
				return err
			}

			fp := dedup.FingerprintOf(record.Question)
			if err := tx.Set(makeFingerprintKey(fp, record.QuestionID), []byte(record.QuestionID)); err != nil {
				return err
			}
			if err := tx.Set(makeTopicKey(record.Topic, record.QuestionID), []byte(record.QuestionID)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Get retrieves a single record by question ID.
func (r *QuestionRepository) Get(ctx context.Context, questionID string) (*core.QuestionRecord, error) {
	var result *core.QuestionRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readQuestionRecord(tx, makeQuestionKey(questionID))
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, questionID)
		}
		return nil
	}, false)
	return result, err
}

// Exists reports whether a question ID is already taken.
func (r *QuestionRepository) Exists(ctx context.Context, questionID string) (bool, error) {
	var exists bool
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeQuestionKey(questionID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	}, false)
	return exists, err
}

// GetByFingerprint returns IDs of records matching a question fingerprint.
func (r *QuestionRepository) GetByFingerprint(ctx context.Context, fp core.Fingerprint) ([]string, error) {
	var ids []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialFingerprintKey(fp)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := iter.Item().Value(func(val []byte) error {
				ids = append(ids, string(val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	}, false)
	return ids, err
}

// ListByTopic returns committed records under a topic, ordered by ID.
func (r *QuestionRepository) ListByTopic(ctx context.Context, topic string) ([]*core.QuestionRecord, error) {
	var results []*core.QuestionRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialTopicKey(topic)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var questionID string
			if err := iter.Item().Value(func(val []byte) error {
				questionID = string(val)
				return nil
			}); err != nil {
				return err
			}

			record, err := readQuestionRecord(tx, makeQuestionKey(questionID))
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)
	return results, err
}

// ListAll returns every committed record, ordered by ID.
func (r *QuestionRepository) ListAll(ctx context.Context) ([]*core.QuestionRecord, error) {
	var results []*core.QuestionRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(questionRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.QuestionRecord
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalQuestionRecord(val)
				return err
			}); err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)
	return results, err
}

// MaxSequence returns the highest committed sequence number under a base ID.
func (r *QuestionRepository) MaxSequence(ctx context.Context, baseID string) (int, error) {
	max := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(fmt.Sprintf("%s:%s-", questionRecordPrefix, baseID))
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := string(iter.Item().Key())
			seq, ok := sequenceSuffix(key)
			if ok && seq > max {
				max = seq
			}
		}
		return nil
	}, false)
	return max, err
}

// Delete removes records and their index entries by question ID.
func (r *QuestionRepository) Delete(ctx context.Context, questionIDs ...string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, questionID := range questionIDs {
			key := makeQuestionKey(questionID)
			record, err := readQuestionRecord(tx, key)
			if err != nil {
				return err
			}
			if record == nil {
				return fmt.Errorf("%w: %s", storage.ErrNotFound, questionID)
			}

			fp := dedup.FingerprintOf(record.Question)
			if err := tx.Delete(makeFingerprintKey(fp, questionID)); err != nil {
				return err
			}
			if err := tx.Delete(makeTopicKey(record.Topic, questionID)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// readQuestionRecord reads a question record from the transaction.
// Returns nil, nil when the key does not exist.
func readQuestionRecord(tx *badger.Txn, key []byte) (*core.QuestionRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.QuestionRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalQuestionRecord(val)
		return unmarshalErr
	})
	return record, err
}

// sequenceSuffix parses the numeric sequence off the end of a question key.
func sequenceSuffix(key string) (int, bool) {
	idx := strings.LastIndexByte(key, '-')
	if idx < 0 || idx+1 >= len(key) {
		return 0, false
	}
	seq, err := strconv.Atoi(key[idx+1:])
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}
