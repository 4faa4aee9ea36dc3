package storage

import (
	"context"

	"github.com/finprep/qbank/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// QuestionRepository provides operations for the committed question corpus.
type QuestionRepository interface {
	Repository

	// Add persists new question records.
	// Sets CreatedAt and UpdatedAt, and maintains the fingerprint and topic
	// indices. Returns ErrDuplicateKey if any QuestionID already exists.
	Add(ctx context.Context, records ...*core.QuestionRecord) error

	// Get retrieves a single record by its question ID.
	// Returns ErrNotFound if the record doesn't exist.
	Get(ctx context.Context, questionID string) (*core.QuestionRecord, error)

	// Exists reports whether a question ID is already taken.
	Exists(ctx context.Context, questionID string) (bool, error)

	// GetByFingerprint returns the IDs of records whose normalized question
	// text has the given fingerprint. Empty slice when none match.
	GetByFingerprint(ctx context.Context, fp core.Fingerprint) ([]string, error)

	// ListByTopic returns committed records under a topic, ordered by ID.
	ListByTopic(ctx context.Context, topic string) ([]*core.QuestionRecord, error)

	// ListAll returns every committed record, ordered by ID.
	ListAll(ctx context.Context) ([]*core.QuestionRecord, error)

	// MaxSequence returns the highest sequence number committed under a base
	// ID (the question ID without its numeric suffix). Returns 0 when the
	// base ID has no records.
	MaxSequence(ctx context.Context, baseID string) (int, error)

	// Delete removes records by question ID, including their index entries.
	// Returns ErrNotFound if any record doesn't exist.
	Delete(ctx context.Context, questionIDs ...string) error
}

// StagingRepository provides operations for quarantined questions awaiting
// human review.
type StagingRepository interface {
	Repository

	// Stage places questions into the review area under their batch.
	// Status is forced to ReviewPending.
	Stage(ctx context.Context, staged ...*core.StagedQuestion) error

	// GetStaged retrieves one staged question by batch and question ID.
	// Returns ErrNotFound if it doesn't exist.
	GetStaged(ctx context.Context, batchID, questionID string) (*core.StagedQuestion, error)

	// ListBatch returns every staged question in a batch, ordered by ID.
	ListBatch(ctx context.Context, batchID string) ([]*core.StagedQuestion, error)

	// Approve marks a pending staged question approved and returns it so the
	// caller can promote its record to the main corpus. Returns ErrNotFound
	// for an unknown question and ErrAlreadyReviewed for one already decided.
	Approve(ctx context.Context, batchID, questionID, reviewer, notes string) (*core.StagedQuestion, error)

	// Reject marks a pending staged question rejected.
	// Returns ErrNotFound or ErrAlreadyReviewed as Approve does.
	Reject(ctx context.Context, batchID, questionID, reviewer, notes string) error
}

// BatchRepository provides operations for upload batch provenance records.
type BatchRepository interface {
	Repository

	// CreateBatch persists a new upload batch record.
	// Returns ErrDuplicateKey if the batch ID already exists.
	CreateBatch(ctx context.Context, batch *core.UploadBatch) error

	// GetBatch retrieves a batch by ID.
	// Returns ErrNotFound if the batch doesn't exist.
	GetBatch(ctx context.Context, batchID string) (*core.UploadBatch, error)

	// ListBatches returns all upload batches, most recent first.
	ListBatches(ctx context.Context) ([]*core.UploadBatch, error)

	// UpdateCounts applies deltas to a batch's review counters and refreshes
	// its status: pending > 0 means reviewing, pending == 0 means completed.
	UpdateCounts(ctx context.Context, batchID string, pendingDelta, approvedDelta, rejectedDelta int) (*core.UploadBatch, error)
}
