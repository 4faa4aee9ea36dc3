package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/finprep/qbank/core"
	"github.com/finprep/qbank/dedup"
	"github.com/finprep/qbank/ident"
	"github.com/finprep/qbank/storage"
)

// Reviewer resolves quarantined questions: approval promotes the record to
// the main corpus, rejection discards it. Both update the batch counters.
type Reviewer struct {
	questions storage.QuestionRepository
	staging   storage.StagingRepository
	batches   storage.BatchRepository
	allocator *ident.Allocator
	logger    *slog.Logger
}

// ReviewerOption configures a Reviewer.
type ReviewerOption func(*Reviewer)

// WithReviewerLogger sets a custom logger.
// Default is slog.Default().
func WithReviewerLogger(logger *slog.Logger) ReviewerOption {
	return func(r *Reviewer) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewReviewer creates a reviewer over the given repositories.
func NewReviewer(
	questions storage.QuestionRepository,
	staging storage.StagingRepository,
	batches storage.BatchRepository,
	opts ...ReviewerOption,
) (*Reviewer, error) {
	if questions == nil {
		return nil, ErrQuestionRepositoryRequired
	}
	if staging == nil {
		return nil, ErrStagingRepositoryRequired
	}
	if batches == nil {
		return nil, ErrBatchRepositoryRequired
	}

	allocator, err := ident.NewAllocator(questions)
	if err != nil {
		return nil, err
	}

	r := &Reviewer{
		questions: questions,
		staging:   staging,
		batches:   batches,
		allocator: allocator,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Pending lists a batch's staged questions still awaiting a decision.
func (r *Reviewer) Pending(ctx context.Context, batchID string) ([]*core.StagedQuestion, error) {
	staged, err := r.staging.ListBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	var pending []*core.StagedQuestion
	for _, q := range staged {
		if q.Status == core.ReviewPending {
			pending = append(pending, q)
		}
	}
	return pending, nil
}

// Approve promotes a staged question to the main corpus. The identifier is
// re-verified at promotion time: if another record took it while the
// question sat in quarantine, a fresh sequence is allocated. The staged
// question is marked approved only after the corpus write is durable, so a
// failed promotion leaves it pending and the approval can be retried.
// Returns the identifier the record was committed under.
func (r *Reviewer) Approve(ctx context.Context, batchID, questionID, reviewer, notes string) (string, error) {
	staged, err := r.staging.GetStaged(ctx, batchID, questionID)
	if err != nil {
		return "", err
	}
	if staged.Status != core.ReviewPending {
		return "", fmt.Errorf("%w: %s", storage.ErrAlreadyReviewed, questionID)
	}

	record := staged.Record
	committedID, err := r.promote(ctx, batchID, &record)
	if err != nil {
		return "", fmt.Errorf("promoting %s: %w", questionID, err)
	}

	if _, err := r.staging.Approve(ctx, batchID, questionID, reviewer, notes); err != nil {
		// The corpus write stands; a retried approval finds the committed
		// record and only repeats this staging update.
		return "", err
	}
	if _, err := r.batches.UpdateCounts(ctx, batchID, -1, 1, 0); err != nil {
		r.logger.Error("error updating batch counters", "batchID", batchID, "err", err)
	}
	return committedID, nil
}

// promote commits a staged record to the corpus, reallocating its
// identifier on collision with a record committed while it sat in review.
func (r *Reviewer) promote(ctx context.Context, batchID string, record *core.QuestionRecord) (string, error) {
	err := r.questions.Add(ctx, record)
	if err == nil {
		return record.QuestionID, nil
	}
	if !errors.Is(err, storage.ErrDuplicateKey) {
		return "", err
	}

	// An earlier approval attempt may have committed this record before
	// its staging update landed. Identical content under the same id means
	// the promotion already happened.
	existing, getErr := r.questions.Get(ctx, record.QuestionID)
	if getErr == nil && dedup.FingerprintOf(existing.Question) == dedup.FingerprintOf(record.Question) {
		return record.QuestionID, nil
	}

	baseID, _, ok := ident.SplitSequence(record.QuestionID)
	if !ok {
		return "", err
	}
	r.allocator.Forget(baseID)
	newID, reserveErr := r.allocator.Reserve(ctx, baseID)
	if reserveErr != nil {
		return "", reserveErr
	}
	r.logger.Warn("reassigning identifier at promotion",
		"batchID", batchID, "old", record.QuestionID, "new", newID)
	record.QuestionID = newID
	if err := r.questions.Add(ctx, record); err != nil {
		return "", err
	}
	return record.QuestionID, nil
}

// Reject discards a staged question.
func (r *Reviewer) Reject(ctx context.Context, batchID, questionID, reviewer, notes string) error {
	if err := r.staging.Reject(ctx, batchID, questionID, reviewer, notes); err != nil {
		return err
	}
	if _, err := r.batches.UpdateCounts(ctx, batchID, -1, 0, 1); err != nil {
		r.logger.Error("error updating batch counters", "batchID", batchID, "err", err)
	}
	return nil
}
