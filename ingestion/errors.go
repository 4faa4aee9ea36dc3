package ingestion

import "errors"

var (
	// ErrQuestionRepositoryRequired is returned when no question repository is provided.
	ErrQuestionRepositoryRequired = errors.New("question repository is required")

	// ErrStagingRepositoryRequired is returned when no staging repository is provided.
	ErrStagingRepositoryRequired = errors.New("staging repository is required")

	// ErrBatchRepositoryRequired is returned when no batch repository is provided.
	ErrBatchRepositoryRequired = errors.New("batch repository is required")

	// ErrDetectorRequired is returned when no duplicate detector is provided.
	ErrDetectorRequired = errors.New("duplicate detector is required")

	// ErrNoCandidates is returned when a source file parses to zero question
	// candidates. This is the only whole-batch rejection.
	ErrNoCandidates = errors.New("no question candidates in source")

	// ErrBatchTooLarge is returned when a source file exceeds the record limit.
	ErrBatchTooLarge = errors.New("batch exceeds record limit")
)
