package dedup

import "errors"

var (
	// ErrCorpusRequired is returned when a detector is built without a corpus.
	ErrCorpusRequired = errors.New("corpus required")

	// ErrInvalidThreshold is returned for a low threshold outside (0,1].
	ErrInvalidThreshold = errors.New("low threshold must be in (0,1]")
)
