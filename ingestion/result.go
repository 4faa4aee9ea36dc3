package ingestion

import (
	"time"

	"github.com/finprep/qbank/core"
	"github.com/finprep/qbank/dedup"
)

// Duplicate handling policies. Advisory commits flagged records and reports
// the matches; quarantine diverts them to staging for human review.
const (
	DuplicateAdvisory   = "advisory"
	DuplicateQuarantine = "quarantine"
)

// Policy holds per-call ingestion parameters. The zero value means advisory
// duplicate handling with no provenance.
type Policy struct {
	FileName    string
	UploadedBy  string
	Notes       string
	OnDuplicate string // DuplicateAdvisory (default) or DuplicateQuarantine
}

// BatchResult reports the outcome of one ingestion call. A batch commits
// record by record: CommittedIDs and FailedIDs together cover every parsed
// candidate, and committed records persist even when others fail.
type BatchResult struct {
	// BatchID is the upload batch's provenance identifier.
	BatchID string

	// TotalAttempted is how many candidates the source file parsed into.
	TotalAttempted int

	// CommittedIDs lists records now in the main corpus, in batch order.
	CommittedIDs []string

	// QuarantinedIDs lists records diverted to staging for review.
	QuarantinedIDs []string

	// FailedIDs maps a record's identifier to the reason it was not
	// committed. Records that failed validation never received an
	// identifier and are keyed "record-N" by their 1-based parse order.
	FailedIDs map[string]string

	// Duplicates carries every duplicate group the scan flagged, whether
	// the flagged records were committed, quarantined, or failed.
	Duplicates []*dedup.Group

	// Report is the validation report for the parsed file.
	Report *core.Report

	// TimedOut is set when the batch deadline expired before every record
	// was attempted. Unattempted records appear in FailedIDs and can be
	// resubmitted; duplicate detection makes resubmission safe.
	TimedOut bool

	// ProcessingTime is the wall-clock duration of the call.
	ProcessingTime time.Duration
}
