package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Fingerprint is a 64-bit content hash of normalized question text.
// Identical normalized text always produces the same fingerprint, which
// is what the exact tier of duplicate detection keys on.
type Fingerprint uint64

// FingerprintFromText computes a Fingerprint using BLAKE2b hashing.
func FingerprintFromText(text string) Fingerprint {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return Fingerprint(binary.LittleEndian.Uint64(sum))
}

// Difficulty levels accepted by the validator.
const (
	DifficultyBasic    = "Basic"
	DifficultyAdvanced = "Advanced"
)

// Question types accepted by the validator.
const (
	TypeDefinition  = "Definition"
	TypeProblem     = "Problem"
	TypeGenConcept  = "GenConcept"
	TypeCalculation = "Calculation"
	TypeAnalysis    = "Analysis"
)

// Candidate is a single question unit parsed out of a source file.
// It is not yet validated; Difficulty and Type carry whatever token the
// source contained, and Defect records a structural problem the parser
// recovered from. Candidates are immutable once emitted by the parser.
type Candidate struct {
	SourceLine int // 1-based line of the question marker
	Topic      string
	Subtopic   string
	Difficulty string
	Type       string
	Question   string
	Answer     string
	TutorNotes string
	Defect     string // non-empty when the block was malformed
}

// QuestionRecord is a validated, identified question as persisted in the
// main corpus.
type QuestionRecord struct {
	QuestionID  string // unique, e.g. "DCF-WACC-B-G-001"
	Topic       string
	Subtopic    string
	Difficulty  string
	Type        string
	Question    string
	Answer      string
	TutorNotes  string // optional
	UploadedBy  string // optional provenance
	UploadNotes string // optional provenance
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReviewStatus is the review state of a staged question.
type ReviewStatus int

const (
	// ReviewPending means the question awaits a reviewer decision.
	ReviewPending ReviewStatus = iota + 1
	// ReviewApproved means the question was promoted to the main corpus.
	ReviewApproved
	// ReviewRejected means the question was discarded by a reviewer.
	ReviewRejected
)

// StagedQuestion is a question held in the quarantine area pending human
// review. It carries the duplicate flag that routed it there.
type StagedQuestion struct {
	Record          QuestionRecord
	BatchID         string
	Status          ReviewStatus
	DuplicateOf     string  // question id of the primary duplicate match, if any
	SimilarityScore float64 // score of that match
	ReviewedBy      string
	ReviewedAt      time.Time
	ReviewNotes     string
}

// BatchStatus is the lifecycle state of an upload batch.
type BatchStatus int

const (
	// BatchPending means no review activity has happened yet.
	BatchPending BatchStatus = iota + 1
	// BatchReviewing means at least one review decision was recorded.
	BatchReviewing
	// BatchCompleted means every staged question has been resolved.
	BatchCompleted
)

// UploadBatch is the provenance record for one ingestion call.
type UploadBatch struct {
	BatchID        string // uuid
	FileName       string
	UploadedBy     string
	UploadedAt     time.Time
	TotalQuestions int
	Pending        int
	Approved       int
	Rejected       int
	Duplicate      int
	Status         BatchStatus
	Notes          string
}

// Issue is a line-referenced validation message.
type Issue struct {
	Line    int // 1-based source line, 0 when not line-specific
	Message string
}

// Report is the outcome of validating a parsed file without persisting
// anything. Identical input always yields an identical Report.
type Report struct {
	IsValid     bool
	Errors      []Issue
	Warnings    []Issue
	ParsedCount int
	LineNumbers map[string]int // section name -> first line, for error reporting
}
