package core

import (
	"errors"
	"strings"
	"testing"
)

func validRecord() *QuestionRecord {
	return &QuestionRecord{
		QuestionID: "EQ-VAL-B-D-001",
		Topic:      "Equities",
		Subtopic:   "Valuation",
		Difficulty: DifficultyBasic,
		Type:       TypeDefinition,
		Question:   "What is enterprise value?",
		Answer:     "Equity value plus net debt.",
	}
}

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*QuestionRecord)
		wantErr error
	}{
		{
			name:    "valid record",
			mutate:  func(r *QuestionRecord) {},
			wantErr: nil,
		},
		{
			name:    "empty question id",
			mutate:  func(r *QuestionRecord) { r.QuestionID = "" },
			wantErr: ErrEmptyQuestionID,
		},
		{
			name:    "empty topic",
			mutate:  func(r *QuestionRecord) { r.Topic = "   " },
			wantErr: ErrEmptyTopic,
		},
		{
			name:    "empty subtopic",
			mutate:  func(r *QuestionRecord) { r.Subtopic = "" },
			wantErr: ErrEmptySubtopic,
		},
		{
			name:    "invalid difficulty",
			mutate:  func(r *QuestionRecord) { r.Difficulty = "Intermediate" },
			wantErr: ErrInvalidDifficulty,
		},
		{
			name:    "invalid type",
			mutate:  func(r *QuestionRecord) { r.Type = "Essay" },
			wantErr: ErrInvalidType,
		},
		{
			name:    "whitespace question",
			mutate:  func(r *QuestionRecord) { r.Question = " \t\n" },
			wantErr: ErrEmptyQuestion,
		},
		{
			name:    "whitespace answer",
			mutate:  func(r *QuestionRecord) { r.Answer = "  " },
			wantErr: ErrEmptyAnswer,
		},
		{
			name:    "oversized answer",
			mutate:  func(r *QuestionRecord) { r.Answer = strings.Repeat("a", MaxAnswerLength+1) },
			wantErr: ErrFieldTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := validRecord()
			tt.mutate(record)
			err := ValidateRecord(record)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidRecord) {
				t.Fatalf("Expected ErrInvalidRecord wrapper, got %v", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if err := ValidateRecord(nil); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("Expected ErrInvalidRecord for nil record, got %v", err)
	}
}

func TestValidateCandidateDifficultyEnum(t *testing.T) {
	c := &Candidate{
		SourceLine: 12,
		Topic:      "Equities",
		Subtopic:   "Valuation",
		Difficulty: "Intermediate",
		Type:       TypeDefinition,
		Question:   "What is enterprise value?",
		Answer:     "Equity value plus net debt.",
	}

	errs, warns := ValidateCandidate(c)
	if len(warns) != 0 {
		t.Fatalf("Expected no warnings, got %v", warns)
	}
	if len(errs) != 1 {
		t.Fatalf("Expected exactly 1 error, got %v", errs)
	}
	if errs[0].Line != 12 {
		t.Fatalf("Expected error on line 12, got %d", errs[0].Line)
	}
	if !strings.Contains(errs[0].Message, `invalid difficulty "Intermediate"`) {
		t.Fatalf("Unexpected message: %s", errs[0].Message)
	}
}

func TestValidateCandidateLengthThresholds(t *testing.T) {
	c := &Candidate{
		SourceLine: 3,
		Topic:      "Equities",
		Subtopic:   "Valuation",
		Difficulty: DifficultyBasic,
		Type:       TypeProblem,
		Question:   strings.Repeat("q", LongQuestionThreshold+1),
		Answer:     strings.Repeat("a", LongAnswerThreshold+1),
	}

	errs, warns := ValidateCandidate(c)
	if len(errs) != 0 {
		t.Fatalf("Expected no errors, got %v", errs)
	}
	if len(warns) != 2 {
		t.Fatalf("Expected 2 length warnings, got %v", warns)
	}

	// Past the hard limit the warning becomes an error.
	c.Answer = strings.Repeat("a", MaxAnswerLength+1)
	errs, warns = ValidateCandidate(c)
	if len(errs) != 1 {
		t.Fatalf("Expected 1 error, got %v", errs)
	}
	if len(warns) != 1 {
		t.Fatalf("Expected 1 warning, got %v", warns)
	}
}

func TestValidateCandidateDefect(t *testing.T) {
	c := &Candidate{
		SourceLine: 7,
		Topic:      "Equities",
		Subtopic:   "Valuation",
		Difficulty: DifficultyBasic,
		Type:       TypeDefinition,
		Question:   "What is enterprise value?",
		Answer:     "Equity value plus net debt.",
		Defect:     "question block is missing its type header",
	}

	errs, _ := ValidateCandidate(c)
	if len(errs) != 1 {
		t.Fatalf("Expected defect to surface as error, got %v", errs)
	}
	if errs[0].Message != c.Defect {
		t.Fatalf("Expected defect message, got %s", errs[0].Message)
	}
}

func TestValidateBatchPreservesOrder(t *testing.T) {
	good := func(line int, q string) *Candidate {
		return &Candidate{
			SourceLine: line,
			Topic:      "Equities",
			Subtopic:   "Valuation",
			Difficulty: DifficultyBasic,
			Type:       TypeDefinition,
			Question:   q,
			Answer:     "An answer.",
		}
	}
	bad := good(5, "")

	valid, errs, _ := ValidateBatch([]*Candidate{good(1, "Q1?"), bad, good(9, "Q2?")})
	if len(valid) != 2 {
		t.Fatalf("Expected 2 valid, got %d", len(valid))
	}
	if valid[0].SourceLine != 1 || valid[1].SourceLine != 9 {
		t.Fatalf("Expected input order preserved, got %d, %d", valid[0].SourceLine, valid[1].SourceLine)
	}
	if len(errs) != 1 || errs[0].Line != 5 {
		t.Fatalf("Expected 1 error on line 5, got %v", errs)
	}
}
