package storage

import (
	"testing"
	"time"

	"github.com/finprep/qbank/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalFingerprint(t *testing.T) {
	tests := []struct {
		name string
		fp   core.Fingerprint
	}{
		{"zero", core.Fingerprint(0)},
		{"small", core.Fingerprint(42)},
		{"max uint64", core.Fingerprint(18446744073709551615)},
		{"content-based", core.FingerprintFromText("what is enterprise value")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalFingerprint(tt.fp)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalFingerprint(data)
			require.NoError(t, err)
			assert.Equal(t, tt.fp, decoded)
		})
	}
}

func TestUnmarshalFingerprint_Invalid(t *testing.T) {
	_, err := UnmarshalFingerprint([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalQuestionRecord(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name   string
		record *core.QuestionRecord
	}{
		{
			name: "minimal record",
			record: &core.QuestionRecord{
				QuestionID: "DCF-WACC-B-G-001",
				Topic:      "Discounted Cash Flow (DCF)",
				Subtopic:   "WACC Calculation",
				Difficulty: core.DifficultyBasic,
				Type:       core.TypeGenConcept,
				Question:   "What is the weighted average cost of capital?",
				Answer:     "The blended required return of debt and equity holders.",
				CreatedAt:  now,
				UpdatedAt:  now,
			},
		},
		{
			name: "record with optional fields",
			record: &core.QuestionRecord{
				QuestionID:  "EQUITIES-VALUATIO-A-A-017",
				Topic:       "Equities",
				Subtopic:    "Valuation",
				Difficulty:  core.DifficultyAdvanced,
				Type:        core.TypeAnalysis,
				Question:    "Compare EV/EBITDA against P/E for a levered company.",
				Answer:      "EV/EBITDA is capital structure neutral while P/E is not.",
				TutorNotes:  "Push for the treatment of minority interest.",
				UploadedBy:  "content-team",
				UploadNotes: "bank v3 refresh",
				CreatedAt:   now,
				UpdatedAt:   now,
			},
		},
		{
			name: "unicode content",
			record: &core.QuestionRecord{
				QuestionID: "ACCOUNTING-FINA-B-D-002",
				Topic:      "Accounting",
				Subtopic:   "Financial Statements",
				Difficulty: core.DifficultyBasic,
				Type:       core.TypeDefinition,
				Question:   "What does a €10 write-down do to net income?",
				Answer:     "Reduces pre-tax income by €10, so net income falls by €10 times one minus the tax rate.",
				CreatedAt:  now,
				UpdatedAt:  now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalQuestionRecord(tt.record)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalQuestionRecord(data)
			require.NoError(t, err)
			require.NotNil(t, decoded)

			assert.Equal(t, tt.record.QuestionID, decoded.QuestionID)
			assert.Equal(t, tt.record.Topic, decoded.Topic)
			assert.Equal(t, tt.record.Subtopic, decoded.Subtopic)
			assert.Equal(t, tt.record.Difficulty, decoded.Difficulty)
			assert.Equal(t, tt.record.Type, decoded.Type)
			assert.Equal(t, tt.record.Question, decoded.Question)
			assert.Equal(t, tt.record.Answer, decoded.Answer)
			assert.Equal(t, tt.record.TutorNotes, decoded.TutorNotes)
			assert.Equal(t, tt.record.UploadedBy, decoded.UploadedBy)
			assert.Equal(t, tt.record.UploadNotes, decoded.UploadNotes)
			assert.True(t, tt.record.CreatedAt.Equal(decoded.CreatedAt))
			assert.True(t, tt.record.UpdatedAt.Equal(decoded.UpdatedAt))
		})
	}
}

func TestUnmarshalQuestionRecord_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"invalid data", []byte{0xFF, 0xFF, 0xFF}},
		{"partial data", []byte{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalQuestionRecord(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestMarshalUnmarshalStagedQuestion(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	record := core.QuestionRecord{
		QuestionID: "EQUITIES-VALUATIO-B-D-003",
		Topic:      "Equities",
		Subtopic:   "Valuation",
		Difficulty: core.DifficultyBasic,
		Type:       core.TypeDefinition,
		Question:   "What is free cash flow?",
		Answer:     "Cash from operations after capital expenditures.",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	tests := []struct {
		name   string
		staged *core.StagedQuestion
	}{
		{
			name: "pending",
			staged: &core.StagedQuestion{
				Record:          record,
				BatchID:         "5b9f4f3e-9c42-4f7a-8f6e-000000000001",
				Status:          core.ReviewPending,
				DuplicateOf:     "EQUITIES-VALUATIO-B-D-001",
				SimilarityScore: 0.93,
				ReviewedAt:      now,
			},
		},
		{
			name: "reviewed",
			staged: &core.StagedQuestion{
				Record:          record,
				BatchID:         "5b9f4f3e-9c42-4f7a-8f6e-000000000002",
				Status:          core.ReviewRejected,
				DuplicateOf:     "EQUITIES-VALUATIO-B-D-001",
				SimilarityScore: 1.0,
				ReviewedBy:      "analyst",
				ReviewedAt:      now,
				ReviewNotes:     "exact restatement of an existing question",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalStagedQuestion(tt.staged)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalStagedQuestion(data)
			require.NoError(t, err)
			require.NotNil(t, decoded)

			assert.Equal(t, tt.staged.Record.QuestionID, decoded.Record.QuestionID)
			assert.Equal(t, tt.staged.BatchID, decoded.BatchID)
			assert.Equal(t, tt.staged.Status, decoded.Status)
			assert.Equal(t, tt.staged.DuplicateOf, decoded.DuplicateOf)
			assert.Equal(t, tt.staged.SimilarityScore, decoded.SimilarityScore)
			assert.Equal(t, tt.staged.ReviewedBy, decoded.ReviewedBy)
			assert.True(t, tt.staged.ReviewedAt.Equal(decoded.ReviewedAt))
			assert.Equal(t, tt.staged.ReviewNotes, decoded.ReviewNotes)
		})
	}
}

func TestMarshalUnmarshalUploadBatch(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	batch := &core.UploadBatch{
		BatchID:        "5b9f4f3e-9c42-4f7a-8f6e-000000000003",
		FileName:       "equities_bank.md",
		UploadedBy:     "content-team",
		UploadedAt:     now,
		TotalQuestions: 40,
		Pending:        3,
		Approved:       1,
		Rejected:       2,
		Duplicate:      6,
		Status:         core.BatchReviewing,
		Notes:          "spring refresh",
	}

	data := MarshalUploadBatch(batch)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalUploadBatch(data)
	require.NoError(t, err)
	require.NotNil(t, decoded)

	assert.Equal(t, batch.BatchID, decoded.BatchID)
	assert.Equal(t, batch.FileName, decoded.FileName)
	assert.Equal(t, batch.UploadedBy, decoded.UploadedBy)
	assert.True(t, batch.UploadedAt.Equal(decoded.UploadedAt))
	assert.Equal(t, batch.TotalQuestions, decoded.TotalQuestions)
	assert.Equal(t, batch.Pending, decoded.Pending)
	assert.Equal(t, batch.Approved, decoded.Approved)
	assert.Equal(t, batch.Rejected, decoded.Rejected)
	assert.Equal(t, batch.Duplicate, decoded.Duplicate)
	assert.Equal(t, batch.Status, decoded.Status)
	assert.Equal(t, batch.Notes, decoded.Notes)
}
