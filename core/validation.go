// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"strings"
)

// Content limits, matching the corpus schema.
const (
	MaxTopicLength    = 100
	MaxSubtopicLength = 100
	MaxQuestionLength = 5000
	MaxAnswerLength   = 10000

	// Soft thresholds above which content is flagged, not rejected.
	LongQuestionThreshold = 1000
	LongAnswerThreshold   = 2000
)

// ValidDifficulty reports whether d is an accepted difficulty level.
func ValidDifficulty(d string) bool {
	return d == DifficultyBasic || d == DifficultyAdvanced
}

// ValidQuestionType reports whether t is an accepted question type.
func ValidQuestionType(t string) bool {
	switch t {
	case TypeDefinition, TypeProblem, TypeGenConcept, TypeCalculation, TypeAnalysis:
		return true
	}
	return false
}

// ValidateCandidate checks a single candidate against content constraints.
// Errors are fatal for the candidate; warnings are advisory. Both reference
// the candidate's source line. Validation is pure: no candidate's outcome
// depends on any other.
func ValidateCandidate(c *Candidate) (errs, warns []Issue) {
	issue := func(msg string) Issue { return Issue{Line: c.SourceLine, Message: msg} }

	if c.Defect != "" {
		errs = append(errs, issue(c.Defect))
	}

	if strings.TrimSpace(c.Topic) == "" {
		errs = append(errs, issue(ErrEmptyTopic.Error()))
	} else if len(c.Topic) > MaxTopicLength {
		errs = append(errs, issue(fmt.Sprintf("topic exceeds %d characters", MaxTopicLength)))
	}

	if strings.TrimSpace(c.Subtopic) == "" {
		errs = append(errs, issue(ErrEmptySubtopic.Error()))
	} else if len(c.Subtopic) > MaxSubtopicLength {
		errs = append(errs, issue(fmt.Sprintf("subtopic exceeds %d characters", MaxSubtopicLength)))
	}

	if !ValidDifficulty(c.Difficulty) {
		errs = append(errs, issue(fmt.Sprintf("invalid difficulty %q: must be %s or %s",
			c.Difficulty, DifficultyBasic, DifficultyAdvanced)))
	}

	if !ValidQuestionType(c.Type) {
		errs = append(errs, issue(fmt.Sprintf("invalid type %q: must be one of %s, %s, %s, %s, %s",
			c.Type, TypeDefinition, TypeProblem, TypeGenConcept, TypeCalculation, TypeAnalysis)))
	}

	if strings.TrimSpace(c.Question) == "" {
		errs = append(errs, issue(ErrEmptyQuestion.Error()))
	} else if len(c.Question) > MaxQuestionLength {
		errs = append(errs, issue(fmt.Sprintf("question text exceeds %d characters", MaxQuestionLength)))
	} else if len(c.Question) > LongQuestionThreshold {
		warns = append(warns, issue(fmt.Sprintf("question text is very long (%d characters)", len(c.Question))))
	}

	if strings.TrimSpace(c.Answer) == "" {
		errs = append(errs, issue(ErrEmptyAnswer.Error()))
	} else if len(c.Answer) > MaxAnswerLength {
		errs = append(errs, issue(fmt.Sprintf("answer text exceeds %d characters", MaxAnswerLength)))
	} else if len(c.Answer) > LongAnswerThreshold {
		warns = append(warns, issue(fmt.Sprintf("answer text is very long (%d characters)", len(c.Answer))))
	}

	return errs, warns
}

// ValidateBatch validates candidates in order, returning the passing subset
// plus every error and warning. Output order matches input order so line
// numbers stay meaningful to the submitter.
func ValidateBatch(candidates []*Candidate) (valid []*Candidate, errs, warns []Issue) {
	for _, c := range candidates {
		cerrs, cwarns := ValidateCandidate(c)
		warns = append(warns, cwarns...)
		if len(cerrs) > 0 {
			errs = append(errs, cerrs...)
			continue
		}
		valid = append(valid, c)
	}
	return valid, errs, warns
}

// ValidateRecord validates a QuestionRecord before it is persisted.
//
// Validation rules:
//   - QuestionID must not be empty
//   - Difficulty and Type must hold canonical enum values
//   - Question and Answer must not be empty after trimming
//
// NOT validated (set by the repository):
//   - CreatedAt / UpdatedAt
func ValidateRecord(record *QuestionRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}
	if record.QuestionID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyQuestionID)
	}
	if strings.TrimSpace(record.Topic) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyTopic)
	}
	if strings.TrimSpace(record.Subtopic) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptySubtopic)
	}
	if !ValidDifficulty(record.Difficulty) {
		return fmt.Errorf("%w: %w: %q", ErrInvalidRecord, ErrInvalidDifficulty, record.Difficulty)
	}
	if !ValidQuestionType(record.Type) {
		return fmt.Errorf("%w: %w: %q", ErrInvalidRecord, ErrInvalidType, record.Type)
	}
	if strings.TrimSpace(record.Question) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyQuestion)
	}
	if strings.TrimSpace(record.Answer) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyAnswer)
	}
	if len(record.Topic) > MaxTopicLength || len(record.Subtopic) > MaxSubtopicLength ||
		len(record.Question) > MaxQuestionLength || len(record.Answer) > MaxAnswerLength {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrFieldTooLong)
	}
	return nil
}
