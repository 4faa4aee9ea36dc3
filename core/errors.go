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

import "errors"

// Domain validation errors
var (
	// ErrInvalidRecord indicates a QuestionRecord failed validation.
	ErrInvalidRecord = errors.New("invalid question record")

	// ErrEmptyQuestion indicates the question text is empty after trimming.
	ErrEmptyQuestion = errors.New("question text is empty")

	// ErrEmptyAnswer indicates the answer text is empty after trimming.
	ErrEmptyAnswer = errors.New("answer text is empty")

	// ErrEmptyTopic indicates the record has no enclosing topic.
	ErrEmptyTopic = errors.New("topic is empty")

	// ErrEmptySubtopic indicates the record has no enclosing subtopic.
	ErrEmptySubtopic = errors.New("subtopic is empty")

	// ErrInvalidDifficulty indicates a difficulty outside {Basic, Advanced}.
	ErrInvalidDifficulty = errors.New("invalid difficulty")

	// ErrInvalidType indicates an unknown question type.
	ErrInvalidType = errors.New("invalid question type")

	// ErrFieldTooLong indicates a field exceeds its hard length limit.
	ErrFieldTooLong = errors.New("field exceeds maximum length")

	// ErrEmptyQuestionID indicates a record has no identifier.
	ErrEmptyQuestionID = errors.New("question id is empty")
)
