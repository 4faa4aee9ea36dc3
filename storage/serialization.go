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


package storage

import (
	"github.com/finprep/qbank/core"
)

// MarshalFingerprint serializes a Fingerprint to bytes.
func MarshalFingerprint(fp core.Fingerprint) []byte {
	buf := make([]byte, core.FingerprintMUS.Size(fp))
	core.FingerprintMUS.Marshal(fp, buf)
	return buf
}

// UnmarshalFingerprint deserializes a Fingerprint from bytes.
func UnmarshalFingerprint(data []byte) (core.Fingerprint, error) {
	fp, _, err := core.FingerprintMUS.Unmarshal(data)
	return fp, err
}

// MarshalQuestionRecord serializes a QuestionRecord to bytes.
func MarshalQuestionRecord(record *core.QuestionRecord) []byte {
	buf := make([]byte, core.QuestionRecordMUS.Size(*record))
	core.QuestionRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalQuestionRecord deserializes a QuestionRecord from bytes.
func UnmarshalQuestionRecord(data []byte) (*core.QuestionRecord, error) {
	record, _, err := core.QuestionRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalStagedQuestion serializes a StagedQuestion to bytes.
func MarshalStagedQuestion(staged *core.StagedQuestion) []byte {
	buf := make([]byte, core.StagedQuestionMUS.Size(*staged))
	core.StagedQuestionMUS.Marshal(*staged, buf)
	return buf
}

// UnmarshalStagedQuestion deserializes a StagedQuestion from bytes.
func UnmarshalStagedQuestion(data []byte) (*core.StagedQuestion, error) {
	staged, _, err := core.StagedQuestionMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &staged, nil
}

// MarshalUploadBatch serializes an UploadBatch to bytes.
func MarshalUploadBatch(batch *core.UploadBatch) []byte {
	buf := make([]byte, core.UploadBatchMUS.Size(*batch))
	core.UploadBatchMUS.Marshal(*batch, buf)
	return buf
}

// UnmarshalUploadBatch deserializes an UploadBatch from bytes.
func UnmarshalUploadBatch(data []byte) (*core.UploadBatch, error) {
	batch, _, err := core.UploadBatchMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &batch, nil
}
