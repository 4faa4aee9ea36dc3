package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the stored types. Field order is part of
// the storage format; append new fields at the end only.
var (
	FingerprintMUS    = fingerprintMUS{}
	QuestionRecordMUS = questionRecordMUS{}
	StagedQuestionMUS = stagedQuestionMUS{}
	UploadBatchMUS    = uploadBatchMUS{}
)

// Timestamps are stored as microseconds since the Unix epoch.
func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	us, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(us).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

type fingerprintMUS struct{}

func (fingerprintMUS) Marshal(fp Fingerprint, bs []byte) int {
	return varint.Uint64.Marshal(uint64(fp), bs)
}

func (fingerprintMUS) Unmarshal(bs []byte) (Fingerprint, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return Fingerprint(v), n, err
}

func (fingerprintMUS) Size(fp Fingerprint) int {
	return varint.Uint64.Size(uint64(fp))
}

type questionRecordMUS struct{}

func (questionRecordMUS) Marshal(r QuestionRecord, bs []byte) (n int) {
	for _, s := range []string{
		r.QuestionID, r.Topic, r.Subtopic, r.Difficulty, r.Type,
		r.Question, r.Answer, r.TutorNotes, r.UploadedBy, r.UploadNotes,
	} {
		n += ord.String.Marshal(s, bs[n:])
	}
	n += marshalTime(r.CreatedAt, bs[n:])
	n += marshalTime(r.UpdatedAt, bs[n:])
	return n
}

func (questionRecordMUS) Unmarshal(bs []byte) (r QuestionRecord, n int, err error) {
	fields := []*string{
		&r.QuestionID, &r.Topic, &r.Subtopic, &r.Difficulty, &r.Type,
		&r.Question, &r.Answer, &r.TutorNotes, &r.UploadedBy, &r.UploadNotes,
	}
	var m int
	for _, f := range fields {
		*f, m, err = ord.String.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return r, n, err
		}
	}
	r.CreatedAt, m, err = unmarshalTime(bs[n:])
	n += m
	if err != nil {
		return r, n, err
	}
	r.UpdatedAt, m, err = unmarshalTime(bs[n:])
	n += m
	return r, n, err
}

func (questionRecordMUS) Size(r QuestionRecord) (size int) {
	for _, s := range []string{
		r.QuestionID, r.Topic, r.Subtopic, r.Difficulty, r.Type,
		r.Question, r.Answer, r.TutorNotes, r.UploadedBy, r.UploadNotes,
	} {
		size += ord.String.Size(s)
	}
	return size + sizeTime(r.CreatedAt) + sizeTime(r.UpdatedAt)
}

type stagedQuestionMUS struct{}

func (stagedQuestionMUS) Marshal(q StagedQuestion, bs []byte) (n int) {
	n = QuestionRecordMUS.Marshal(q.Record, bs)
	n += ord.String.Marshal(q.BatchID, bs[n:])
	n += varint.Int.Marshal(int(q.Status), bs[n:])
	n += ord.String.Marshal(q.DuplicateOf, bs[n:])
	n += varint.Float64.Marshal(q.SimilarityScore, bs[n:])
	n += ord.String.Marshal(q.ReviewedBy, bs[n:])
	n += marshalTime(q.ReviewedAt, bs[n:])
	n += ord.String.Marshal(q.ReviewNotes, bs[n:])
	return n
}

func (stagedQuestionMUS) Unmarshal(bs []byte) (q StagedQuestion, n int, err error) {
	var m int
	q.Record, n, err = QuestionRecordMUS.Unmarshal(bs)
	if err != nil {
		return q, n, err
	}
	q.BatchID, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return q, n, err
	}
	var status int
	status, m, err = varint.Int.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return q, n, err
	}
	q.Status = ReviewStatus(status)
	q.DuplicateOf, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return q, n, err
	}
	q.SimilarityScore, m, err = varint.Float64.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return q, n, err
	}
	q.ReviewedBy, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return q, n, err
	}
	q.ReviewedAt, m, err = unmarshalTime(bs[n:])
	n += m
	if err != nil {
		return q, n, err
	}
	q.ReviewNotes, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	return q, n, err
}

func (stagedQuestionMUS) Size(q StagedQuestion) int {
	return QuestionRecordMUS.Size(q.Record) +
		ord.String.Size(q.BatchID) +
		varint.Int.Size(int(q.Status)) +
		ord.String.Size(q.DuplicateOf) +
		varint.Float64.Size(q.SimilarityScore) +
		ord.String.Size(q.ReviewedBy) +
		sizeTime(q.ReviewedAt) +
		ord.String.Size(q.ReviewNotes)
}

type uploadBatchMUS struct{}

func (uploadBatchMUS) Marshal(b UploadBatch, bs []byte) (n int) {
	n = ord.String.Marshal(b.BatchID, bs)
	n += ord.String.Marshal(b.FileName, bs[n:])
	n += ord.String.Marshal(b.UploadedBy, bs[n:])
	n += marshalTime(b.UploadedAt, bs[n:])
	for _, v := range []int{b.TotalQuestions, b.Pending, b.Approved, b.Rejected, b.Duplicate, int(b.Status)} {
		n += varint.Int.Marshal(v, bs[n:])
	}
	n += ord.String.Marshal(b.Notes, bs[n:])
	return n
}

func (uploadBatchMUS) Unmarshal(bs []byte) (b UploadBatch, n int, err error) {
	var m int
	b.BatchID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return b, n, err
	}
	b.FileName, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return b, n, err
	}
	b.UploadedBy, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return b, n, err
	}
	b.UploadedAt, m, err = unmarshalTime(bs[n:])
	n += m
	if err != nil {
		return b, n, err
	}
	counters := []*int{&b.TotalQuestions, &b.Pending, &b.Approved, &b.Rejected, &b.Duplicate}
	for _, c := range counters {
		*c, m, err = varint.Int.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return b, n, err
		}
	}
	var status int
	status, m, err = varint.Int.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return b, n, err
	}
	b.Status = BatchStatus(status)
	b.Notes, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	return b, n, err
}

func (uploadBatchMUS) Size(b UploadBatch) (size int) {
	size = ord.String.Size(b.BatchID) +
		ord.String.Size(b.FileName) +
		ord.String.Size(b.UploadedBy) +
		sizeTime(b.UploadedAt) +
		ord.String.Size(b.Notes)
	for _, v := range []int{b.TotalQuestions, b.Pending, b.Approved, b.Rejected, b.Duplicate, int(b.Status)} {
		size += varint.Int.Size(v)
	}
	return size
}
