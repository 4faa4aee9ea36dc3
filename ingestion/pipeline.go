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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/finprep/qbank/core"
	"github.com/finprep/qbank/dedup"
	"github.com/finprep/qbank/ident"
	"github.com/finprep/qbank/parser"
	"github.com/finprep/qbank/storage"
)

const (
	defaultMaxRecords     = 1000
	defaultCommitAttempts = 3
)

// Pipeline orchestrates the ingestion of question source files: parse,
// validate, assign identifiers, scan for duplicates, commit.
//
// Commits are per-record, not transactional across the batch. Once a record
// commits it stays committed regardless of later failures; the BatchResult
// accounts for every candidate either way.
type Pipeline struct {
	questions  storage.QuestionRepository
	staging    storage.StagingRepository
	batches    storage.BatchRepository
	detector   *dedup.Detector
	allocator  *ident.Allocator
	commitPool *ants.Pool
	maxRecords int
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent commits.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.commitPool != nil {
			p.commitPool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.commitPool = pool
		return nil
	}
}

// WithMaxRecords caps how many candidates one source file may contain.
// Default is 1000.
func WithMaxRecords(n int) Option {
	return func(p *Pipeline) error {
		if n > 0 {
			p.maxRecords = n
		}
		return nil
	}
}

// WithTimeout sets a wall-clock deadline for the commit phase. Records not
// attempted before the deadline are reported as failed and retryable.
// Default is no deadline.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) error {
		if d > 0 {
			p.timeout = d
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	questions storage.QuestionRepository,
	staging storage.StagingRepository,
	batches storage.BatchRepository,
	detector *dedup.Detector,
	opts ...Option,
) (*Pipeline, error) {
	if questions == nil {
		return nil, ErrQuestionRepositoryRequired
	}
	if staging == nil {
		return nil, ErrStagingRepositoryRequired
	}
	if batches == nil {
		return nil, ErrBatchRepositoryRequired
	}
	if detector == nil {
		return nil, ErrDetectorRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	commitPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	allocator, err := ident.NewAllocator(questions)
	if err != nil {
		commitPool.Release()
		return nil, err
	}

	p := &Pipeline{
		questions:  questions,
		staging:    staging,
		batches:    batches,
		detector:   detector,
		allocator:  allocator,
		commitPool: commitPool,
		maxRecords: defaultMaxRecords,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// ValidateOnly parses and validates a source file without persisting
// anything. It is read-only and idempotent: the same content always yields
// the same report, no matter how often it is called.
func (p *Pipeline) ValidateOnly(ctx context.Context, content string) *core.Report {
	parsed := parser.Parse(content)
	_, errs, warns := core.ValidateBatch(parsed.Candidates)
	return &core.Report{
		IsValid:     len(errs) == 0,
		Errors:      errs,
		Warnings:    warns,
		ParsedCount: len(parsed.Candidates),
		LineNumbers: parsed.LineNumbers,
	}
}

// Ingest runs the full pipeline over one source file and returns a
// per-record accounting. The only whole-batch rejections are an empty parse
// (ErrNoCandidates) and an oversized batch (ErrBatchTooLarge); any other
// failure is scoped to the record that caused it.
func (p *Pipeline) Ingest(ctx context.Context, content string, policy *Policy) (*BatchResult, error) {
	if policy == nil {
		policy = &Policy{}
	}

	started := time.Now()
	parsed := parser.Parse(content)
	if len(parsed.Candidates) == 0 {
		return nil, ErrNoCandidates
	}
	if len(parsed.Candidates) > p.maxRecords {
		return nil, fmt.Errorf("%w: %d candidates, limit %d",
			ErrBatchTooLarge, len(parsed.Candidates), p.maxRecords)
	}

	result := &BatchResult{
		BatchID:        uuid.NewString(),
		TotalAttempted: len(parsed.Candidates),
		FailedIDs:      make(map[string]string),
	}

	// Validate each candidate independently. Failed candidates never
	// receive an identifier, so they are keyed by parse order.
	var (
		valid    []*core.Candidate
		validPos []int
		allErrs  []core.Issue
		allWarns []core.Issue
	)
	for i, c := range parsed.Candidates {
		errs, warns := core.ValidateCandidate(c)
		allWarns = append(allWarns, warns...)
		if len(errs) > 0 {
			allErrs = append(allErrs, errs...)
			result.FailedIDs[fmt.Sprintf("record-%d", i+1)] = joinIssues(errs)
			continue
		}
		valid = append(valid, c)
		validPos = append(validPos, i+1)
	}
	result.Report = &core.Report{
		IsValid:     len(allErrs) == 0,
		Errors:      allErrs,
		Warnings:    allWarns,
		ParsedCount: len(parsed.Candidates),
		LineNumbers: parsed.LineNumbers,
	}

	p.logger.Debug("batch validated",
		"batchID", result.BatchID, "parsed", len(parsed.Candidates), "valid", len(valid))

	// Assign identifiers. Allocation is serialized inside the allocator,
	// so sibling records in this batch can't collide with each other.
	records := make([]*core.QuestionRecord, 0, len(valid))
	for i, c := range valid {
		if ident.TopicCode(c.Topic) == ident.PlaceholderCode ||
			ident.SubtopicCode(c.Subtopic) == ident.PlaceholderCode {
			result.Report.Warnings = append(result.Report.Warnings, core.Issue{
				Line:    c.SourceLine,
				Message: "topic or subtopic yields no identifier letters; using placeholder code",
			})
		}
		baseID := ident.BaseID(c.Topic, c.Subtopic, c.Difficulty, c.Type)
		id, err := p.allocator.Reserve(ctx, baseID)
		if err != nil {
			result.FailedIDs[fmt.Sprintf("record-%d", validPos[i])] = err.Error()
			continue
		}
		records = append(records, &core.QuestionRecord{
			QuestionID:  id,
			Topic:       c.Topic,
			Subtopic:    c.Subtopic,
			Difficulty:  c.Difficulty,
			Type:        c.Type,
			Question:    c.Question,
			Answer:      c.Answer,
			TutorNotes:  c.TutorNotes,
			UploadedBy:  policy.UploadedBy,
			UploadNotes: policy.Notes,
		})
	}

	groups, err := p.detector.Scan(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("duplicate scan: %w", err)
	}
	result.Duplicates = groups
	flagged := make(map[string]*dedup.Group, len(groups))
	for _, g := range groups {
		flagged[g.QuestionID] = g
	}

	p.commitRecords(ctx, policy, records, flagged, result)

	batch := &core.UploadBatch{
		BatchID:        result.BatchID,
		FileName:       policy.FileName,
		UploadedBy:     policy.UploadedBy,
		UploadedAt:     time.Now().UTC(),
		TotalQuestions: len(parsed.Candidates),
		Pending:        len(result.QuarantinedIDs),
		Duplicate:      len(groups),
		Status:         core.BatchPending,
		Notes:          policy.Notes,
	}
	if err := p.batches.CreateBatch(ctx, batch); err != nil {
		// Committed records persist; only the provenance record is lost.
		p.logger.Error("error creating upload batch", "batchID", batch.BatchID, "err", err)
		result.ProcessingTime = time.Since(started)
		return result, fmt.Errorf("creating upload batch: %w", err)
	}
	result.ProcessingTime = time.Since(started)

	p.logger.Info("batch ingested",
		"batchID", result.BatchID,
		"committed", len(result.CommittedIDs),
		"quarantined", len(result.QuarantinedIDs),
		"failed", len(result.FailedIDs),
		"duplicates", len(groups),
		"timedOut", result.TimedOut)

	return result, nil
}

// commitRecords runs the commit phase over the worker pool. Flagged records
// are quarantined or committed per policy; everything else commits directly.
func (p *Pipeline) commitRecords(
	ctx context.Context,
	policy *Policy,
	records []*core.QuestionRecord,
	flagged map[string]*dedup.Group,
	result *BatchResult,
) {
	var deadline time.Time
	if p.timeout > 0 {
		deadline = time.Now().Add(p.timeout)
		// Bound in-flight store calls too, not just the submit loop.
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, record := range records {
		if !deadline.IsZero() && time.Now().After(deadline) {
			result.TimedOut = true
			result.FailedIDs[record.QuestionID] = "batch deadline expired; resubmit in a later batch"
			continue
		}

		record := record
		wg.Add(1)
		submitErr := p.commitPool.Submit(func() {
			defer wg.Done()

			group := flagged[record.QuestionID]
			if group != nil && policy.OnDuplicate == DuplicateQuarantine {
				staged := &core.StagedQuestion{
					Record:          *record,
					BatchID:         result.BatchID,
					DuplicateOf:     group.Primary.MatchedID,
					SimilarityScore: group.Primary.Score,
				}
				err := p.staging.Stage(ctx, staged)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.FailedIDs[record.QuestionID] = err.Error()
					return
				}
				result.QuarantinedIDs = append(result.QuarantinedIDs, record.QuestionID)
				return
			}

			id, err := p.commitOne(ctx, record)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				reason := err.Error()
				if errors.Is(err, context.DeadlineExceeded) {
					reason = "store call timed out; resubmit in a later batch"
				}
				result.FailedIDs[id] = reason
				return
			}
			result.CommittedIDs = append(result.CommittedIDs, id)
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			result.FailedIDs[record.QuestionID] = submitErr.Error()
			mu.Unlock()
		}
	}
	wg.Wait()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
	}
}

// commitOne persists a record, re-allocating its identifier when a
// concurrent batch took it first. Returns the identifier the record ended
// up with, which may differ from the one it entered with.
func (p *Pipeline) commitOne(ctx context.Context, record *core.QuestionRecord) (string, error) {
	for attempt := 0; attempt < defaultCommitAttempts; attempt++ {
		err := p.questions.Add(ctx, record)
		if err == nil {
			return record.QuestionID, nil
		}
		if !errors.Is(err, storage.ErrDuplicateKey) {
			return record.QuestionID, err
		}

		// The local counter fell behind a concurrent writer. Re-seed from
		// the store and take a fresh sequence.
		baseID, _, ok := ident.SplitSequence(record.QuestionID)
		if !ok {
			return record.QuestionID, err
		}
		p.logger.Warn("identifier collision on commit",
			"questionID", record.QuestionID, "attempt", attempt+1)
		p.allocator.Forget(baseID)
		newID, reserveErr := p.allocator.Reserve(ctx, baseID)
		if reserveErr != nil {
			return record.QuestionID, reserveErr
		}
		record.QuestionID = newID
	}
	return record.QuestionID, fmt.Errorf("%w: %s", storage.ErrDuplicateKey, record.QuestionID)
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.commitPool != nil {
		p.commitPool.Release()
	}
}

func joinIssues(issues []core.Issue) string {
	msgs := make([]string, len(issues))
	for i, issue := range issues {
		msgs[i] = fmt.Sprintf("line %d: %s", issue.Line, issue.Message)
	}
	return strings.Join(msgs, "; ")
}
