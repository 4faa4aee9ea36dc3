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


package qbank

import (
	"log/slog"

	"github.com/finprep/qbank/dedup"
	"github.com/finprep/qbank/ingestion"
	"github.com/finprep/qbank/storage"
	"github.com/finprep/qbank/storage/badger"
)

// Database bundles the question bank's repositories over one storage
// backend and hands out pipelines, detectors, and reviewers bound to them.
type Database struct {
	backend   *badger.Backend
	questions storage.QuestionRepository
	staging   storage.StagingRepository
	batches   storage.BatchRepository
	logger    *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	inMemory bool
}

// WithInMemory opens the backend in memory, discarding data on close.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// NewDatabase opens a question bank database at the given path.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	return &Database{
		backend:   backend,
		questions: badger.NewQuestionRepository(backend),
		staging:   badger.NewStagingRepository(backend),
		batches:   badger.NewBatchRepository(backend),
		logger:    slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	if err := db.questions.Close(); err != nil {
		db.logger.Error("error closing question repository", "err", err)
		return err
	}
	if err := db.staging.Close(); err != nil {
		db.logger.Error("error closing staging repository", "err", err)
		return err
	}
	if err := db.batches.Close(); err != nil {
		db.logger.Error("error closing batch repository", "err", err)
		return err
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) QuestionRepository() storage.QuestionRepository {
	return db.questions
}

func (db *Database) StagingRepository() storage.StagingRepository {
	return db.staging
}

func (db *Database) BatchRepository() storage.BatchRepository {
	return db.batches
}

// NewDetector creates a duplicate detector over the committed corpus.
func (db *Database) NewDetector(opts ...dedup.Option) (*dedup.Detector, error) {
	return dedup.NewDetector(db.questions, opts...)
}

// NewIngestionPipeline creates an ingestion pipeline over this database.
// Detector options configure the duplicate scan it runs.
func (db *Database) NewIngestionPipeline(detectorOpts []dedup.Option, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	detector, err := db.NewDetector(detectorOpts...)
	if err != nil {
		return nil, err
	}
	return ingestion.NewPipeline(db.questions, db.staging, db.batches, detector, opts...)
}

// NewReviewer creates a staging reviewer over this database.
func (db *Database) NewReviewer(opts ...ingestion.ReviewerOption) (*ingestion.Reviewer, error) {
	return ingestion.NewReviewer(db.questions, db.staging, db.batches, opts...)
}
