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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/finprep/qbank"
	"github.com/finprep/qbank/core"
	"github.com/finprep/qbank/dedup"
	"github.com/finprep/qbank/ingestion"
	"github.com/finprep/qbank/parser"
)

func main() {
	app := &cli.App{
		Name:  "qbank",
		Usage: "Question bank ingestion and review for interview prep content",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "validate",
				Usage:  "Validate a question source file without persisting anything",
				Action: validateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the question source file",
						Required: true,
					},
				},
			},
			{
				Name:   "ingest",
				Usage:  "Parse, validate, deduplicate, and commit a question source file",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the question source file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "uploader",
						Usage: "Name recorded as the batch uploader",
					},
					&cli.StringFlag{
						Name:  "notes",
						Usage: "Free-form notes attached to the batch",
					},
					&cli.BoolFlag{
						Name:  "quarantine",
						Usage: "Divert flagged duplicates to staging instead of committing them",
					},
					&cli.StringFlag{
						Name:  "config",
						Usage: "Path to a YAML file with duplicate detection settings",
					},
				},
			},
			{
				Name:   "scan",
				Usage:  "Scan the whole committed corpus for duplicates",
				Action: scanCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "config",
						Usage: "Path to a YAML file with duplicate detection settings",
					},
				},
			},
			{
				Name:  "staging",
				Usage: "Review quarantined questions",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List a batch's staged questions",
						Action: stagingListCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "db",
								Aliases:  []string{"d"},
								Usage:    "Path to BadgerDB database directory",
								Required: true,
							},
							&cli.StringFlag{
								Name:     "batch",
								Aliases:  []string{"b"},
								Usage:    "Upload batch ID",
								Required: true,
							},
						},
					},
					{
						Name:   "approve",
						Usage:  "Approve a staged question and promote it to the corpus",
						Action: stagingApproveCommand,
						Flags:  reviewFlags(),
					},
					{
						Name:   "reject",
						Usage:  "Reject a staged question",
						Action: stagingRejectCommand,
						Flags:  reviewFlags(),
					},
				},
			},
			{
				Name:   "batches",
				Usage:  "List upload batches with their review counters",
				Action: batchesCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func reviewFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "batch",
			Aliases:  []string{"b"},
			Usage:    "Upload batch ID",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "id",
			Usage:    "Question ID of the staged question",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "reviewer",
			Usage:    "Name recorded as the reviewer",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "notes",
			Usage: "Review notes",
		},
	}
}

// detectionConfig is the YAML shape of the --config file.
type detectionConfig struct {
	Dedup dedup.Config `yaml:"dedup"`
}

func loadDetectorOptions(path string) ([]dedup.Option, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := detectionConfig{Dedup: dedup.DefaultConfig()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return []dedup.Option{dedup.WithConfig(cfg.Dedup)}, nil
}

func validateCommand(c *cli.Context) error {
	content, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read source file: %w", err)
	}

	parsed := parser.Parse(string(content))
	_, errs, warns := core.ValidateBatch(parsed.Candidates)

	fmt.Printf("Parsed %d question(s)\n", len(parsed.Candidates))
	for _, w := range warns {
		fmt.Printf("  warning line %d: %s\n", w.Line, w.Message)
	}
	for _, e := range errs {
		fmt.Printf("  error line %d: %s\n", e.Line, e.Message)
	}

	if len(errs) > 0 {
		return cli.Exit(fmt.Sprintf("%d validation error(s)", len(errs)), 1)
	}
	fmt.Println("OK")
	return nil
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	content, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read source file: %w", err)
	}

	detectorOpts, err := loadDetectorOptions(c.String("config"))
	if err != nil {
		return err
	}

	db, err := qbank.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline(detectorOpts)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	policy := &ingestion.Policy{
		FileName:   filepath.Base(c.String("file")),
		UploadedBy: c.String("uploader"),
		Notes:      c.String("notes"),
	}
	if c.Bool("quarantine") {
		policy.OnDuplicate = ingestion.DuplicateQuarantine
	}

	result, err := pipeline.Ingest(ctx, string(content), policy)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Batch %s\n", result.BatchID)
	fmt.Printf("  parsed:      %d\n", result.Report.ParsedCount)
	fmt.Printf("  committed:   %d\n", len(result.CommittedIDs))
	fmt.Printf("  quarantined: %d\n", len(result.QuarantinedIDs))
	fmt.Printf("  failed:      %d\n", len(result.FailedIDs))
	for id, reason := range result.FailedIDs {
		fmt.Printf("    %s: %s\n", id, reason)
	}
	for _, g := range result.Duplicates {
		fmt.Printf("  duplicate %s -> %s (%.2f %s)\n",
			g.QuestionID, g.Primary.MatchedID, g.Primary.Score, g.Primary.Band)
	}
	if result.TimedOut {
		fmt.Println("  batch deadline expired; resubmit the failed records")
	}
	return nil
}

func scanCommand(c *cli.Context) error {
	ctx := context.Background()

	detectorOpts, err := loadDetectorOptions(c.String("config"))
	if err != nil {
		return err
	}

	db, err := qbank.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	detector, err := db.NewDetector(detectorOpts...)
	if err != nil {
		return fmt.Errorf("failed to create detector: %w", err)
	}

	groups, err := detector.ScanCorpus(ctx)
	if err != nil {
		return fmt.Errorf("corpus scan failed: %w", err)
	}

	if len(groups) == 0 {
		fmt.Println("No duplicates found")
		return nil
	}
	for _, g := range groups {
		fmt.Printf("%s -> %s (%.2f %s)\n",
			g.QuestionID, g.Primary.MatchedID, g.Primary.Score, g.Primary.Band)
		for _, s := range g.Secondary {
			fmt.Printf("  also %s (%.2f %s)\n", s.MatchedID, s.Score, s.Band)
		}
	}
	return nil
}

func stagingListCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := qbank.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	staged, err := db.StagingRepository().ListBatch(ctx, c.String("batch"))
	if err != nil {
		return fmt.Errorf("failed to list batch: %w", err)
	}

	for _, q := range staged {
		fmt.Printf("%s  %-9s  dup of %s (%.2f)\n",
			q.Record.QuestionID, reviewStatusName(q.Status), q.DuplicateOf, q.SimilarityScore)
	}
	return nil
}

func stagingApproveCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := qbank.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	reviewer, err := db.NewReviewer()
	if err != nil {
		return fmt.Errorf("failed to create reviewer: %w", err)
	}

	id, err := reviewer.Approve(ctx, c.String("batch"), c.String("id"), c.String("reviewer"), c.String("notes"))
	if err != nil {
		return fmt.Errorf("approval failed: %w", err)
	}
	fmt.Printf("Promoted %s\n", id)
	return nil
}

func stagingRejectCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := qbank.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	reviewer, err := db.NewReviewer()
	if err != nil {
		return fmt.Errorf("failed to create reviewer: %w", err)
	}

	if err := reviewer.Reject(ctx, c.String("batch"), c.String("id"), c.String("reviewer"), c.String("notes")); err != nil {
		return fmt.Errorf("rejection failed: %w", err)
	}
	fmt.Println("Rejected")
	return nil
}

func batchesCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := qbank.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	batches, err := db.BatchRepository().ListBatches(ctx)
	if err != nil {
		return fmt.Errorf("failed to list batches: %w", err)
	}

	for _, b := range batches {
		fmt.Printf("%s  %s  total=%d pending=%d approved=%d rejected=%d  %s\n",
			b.BatchID, b.UploadedAt.Format("2006-01-02 15:04"),
			b.TotalQuestions, b.Pending, b.Approved, b.Rejected, b.FileName)
	}
	return nil
}

func reviewStatusName(s core.ReviewStatus) string {
	switch s {
	case core.ReviewPending:
		return "pending"
	case core.ReviewApproved:
		return "approved"
	case core.ReviewRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
