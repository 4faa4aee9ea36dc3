// Package dedup finds duplicate questions using exact and approximate text
// matching.
//
// The exact tier compares fingerprints of normalized question text, so texts
// differing only in case, spacing, or terminal punctuation score 1.0. The
// fuzzy tier computes a trigram Dice coefficient and retains matches at or
// above a configurable threshold, banded high/medium/low. Detection only
// annotates; whether a flagged record commits is the orchestrator's call.
package dedup

import (
	"context"
	"log/slog"
	"sort"

	"github.com/finprep/qbank/core"
)

// Match types reported on candidates.
const (
	MatchExact = "exact"
	MatchFuzzy = "fuzzy"
)

// Band names derived from a candidate's score.
const (
	BandHigh   = "high"
	BandMedium = "medium"
	BandLow    = "low"
)

// Config holds the tunable score bands. Bands are configuration, not
// constants; the CLI can override them from a policy file.
type Config struct {
	// LowThreshold is the floor below which fuzzy matches are discarded.
	LowThreshold float64 `yaml:"low_threshold"`
	// MediumThreshold and HighThreshold split retained matches into bands.
	MediumThreshold float64 `yaml:"medium_threshold"`
	HighThreshold   float64 `yaml:"high_threshold"`
	// SameTopicOnly restricts corpus comparisons to records sharing the new
	// record's topic, bounding the O(n*m) fuzzy tier.
	SameTopicOnly bool `yaml:"same_topic_only"`
}

// DefaultConfig returns the standard bands: 0.60 low, 0.80 medium,
// 0.90 high, corpus comparisons scoped by topic.
func DefaultConfig() Config {
	return Config{
		LowThreshold:    0.60,
		MediumThreshold: 0.80,
		HighThreshold:   0.90,
		SameTopicOnly:   true,
	}
}

// Band names the band a score falls into.
func (c Config) Band(score float64) string {
	switch {
	case score >= c.HighThreshold:
		return BandHigh
	case score >= c.MediumThreshold:
		return BandMedium
	default:
		return BandLow
	}
}

// Candidate is one scored duplicate pairing. MatchedID names either an
// existing corpus record or an earlier record in the same batch.
type Candidate struct {
	QuestionID string
	MatchedID  string
	Score      float64
	MatchType  string
	Band       string
}

// Group collects every match for one record: the highest-scoring match is
// primary, the rest are secondaries in descending score order.
type Group struct {
	QuestionID string
	Primary    Candidate
	Secondary  []Candidate
}

// Corpus is the read-only slice of the persistence layer the detector
// queries. All methods are safe for concurrent use across batches.
type Corpus interface {
	// GetByFingerprint returns ids of committed records whose normalized
	// question text has the given fingerprint.
	GetByFingerprint(ctx context.Context, fp core.Fingerprint) ([]string, error)

	// ListByTopic returns committed records under a topic.
	ListByTopic(ctx context.Context, topic string) ([]*core.QuestionRecord, error)

	// ListAll returns every committed record.
	ListAll(ctx context.Context) ([]*core.QuestionRecord, error)
}

// Detector scans batches of records against each other and the corpus.
type Detector struct {
	corpus Corpus
	config Config
	logger *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector) error

// WithConfig replaces the default score bands.
func WithConfig(config Config) Option {
	return func(d *Detector) error {
		if config.LowThreshold <= 0 || config.LowThreshold > 1 {
			return ErrInvalidThreshold
		}
		d.config = config
		return nil
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
		return nil
	}
}

// NewDetector creates a detector over the given corpus.
func NewDetector(corpus Corpus, opts ...Option) (*Detector, error) {
	if corpus == nil {
		return nil, ErrCorpusRequired
	}
	d := &Detector{
		corpus: corpus,
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Config returns the detector's active configuration.
func (d *Detector) Config() Config {
	return d.config
}

// Scan compares a batch of identified records against the existing corpus
// and against each other. Records are compared in batch order, so within a
// batch the earlier record is always the matched side.
func (d *Detector) Scan(ctx context.Context, batch []*core.QuestionRecord) ([]*Group, error) {
	type entry struct {
		record     *core.QuestionRecord
		normalized string
		fp         core.Fingerprint
	}

	entries := make([]*entry, len(batch))
	for i, record := range batch {
		norm := Normalize(record.Question)
		entries[i] = &entry{record: record, normalized: norm, fp: core.FingerprintFromText(norm)}
	}

	var groups []*Group
	for i, e := range entries {
		seen := make(map[string]bool) // matched ids already recorded for this entry
		var candidates []Candidate

		add := func(matchedID string, score float64, matchType string) {
			if matchedID == e.record.QuestionID || seen[matchedID] {
				return
			}
			seen[matchedID] = true
			candidates = append(candidates, Candidate{
				QuestionID: e.record.QuestionID,
				MatchedID:  matchedID,
				Score:      score,
				MatchType:  matchType,
				Band:       d.config.Band(score),
			})
		}

		// Exact tier: corpus fingerprint index, then earlier batch records.
		corpusIDs, err := d.corpus.GetByFingerprint(ctx, e.fp)
		if err != nil {
			return nil, err
		}
		for _, id := range corpusIDs {
			add(id, 1.0, MatchExact)
		}
		for _, prev := range entries[:i] {
			if prev.fp == e.fp {
				add(prev.record.QuestionID, 1.0, MatchExact)
			}
		}

		// Fuzzy tier.
		pool, err := d.comparisonPool(ctx, e.record.Topic)
		if err != nil {
			return nil, err
		}
		for _, existing := range pool {
			if seen[existing.QuestionID] {
				continue
			}
			score := Similarity(e.normalized, Normalize(existing.Question))
			if score >= d.config.LowThreshold {
				add(existing.QuestionID, score, MatchFuzzy)
			}
		}
		for _, prev := range entries[:i] {
			if seen[prev.record.QuestionID] {
				continue
			}
			if d.config.SameTopicOnly && prev.record.Topic != e.record.Topic {
				continue
			}
			score := Similarity(e.normalized, prev.normalized)
			if score >= d.config.LowThreshold {
				add(prev.record.QuestionID, score, MatchFuzzy)
			}
		}

		if len(candidates) == 0 {
			continue
		}
		groups = append(groups, groupCandidates(e.record.QuestionID, candidates))
	}

	if len(groups) > 0 {
		d.logger.Debug("duplicate scan flagged records", "batchSize", len(batch), "flagged", len(groups))
	}
	return groups, nil
}

// ScanCorpus runs a whole-corpus maintenance scan, comparing every committed
// record against every other. Pairs below the low threshold are ignored.
func (d *Detector) ScanCorpus(ctx context.Context) ([]*Group, error) {
	records, err := d.corpus.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	normalized := make([]string, len(records))
	fps := make([]core.Fingerprint, len(records))
	for i, r := range records {
		normalized[i] = Normalize(r.Question)
		fps[i] = core.FingerprintFromText(normalized[i])
	}

	byID := make(map[string][]Candidate)
	for i := range records {
		for j := i + 1; j < len(records); j++ {
			// The fingerprint tier is global; topic scoping bounds only
			// the fuzzy comparisons, same as the batch scan.
			var score float64
			matchType := MatchFuzzy
			if fps[i] == fps[j] {
				score, matchType = 1.0, MatchExact
			} else {
				if d.config.SameTopicOnly && records[i].Topic != records[j].Topic {
					continue
				}
				score = Similarity(normalized[i], normalized[j])
			}
			if score < d.config.LowThreshold {
				continue
			}
			// The later record is the one flagged, matching batch-scan
			// orientation where new records point at older ones.
			byID[records[j].QuestionID] = append(byID[records[j].QuestionID], Candidate{
				QuestionID: records[j].QuestionID,
				MatchedID:  records[i].QuestionID,
				Score:      score,
				MatchType:  matchType,
				Band:       d.config.Band(score),
			})
		}
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	groups := make([]*Group, 0, len(ids))
	for _, id := range ids {
		groups = append(groups, groupCandidates(id, byID[id]))
	}
	return groups, nil
}

func (d *Detector) comparisonPool(ctx context.Context, topic string) ([]*core.QuestionRecord, error) {
	if d.config.SameTopicOnly {
		return d.corpus.ListByTopic(ctx, topic)
	}
	return d.corpus.ListAll(ctx)
}

// groupCandidates orders candidates by descending score (matched id as a
// deterministic tie-break) and splits off the primary.
func groupCandidates(questionID string, candidates []Candidate) *Group {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].MatchedID < candidates[j].MatchedID
	})
	return &Group{
		QuestionID: questionID,
		Primary:    candidates[0],
		Secondary:  candidates[1:],
	}
}
