package dedup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finprep/qbank/core"
)

// memCorpus is a map-backed Corpus for tests.
type memCorpus struct {
	records []*core.QuestionRecord
}

func (m *memCorpus) GetByFingerprint(_ context.Context, fp core.Fingerprint) ([]string, error) {
	var ids []string
	for _, r := range m.records {
		if FingerprintOf(r.Question) == fp {
			ids = append(ids, r.QuestionID)
		}
	}
	return ids, nil
}

func (m *memCorpus) ListByTopic(_ context.Context, topic string) ([]*core.QuestionRecord, error) {
	var out []*core.QuestionRecord
	for _, r := range m.records {
		if r.Topic == topic {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memCorpus) ListAll(_ context.Context) ([]*core.QuestionRecord, error) {
	return m.records, nil
}

func record(id, topic, question string) *core.QuestionRecord {
	return &core.QuestionRecord{QuestionID: id, Topic: topic, Subtopic: "General", Question: question, Answer: "a"}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "what is beta", Normalize("  What   is Beta?  "))
	assert.Equal(t, "what is beta", Normalize("what is beta"))
	assert.Equal(t, "", Normalize("   "))
	// Only terminal punctuation is stripped.
	assert.Equal(t, "what, then, is beta", Normalize("What, then, is Beta?!"))
}

func TestSimilarityCommutative(t *testing.T) {
	a := "what is the capital asset pricing model"
	b := "what is the capital asset pricing model used for"
	assert.InDelta(t, Similarity(a, b), Similarity(b, a), 1e-12)
	assert.Equal(t, 1.0, Similarity(a, a))
	assert.Equal(t, 0.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity(a, ""))
}

func TestScanExactDuplicateAgainstCorpus(t *testing.T) {
	corpus := &memCorpus{records: []*core.QuestionRecord{
		record("FI-BOND-B-D-001", "Fixed Income", "What is duration?"),
	}}
	d, err := NewDetector(corpus)
	require.NoError(t, err)

	// Same text up to case, spacing, and terminal punctuation.
	groups, err := d.Scan(context.Background(), []*core.QuestionRecord{
		record("FI-BOND-B-D-002", "Fixed Income", "what   is Duration"),
	})
	require.NoError(t, err)
	require.Len(t, groups, 1)

	g := groups[0]
	assert.Equal(t, "FI-BOND-B-D-002", g.QuestionID)
	assert.Equal(t, "FI-BOND-B-D-001", g.Primary.MatchedID)
	assert.Equal(t, 1.0, g.Primary.Score)
	assert.Equal(t, MatchExact, g.Primary.MatchType)
	assert.Equal(t, BandHigh, g.Primary.Band)
}

func TestScanFuzzyDuplicate(t *testing.T) {
	corpus := &memCorpus{records: []*core.QuestionRecord{
		record("EQ-VAL-B-D-001", "Equities", "What is the capital asset pricing model?"),
	}}
	d, err := NewDetector(corpus)
	require.NoError(t, err)

	groups, err := d.Scan(context.Background(), []*core.QuestionRecord{
		record("EQ-VAL-B-D-002", "Equities", "What is the capital asset pricing model used for?"),
	})
	require.NoError(t, err)
	require.Len(t, groups, 1)

	g := groups[0]
	assert.Equal(t, MatchFuzzy, g.Primary.MatchType)
	assert.Greater(t, g.Primary.Score, 0.60)
	assert.Less(t, g.Primary.Score, 1.0)
}

func TestScanBatchLocalDuplicates(t *testing.T) {
	d, err := NewDetector(&memCorpus{})
	require.NoError(t, err)

	groups, err := d.Scan(context.Background(), []*core.QuestionRecord{
		record("EQ-VAL-B-D-001", "Equities", "What is enterprise value?"),
		record("EQ-VAL-B-D-002", "Equities", "What is Enterprise Value"),
	})
	require.NoError(t, err)
	require.Len(t, groups, 1)

	// The later record is flagged against the earlier one.
	g := groups[0]
	assert.Equal(t, "EQ-VAL-B-D-002", g.QuestionID)
	assert.Equal(t, "EQ-VAL-B-D-001", g.Primary.MatchedID)
	assert.Equal(t, MatchExact, g.Primary.MatchType)
}

func TestScanDistinctQuestionsNotFlagged(t *testing.T) {
	corpus := &memCorpus{records: []*core.QuestionRecord{
		record("EQ-VAL-B-D-001", "Equities", "What is enterprise value?"),
	}}
	d, err := NewDetector(corpus)
	require.NoError(t, err)

	groups, err := d.Scan(context.Background(), []*core.QuestionRecord{
		record("EQ-VAL-B-D-002", "Equities", "Walk me through a discounted cash flow analysis."),
	})
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestScanSameTopicOnly(t *testing.T) {
	corpus := &memCorpus{records: []*core.QuestionRecord{
		record("AC-GAAP-B-D-001", "Accounting", "What is the capital asset pricing model?"),
	}}

	scoped, err := NewDetector(corpus)
	require.NoError(t, err)
	groups, err := scoped.Scan(context.Background(), []*core.QuestionRecord{
		record("EQ-VAL-B-D-001", "Equities", "What is the capital asset pricing model used in practice?"),
	})
	require.NoError(t, err)
	assert.Empty(t, groups, "fuzzy matches across topics suppressed when scoped")

	cfg := DefaultConfig()
	cfg.SameTopicOnly = false
	global, err := NewDetector(corpus, WithConfig(cfg))
	require.NoError(t, err)
	groups, err = global.Scan(context.Background(), []*core.QuestionRecord{
		record("EQ-VAL-B-D-001", "Equities", "What is the capital asset pricing model used in practice?"),
	})
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestScanExactMatchCrossesTopics(t *testing.T) {
	// The fingerprint index is global; topic scoping only bounds the fuzzy tier.
	corpus := &memCorpus{records: []*core.QuestionRecord{
		record("AC-GAAP-B-D-001", "Accounting", "What is goodwill?"),
	}}
	d, err := NewDetector(corpus)
	require.NoError(t, err)

	groups, err := d.Scan(context.Background(), []*core.QuestionRecord{
		record("EQ-VAL-B-D-001", "Equities", "what is goodwill"),
	})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, MatchExact, groups[0].Primary.MatchType)
}

func TestScanSecondariesDescending(t *testing.T) {
	corpus := &memCorpus{records: []*core.QuestionRecord{
		record("EQ-VAL-B-D-001", "Equities", "What is the weighted average cost of capital?"),
		record("EQ-VAL-B-D-002", "Equities", "What is the weighted average cost of capital and how is it used?"),
	}}
	d, err := NewDetector(corpus)
	require.NoError(t, err)

	groups, err := d.Scan(context.Background(), []*core.QuestionRecord{
		record("EQ-VAL-B-D-003", "Equities", "What is the weighted average cost of capital?"),
	})
	require.NoError(t, err)
	require.Len(t, groups, 1)

	g := groups[0]
	require.Len(t, g.Secondary, 1)
	assert.Equal(t, 1.0, g.Primary.Score)
	assert.GreaterOrEqual(t, g.Primary.Score, g.Secondary[0].Score)
}

func TestConfigBands(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, BandHigh, cfg.Band(0.90))
	assert.Equal(t, BandHigh, cfg.Band(1.0))
	assert.Equal(t, BandMedium, cfg.Band(0.80))
	assert.Equal(t, BandMedium, cfg.Band(0.89))
	assert.Equal(t, BandLow, cfg.Band(0.60))
	assert.Equal(t, BandLow, cfg.Band(0.79))
}

func TestNewDetectorValidation(t *testing.T) {
	_, err := NewDetector(nil)
	assert.ErrorIs(t, err, ErrCorpusRequired)

	_, err = NewDetector(&memCorpus{}, WithConfig(Config{LowThreshold: 0}))
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	_, err = NewDetector(&memCorpus{}, WithConfig(Config{LowThreshold: 1.5}))
	assert.ErrorIs(t, err, ErrInvalidThreshold)
}

func TestScanCorpus(t *testing.T) {
	corpus := &memCorpus{records: []*core.QuestionRecord{
		record("EQ-VAL-B-D-001", "Equities", "What is free cash flow?"),
		record("EQ-VAL-B-D-002", "Equities", "what is free cash flow"),
		record("EQ-VAL-B-D-003", "Equities", "Explain the three financial statements."),
	}}
	d, err := NewDetector(corpus)
	require.NoError(t, err)

	groups, err := d.ScanCorpus(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "EQ-VAL-B-D-002", groups[0].QuestionID)
	assert.Equal(t, "EQ-VAL-B-D-001", groups[0].Primary.MatchedID)
	assert.Equal(t, MatchExact, groups[0].Primary.MatchType)
}

func TestScanCorpusExactMatchCrossesTopics(t *testing.T) {
	// Same invariant as the batch scan: topic scoping bounds the fuzzy
	// tier only, exact restatements are caught across topics.
	corpus := &memCorpus{records: []*core.QuestionRecord{
		record("AC-GAAP-B-D-001", "Accounting", "What is goodwill?"),
		record("EQ-VAL-B-D-001", "Equities", "what is goodwill"),
	}}
	d, err := NewDetector(corpus)
	require.NoError(t, err)

	groups, err := d.ScanCorpus(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "EQ-VAL-B-D-001", groups[0].QuestionID)
	assert.Equal(t, "AC-GAAP-B-D-001", groups[0].Primary.MatchedID)
	assert.Equal(t, MatchExact, groups[0].Primary.MatchType)
	assert.Equal(t, 1.0, groups[0].Primary.Score)
}
