// Package ident derives human-readable question identifiers and allocates
// collision-safe sequence numbers for them.
//
// Identifiers follow the pattern {TOPIC}-{SUBTOPIC}-{DIFFICULTY}-{TYPE}-{SEQ},
// e.g. "DCF-WACC-B-G-001". The leading four components form the base id;
// the sequence suffix is allocated per base id by an Allocator.
package ident

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/finprep/qbank/core"
)

// Component length caps keep identifiers readable.
const (
	maxTopicCodeLen    = 10
	maxSubtopicCodeLen = 8

	// PlaceholderCode stands in when a name yields no usable letters.
	PlaceholderCode = "UNKNOWN"
)

var typeCodes = map[string]string{
	core.TypeGenConcept:  "G",
	core.TypeProblem:     "P",
	core.TypeDefinition:  "D",
	core.TypeCalculation: "C",
	core.TypeAnalysis:    "A",
}

var (
	parenRe      = regexp.MustCompile(`\(([^)]+)\)`)
	nonAlnumRe   = regexp.MustCompile(`[^A-Za-z0-9]`)
	nonAlnumWsRe = regexp.MustCompile(`[^A-Za-z0-9\s]`)
	seqSuffixRe  = regexp.MustCompile(`-(\d+)$`)
)

// Short filler words skipped when building abbreviations.
var fillerWords = map[string]bool{
	"the": true, "and": true, "of": true, "for": true, "to": true,
	"in": true, "on": true, "at": true, "by": true,
}

// BaseID assembles the identifier prefix for a topic/subtopic/difficulty/type
// combination. Sequence allocation is the Allocator's job.
func BaseID(topic, subtopic, difficulty, questionType string) string {
	return TopicCode(topic) + "-" + SubtopicCode(subtopic) + "-" +
		DifficultyCode(difficulty) + "-" + TypeCode(questionType)
}

// FormatID appends a zero-padded sequence number to a base id.
func FormatID(baseID string, seq int) string {
	return fmt.Sprintf("%s-%03d", baseID, seq)
}

// SplitSequence splits a full identifier into its base id and sequence
// number. ok is false when the id carries no numeric suffix.
func SplitSequence(id string) (baseID string, seq int, ok bool) {
	m := seqSuffixRe.FindStringSubmatchIndex(id)
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.Atoi(id[m[2]:m[3]])
	if err != nil {
		return "", 0, false
	}
	return id[:m[0]], n, true
}

// TopicCode abbreviates a topic name. A bracketed abbreviation in the name
// wins ("Discounted Cash Flow (DCF)" -> "DCF"); otherwise the code is built
// from the leading letters of significant words.
func TopicCode(topic string) string {
	if m := parenRe.FindStringSubmatch(topic); m != nil {
		abbrev := nonAlnumRe.ReplaceAllString(m[1], "")
		if abbrev != "" && len(abbrev) <= maxTopicCodeLen {
			return strings.ToUpper(abbrev)
		}
	}

	clean := parenRe.ReplaceAllString(topic, "")
	clean = nonAlnumWsRe.ReplaceAllString(clean, "")
	words := strings.Fields(clean)

	significant := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) > 2 && !fillerWords[strings.ToLower(w)] {
			significant = append(significant, w)
		}
	}
	if len(significant) == 0 {
		significant = words
	}
	if len(significant) == 0 {
		return PlaceholderCode
	}

	if len(significant) == 1 {
		return strings.ToUpper(truncate(significant[0], maxTopicCodeLen))
	}

	var b strings.Builder
	for i, w := range significant {
		if i == 4 {
			break
		}
		b.WriteByte(w[0])
	}
	abbrev := strings.ToUpper(b.String())
	if len(abbrev) < 3 {
		abbrev = strings.ToUpper(truncate(significant[0], 4))
	}
	return truncate(abbrev, maxTopicCodeLen)
}

// SubtopicCode abbreviates a subtopic name. An all-caps word in the name is
// treated as an existing abbreviation ("WACC Calculation" -> "WACC").
func SubtopicCode(subtopic string) string {
	clean := nonAlnumWsRe.ReplaceAllString(subtopic, "")
	words := strings.Fields(clean)
	if len(words) == 0 {
		return PlaceholderCode
	}

	if len(words) == 1 {
		return strings.ToUpper(truncate(words[0], maxSubtopicCodeLen))
	}

	for _, w := range words {
		if len(w) > 1 && w == strings.ToUpper(w) {
			return truncate(w, maxSubtopicCodeLen)
		}
	}

	var b strings.Builder
	for _, w := range words {
		b.WriteByte(upperByte(w[0]))
	}
	if b.Len() <= maxSubtopicCodeLen {
		return b.String()
	}

	if len(words[0]) <= 4 {
		var c strings.Builder
		c.WriteString(strings.ToUpper(words[0]))
		for _, w := range words[1:] {
			c.WriteByte(upperByte(w[0]))
		}
		return truncate(c.String(), maxSubtopicCodeLen)
	}

	return strings.ToUpper(truncate(words[0], maxSubtopicCodeLen))
}

// DifficultyCode maps a difficulty level to its single-letter code.
func DifficultyCode(difficulty string) string {
	if difficulty == "" {
		return "B"
	}
	return strings.ToUpper(difficulty[:1])
}

// TypeCode maps a question type to its single-letter code. Unknown types
// fall back to the GenConcept code; the validator rejects them upstream.
func TypeCode(questionType string) string {
	if code, ok := typeCodes[questionType]; ok {
		return code
	}
	return "G"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func upperByte(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
