// Package parser converts raw Q&A bank text into ordered candidate records.
//
// Source files use a four-level heading hierarchy (Topic > Subtopic >
// Difficulty > Type) with question blocks marked by **Question:** and
// **Answer:** lines. The parser tracks the hierarchy as explicit state and
// emits self-contained candidates: each candidate re-derives its context
// from the nearest enclosing headers, so files that repeat full headers per
// block parse the same as files that rely on inheritance.
//
// The parser never rejects: malformed blocks are emitted as best-effort
// candidates with a recorded defect, and hard rejection is left to the
// validator so one bad block cannot abort the rest of the file.
package parser

import (
	"regexp"
	"strings"

	"github.com/finprep/qbank/core"
)

// Question block markers.
const (
	questionMarker = "**Question:**"
	answerMarker   = "**Answer:**"
	notesMarker    = "**Notes for Tutor:**"
)

var (
	topicRe      = regexp.MustCompile(`^#\s+Topic:\s*(.+)$`)
	subtopicRe   = regexp.MustCompile(`^##\s+(?:Subtopic[^:]*:\s*)?(.+)$`)
	difficultyRe = regexp.MustCompile(`^###\s+Difficulty:\s*(.+)$`)
	typeRe       = regexp.MustCompile(`^####\s+Type:\s*(.+)$`)

	blankRunRe = regexp.MustCompile(`\n\s*\n\s*\n+`)
)

// Result is the output of one parse: candidates in source order plus the
// first line of each section kind for error reporting.
type Result struct {
	Candidates  []*core.Candidate
	LineNumbers map[string]int
}

// hierarchy is the enclosing header context threaded through the scan loop.
type hierarchy struct {
	topic      string
	subtopic   string
	difficulty string
	qtype      string
}

type captureMode int

const (
	captureNone captureMode = iota
	captureQuestion
	captureAnswer
	captureNotes
)

// block accumulates one question unit until the next heading or marker
// closes it.
type block struct {
	open     bool
	line     int // line of the question marker
	ctx      hierarchy
	mode     captureMode
	question []string
	answer   []string
	notes    []string
	defect   string
}

// Parse scans content and returns every candidate it can recover, in source
// order. It never fails; structural problems surface either as candidate
// defects or as validator errors on the emitted candidates.
func Parse(content string) *Result {
	res := &Result{LineNumbers: make(map[string]int)}

	var (
		ctx hierarchy
		cur block
	)

	flush := func() {
		if !cur.open {
			return
		}
		res.Candidates = append(res.Candidates, cur.finish())
		cur = block{}
	}

	lines := strings.Split(content, "\n")
	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimRight(raw, " \t")
		trimmed := strings.TrimSpace(line)

		switch level := headingLevel(line); level {
		case 1:
			if m := topicRe.FindStringSubmatch(line); m != nil {
				flush()
				ctx = hierarchy{topic: strings.TrimSpace(m[1])}
				markLine(res.LineNumbers, "topic", lineNo)
				continue
			}
		case 2:
			if m := subtopicRe.FindStringSubmatch(line); m != nil {
				flush()
				ctx.subtopic = strings.TrimSpace(m[1])
				ctx.difficulty = ""
				ctx.qtype = ""
				markLine(res.LineNumbers, "subtopic", lineNo)
				continue
			}
		case 3:
			if m := difficultyRe.FindStringSubmatch(line); m != nil {
				flush()
				// Any token is accepted here; the validator owns the enum
				// check so a bad difficulty yields a line-numbered error
				// instead of a silently dropped block.
				ctx.difficulty = strings.TrimSpace(m[1])
				markLine(res.LineNumbers, "difficulty", lineNo)
				continue
			}
		case 4:
			if m := typeRe.FindStringSubmatch(line); m != nil {
				flush()
				ctx.qtype = strings.TrimSpace(m[1])
				markLine(res.LineNumbers, "type", lineNo)
				continue
			}
		default:
			if level > 0 {
				// Deeper heading inside an answer is answer content.
				if cur.open && cur.mode != captureNone {
					cur.append(line)
				}
				continue
			}
		}

		if rest, ok := markerText(trimmed, questionMarker); ok {
			flush()
			cur = block{open: true, line: lineNo, ctx: ctx, mode: captureQuestion}
			markLine(res.LineNumbers, "question", lineNo)
			if rest != "" {
				cur.question = append(cur.question, rest)
			}
			continue
		}

		if rest, ok := markerText(trimmed, answerMarker); ok {
			if !cur.open {
				// Answer with no preceding question: recover a candidate so
				// the defect is reported against this line.
				cur = block{open: true, line: lineNo, ctx: ctx,
					defect: "answer marker without a preceding question marker"}
			}
			cur.mode = captureAnswer
			if rest != "" {
				cur.answer = append(cur.answer, rest)
			}
			continue
		}

		if rest, ok := markerText(trimmed, notesMarker); ok {
			if cur.open {
				cur.mode = captureNotes
				if rest != "" {
					cur.notes = append(cur.notes, rest)
				}
			}
			continue
		}

		if cur.open && cur.mode != captureNone {
			cur.append(line)
		}
	}

	flush()
	return res
}

// finish assembles the accumulated block into a candidate, recording
// structural defects for the validator instead of dropping the block.
func (b *block) finish() *core.Candidate {
	c := &core.Candidate{
		SourceLine: b.line,
		Topic:      b.ctx.topic,
		Subtopic:   b.ctx.subtopic,
		Difficulty: b.ctx.difficulty,
		Type:       b.ctx.qtype,
		Question:   strings.TrimSpace(strings.Join(b.question, "\n")),
		Answer:     collapseBlankRuns(strings.TrimSpace(strings.Join(b.answer, "\n"))),
		TutorNotes: strings.TrimSpace(strings.Join(b.notes, "\n")),
		Defect:     b.defect,
	}
	if c.Defect == "" {
		switch {
		case b.ctx.difficulty == "":
			c.Defect = "question block is missing its difficulty header"
		case b.ctx.qtype == "":
			c.Defect = "question block is missing its type header"
		}
	}
	return c
}

func (b *block) append(line string) {
	switch b.mode {
	case captureQuestion:
		b.question = append(b.question, line)
	case captureAnswer:
		b.answer = append(b.answer, line)
	case captureNotes:
		b.notes = append(b.notes, line)
	}
}

// headingLevel returns the markdown heading level of a line, or 0 when the
// line is not a heading. Only lines starting at column 0 count.
func headingLevel(line string) int {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 || n >= len(line) || line[n] != ' ' {
		return 0
	}
	return n
}

// markerText reports whether line carries the given marker and returns the
// text following it. Markers may be indented.
func markerText(line, marker string) (string, bool) {
	idx := strings.Index(line, marker)
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(line[idx+len(marker):]), true
}

// collapseBlankRuns squeezes runs of blank lines down to a single blank
// line, preserving the rest of the answer's formatting verbatim.
func collapseBlankRuns(s string) string {
	return blankRunRe.ReplaceAllString(s, "\n\n")
}

func markLine(lineNumbers map[string]int, key string, line int) {
	if _, seen := lineNumbers[key]; !seen {
		lineNumbers[key] = line
	}
}
