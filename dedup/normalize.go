package dedup

import (
	"strings"

	"github.com/finprep/qbank/core"
)

// Normalize prepares text for comparison: lowercase, trimmed, inner
// whitespace collapsed to single spaces, terminal punctuation stripped.
// Two texts that normalize equal are exact duplicates.
func Normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimRight(s, ".!?;:")
	return strings.TrimSpace(s)
}

// FingerprintOf returns the fingerprint of text after normalization.
func FingerprintOf(text string) core.Fingerprint {
	return core.FingerprintFromText(Normalize(text))
}
