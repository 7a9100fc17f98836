package service

import (
	"regexp"
	"strings"
)

// Normalizer cleans raw OCR or plain text before segmentation. Normalize is
// pure and deterministic, and normalize(normalize(x)) == normalize(x).
type Normalizer struct{}

// NewNormalizer creates a new text normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

var (
	// Typographic artifacts OCR engines commonly emit.
	asciiReplacer = strings.NewReplacer(
		"ﬁ", "fi", "ﬂ", "fl", "ﬀ", "ff", "ﬃ", "ffi", "ﬄ", "ffl",
		"—", "--", "–", "-",
		"“", `"`, "”", `"`, "‘", "'", "’", "'",
		"…", "...",
		"®", "", "©", "",
	)

	strayBackslashRe = regexp.MustCompile(`\\+`)
	hyphenBreakRe    = regexp.MustCompile(`(\w)-[ \t]*\n\s*(\w)`)
	whitespaceRunRe  = regexp.MustCompile(`\s+`)

	// A heading start is an optional label word followed by a numeric or
	// dotted-numeric token. Without a label the token must carry trailing
	// punctuation ("1. Definitions", "2) Term") so bare counts like
	// "30 days" are left alone. After whitespace collapsing the only
	// possible preceding characters are start-of-text or a single space.
	headingBreakRe = regexp.MustCompile(`(?i)(^| )((?:(?:Section|Clause|Article) )?\d+(?:\.\d+)*[.)] |(?:Section|Clause|Article) \d+(?:\.\d+)* )`)

	blankRunRe = regexp.MustCompile(`\n\s*\n+`)
)

// Normalize cleans raw text: fixes OCR artifacts, rejoins hyphen-broken
// words, collapses whitespace and inserts a line break before every heading
// so the segmenter sees one heading per line. Always returns a string,
// possibly empty.
func (n *Normalizer) Normalize(raw string) string {
	text := asciiReplacer.Replace(raw)
	text = strayBackslashRe.ReplaceAllString(text, "")

	// Rejoin words split across a line boundary before newlines are
	// collapsed away: "pay-\nment" -> "payment".
	text = hyphenBreakRe.ReplaceAllString(text, "$1$2")

	text = whitespaceRunRe.ReplaceAllString(text, " ")
	text = headingBreakRe.ReplaceAllString(text, "\n$2")
	text = blankRunRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
