package service

import (
	"regexp"
	"strings"

	"github.com/lavaait/clauseIQ/models"
)

// clauseHeadingRe matches a heading line: an optional label word, a numeric,
// dotted-numeric or roman-numeral token, optional punctuation, then the
// heading text.
var clauseHeadingRe = regexp.MustCompile(`(?i)^\s*((?:Section|Clause|Article)\s*)?(\d+(?:\.\d+)*|[IVXLCDM]+)[.)]?\s+(.+)$`)

// Segmenter walks normalized text line by line and groups lines into clause
// records.
type Segmenter struct{}

// NewSegmenter creates a new clause segmenter.
func NewSegmenter() *Segmenter {
	return &Segmenter{}
}

// Segment splits text into clause records. Exactly one clause is open at any
// point: a heading line closes the previous clause and opens a new one, and
// never contributes to any clause body. Text before the first heading
// becomes an implicit "Preamble" clause with id "0". Emission order is the
// order of appearance in the source text.
func (s *Segmenter) Segment(text, sourceFile string) []models.ClauseRecord {
	var segments []models.ClauseRecord
	var current *models.ClauseRecord

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := clauseHeadingRe.FindStringSubmatch(line); m != nil {
			if current != nil {
				segments = append(segments, *current)
			}
			clauseID := m[2]
			current = &models.ClauseRecord{
				ClauseID:    clauseID,
				Title:       strings.TrimSpace(m[3]),
				Text:        "",
				SectionPath: clauseID,
				SourceFile:  sourceFile,
			}
			continue
		}

		if current != nil {
			current.Text += " " + line
		} else {
			current = &models.ClauseRecord{
				ClauseID:    "0",
				Title:       "Preamble",
				Text:        line,
				SectionPath: "0",
				SourceFile:  sourceFile,
			}
		}
	}

	if current != nil {
		segments = append(segments, *current)
	}

	return segments
}
